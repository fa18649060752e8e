package main

import (
	"context"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rlch/graphsync/batch"
	"github.com/rlch/graphsync/runner"
)

func applyCommand() *cli.Command {
	return &cli.Command{
		Name:      "apply",
		Usage:     "Apply batch files to the graph",
		ArgsUsage: "[files or directories...]",
		Flags:     outputFlags(),
		Action:    runApply,
	}
}

func runApply(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		args = []string{"."}
	}

	files, err := batch.Collect(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return batch.ErrNoBatchFiles
	}

	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close(ctx)

	e.logger.Debug("collected batch files", zap.Strings("files", files))

	h := formatHandler(cmd)

	r := runner.New(
		runner.WithFactory(e.factory),
		runner.WithHandler(h),
		runner.WithFailFast(cmd.Bool("fail-fast")),
		runner.WithLogger(e.logger),
	)

	result, err := r.Apply(ctx, e.cfg, batch.NewLoader(e.cfg), files)
	if err != nil {
		return err
	}

	return finish(h, result)
}
