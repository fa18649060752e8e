package main

import (
	"context"
	"fmt"
	"regexp"

	"github.com/urfave/cli/v3"

	"github.com/rlch/graphsync/runner"
	"github.com/rlch/graphsync/setup"
)

func setupCommand() *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create, update or drop constraints and indexes for the configured targets",
		Flags: append(outputFlags(),
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "print pending changes without applying them",
			},
			&cli.StringFlag{
				Name:  "run",
				Usage: "set up only targets matching pattern",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runSetup(ctx, cmd, cmd.Bool("dry-run"))
		},
	}
}

func planCommand() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Print pending setup changes",
		Flags: append(outputFlags(),
			&cli.StringFlag{
				Name:  "run",
				Usage: "plan only targets matching pattern",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runSetup(ctx, cmd, true)
		},
	}
}

func runSetup(ctx context.Context, cmd *cli.Command, dryRun bool) error {
	filter, err := targetFilter(cmd.String("run"))
	if err != nil {
		return err
	}

	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close(ctx)

	h := formatHandler(cmd)

	r := runner.New(
		runner.WithFactory(e.factory),
		runner.WithHandler(h),
		runner.WithFailFast(cmd.Bool("fail-fast")),
		runner.WithFilter(filter),
		runner.WithDryRun(dryRun),
		runner.WithLogger(e.logger),
	)

	store := setup.NewFileStore[runner.TargetState](e.cfg.StatePath())

	result, err := r.Setup(ctx, e.cfg, store)
	if err != nil {
		return err
	}

	return finish(h, result)
}

func targetFilter(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid --run pattern: %w", err)
	}

	return re, nil
}
