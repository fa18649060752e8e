package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rlch/graphsync"
	"github.com/rlch/graphsync/databases/neo4j"
	"github.com/rlch/graphsync/runner"
)

// env holds everything a command needs once flags, environment and config
// file have been merged.
type env struct {
	cfg     *graphsync.Config
	logger  *zap.Logger
	factory *neo4j.Factory
}

func newEnv(cmd *cli.Command) (*env, error) {
	vars, err := graphsync.ReadEnv()
	if err != nil {
		return nil, err
	}

	if v := cmd.String("uri"); v != "" {
		vars.URI = v
	}

	if v := cmd.String("username"); v != "" {
		vars.User = v
	}

	if v := cmd.String("password"); v != "" {
		vars.Password = v
	}

	if v := cmd.String("db"); v != "" {
		vars.DB = v
	}

	if cmd.Bool("debug") {
		vars.LogLevel = "debug"
	}

	logger, err := newLogger(vars.LogLevel)
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfig(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnv(vars)

	logger.Debug("loaded config",
		zap.String("dir", cfg.Dir),
		zap.Int("targets", len(cfg.Targets)),
		zap.Strings("connections", cfg.AuthRegistry().Keys()),
	)

	return &env{
		cfg:     cfg,
		logger:  logger,
		factory: neo4j.NewFactory(cfg.AuthRegistry(), neo4j.WithLogger(logger)),
	}, nil
}

func loadConfig(path string) (*graphsync.Config, error) {
	if path != "" {
		return graphsync.LoadConfigFile(path)
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	return graphsync.LoadConfig(wd)
}

// newLogger logs to stderr so stdout stays free for results.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(lvl)

	return config.Build()
}

func (e *env) close(ctx context.Context) {
	if err := e.factory.Close(ctx); err != nil {
		e.logger.Warn("closing connections", zap.Error(err))
	}

	_ = e.logger.Sync()
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "output results as JSON",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "verbose output",
		},
		&cli.BoolFlag{
			Name:  "fail-fast",
			Usage: "stop on first failure",
		},
	}
}

func formatHandler(cmd *cli.Command) *runner.FormatHandler {
	name := "dots"

	switch {
	case cmd.Bool("json"):
		name = "json"
	case cmd.Bool("verbose"):
		name = "verbose"
	}

	return runner.NewFormatHandler(runner.NewFormatter(name, os.Stdout))
}

func finish(h *runner.FormatHandler, result *runner.Result) error {
	_ = h.Summary(result)

	if !result.Ok() {
		return cli.Exit("", 1)
	}

	return nil
}
