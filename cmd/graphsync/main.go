// Command graphsync keeps Neo4j schemas and data in line with declared export targets.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "graphsync",
		Usage: "Sync export targets into Neo4j",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to .graphsync.yaml (default: search upwards from the working directory)",
				Sources: cli.EnvVars("GRAPHSYNC_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "uri",
				Usage: "connection URI of the default connection",
			},
			&cli.StringFlag{
				Name:    "username",
				Aliases: []string{"u"},
				Usage:   "username of the default connection",
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "password of the default connection",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "database of the default connection",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			setupCommand(),
			planCommand(),
			applyCommand(),
		},
	}
}
