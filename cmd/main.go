package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/ratingsync/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	if err := newApp(runner).Run(context.Background(), os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrAuthFailed), errors.Is(err, shared.ErrMissingCredentials):
			logger.Fatal("login failed; check credentials.email and credentials.password or RATINGSYNC_EMAIL/RATINGSYNC_PASSWORD", "error", err)
		case errors.Is(err, shared.ErrSourceNotFound):
			logger.Fatal("library file not found; export it from iTunes (File > Library > Export Library)", "error", err)
		default:
			logger.Fatalf("application error: %v", err)
		}
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "ratingsync",
		Usage:   "Sync star ratings from an iTunes library export to a music service",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "env",
				Usage: "Path to .env file with RATINGSYNC_* overrides",
				Value: ".env",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.Before,
		Commands: r.register(),
	}
}
