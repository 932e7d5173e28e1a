// submodule cmd contains command definitions
package main

import (
	"github.com/urfave/cli/v3"
)

// syncCommand runs the ratings sync
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Overwrite service ratings with the ratings from the library export",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "library",
				Aliases: []string{"l"},
				Usage:   "Path to the exported library XML (overrides config and RATINGSYNC_LIBRARY)",
			},
			&cli.StringFlag{
				Name:  "email",
				Usage: "Service account email (overrides config and RATINGSYNC_EMAIL)",
			},
			&cli.BoolFlag{
				Name:  "only-unrated",
				Usage: "Only update service songs that have no rating yet",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "Compute the rating changes without writing them",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write a report of the rating changes to this file",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Report format: csv, markdown, txt, json, yaml (inferred from --output when omitted)",
			},
			&cli.BoolFlag{
				Name:  "show-unmatched",
				Usage: "List service songs without a library counterpart",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not record this run in the history database",
			},
		},
		Action: r.Sync,
	}
}

// libraryCommand inspects the library export without contacting the service
func libraryCommand(r *Runner) *cli.Command {
	libraryFlag := &cli.StringFlag{
		Name:    "library",
		Aliases: []string{"l"},
		Usage:   "Path to the exported library XML",
	}

	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Inspect the exported library",
		Commands: []*cli.Command{
			{
				Name:  "parse",
				Usage: "Extract songs from the library and list them",
				Flags: []cli.Flag{
					libraryFlag,
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of songs to list (0 for all)",
						Value: 25,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output songs as JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
						Value: true,
					},
				},
				Action: r.LibraryParse,
			},
			{
				Name:  "stats",
				Usage: "Summarize ratings, defects and ambiguous names in the library",
				Flags: []cli.Flag{
					libraryFlag,
				},
				Action: r.LibraryStats,
			},
		},
	}
}

// historyCommand reads past runs from the database
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show previous sync runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to list",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "Only list runs with this status (pending, completed, failed)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "show",
				Usage: "Show a run and the ratings it changed",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "run"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryShow,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config.toml to the --config path",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
