package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/ratingsync/internal/formatter"
	"github.com/desertthunder/ratingsync/internal/models"
	"github.com/desertthunder/ratingsync/internal/shared"
	"github.com/desertthunder/ratingsync/internal/tasks"
	"github.com/desertthunder/ratingsync/internal/ui"
	"github.com/urfave/cli/v3"
)

// Sync runs the ratings sync and prints a summary of the changes.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	if r.engine == nil {
		return fmt.Errorf("%w: music service not initialized", shared.ErrServiceUnavailable)
	}

	opts, err := r.syncOptions(cmd)
	if err != nil {
		return err
	}

	output := cmd.String("output")
	format, err := reportFormat(cmd.String("format"), output)
	if err != nil {
		return err
	}

	if !cmd.Bool("no-history") {
		db, err := r.openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()
		r.engine.SetRecorder(recorder(db))
	}

	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go ui.Drain(progress, func(line string) { r.writePlain("%s\n", line) }, done)

	result, err := r.engine.Run(ctx, opts, progress)
	close(progress)
	<-done

	if err != nil {
		if !tasks.IsTerminal(err) && result != nil && result.Run.Sequence() > 0 {
			r.writePlain("%s\n", ui.Styles.Help(fmt.Sprintf("Partial counts were recorded; see `ratingsync history show %d`.", result.Run.Sequence())))
		}
		return err
	}

	r.printSyncSummary(result, opts)

	if cmd.Bool("show-unmatched") {
		r.printUnmatched(result.Match.Unmatched)
	}

	if output != "" {
		report := &formatter.Report{
			Service:     result.Run.Service(),
			LibraryPath: opts.LibraryPath,
			GeneratedAt: time.Now(),
			DryRun:      opts.DryRun,
			Counts:      result.Counts,
			Updates:     result.Updates(),
		}
		if cmd.Bool("show-unmatched") {
			report.Unmatched = result.Match.Unmatched
		}

		path, err := formatter.WriteExport(report, format, output)
		if err != nil {
			return err
		}
		r.logger.Info("report written", "path", path, "format", format)
		r.writePlain("%s\n", ui.Styles.Success("✓ Report written to "+path))
	}

	return nil
}

// syncOptions merges flags over the loaded config and validates the result.
//
// Passwords are never taken from flags.
func (r *Runner) syncOptions(cmd *cli.Command) (tasks.RunOptions, error) {
	config := *r.config

	if email := cmd.String("email"); email != "" {
		config.Credentials.Email = email
	}
	if path := cmd.String("library"); path != "" {
		config.Library.Path = path
	}
	if cmd.Bool("only-unrated") {
		config.Library.OnlyUnrated = true
	}

	if err := config.Validate(); err != nil {
		return tasks.RunOptions{}, err
	}

	return tasks.RunOptions{
		Email:       config.Credentials.Email,
		Password:    config.Credentials.Password,
		LibraryPath: config.Library.Path,
		OnlyUnrated: config.Library.OnlyUnrated,
		DryRun:      cmd.Bool("dry-run"),
	}, nil
}

// reportFormat resolves --format, falling back to the --output extension and then Markdown.
func reportFormat(name, output string) (formatter.Format, error) {
	if name != "" {
		return formatter.ParseFormat(name)
	}
	return formatter.FormatFromPath(output, formatter.Markdown), nil
}

func (r *Runner) printSyncSummary(result *tasks.SyncResult, opts tasks.RunOptions) {
	c := result.Counts
	r.writePlainln("%s", ui.Styles.Title("Sync Summary"))

	rows := [][]string{
		{"Service songs", strconv.Itoa(c.RemoteTotal)},
		{"Library songs", strconv.Itoa(c.LocalTotal)},
		{"Considered", strconv.Itoa(c.Considered)},
		{"Matched", strconv.Itoa(c.Matched)},
		{"Ready for sync", strconv.Itoa(c.Updated)},
		{"Unmatched", strconv.Itoa(c.Unmatched)},
		{"Library defects", strconv.Itoa(c.Defects)},
	}
	r.writePlain("%s\n", ui.RenderTable([]string{"", "Count"}, rows, []ui.Alignment{ui.AlignLeft, ui.AlignRight}))

	updates := result.Updates()
	if len(updates) > 0 {
		r.writePlain("%s\n", ui.RenderTable(
			[]string{"Name", "Album", "Artist", "Before", "After"},
			updateRows(updates),
			nil,
		))
	}

	switch {
	case len(updates) == 0:
		r.writePlain("%s\n", ui.Styles.Success("✓ Ratings already in sync"))
	case opts.DryRun:
		r.writePlain("%s\n", ui.Styles.Warning(fmt.Sprintf("Dry run: %d ratings not written", len(updates))))
	case result.Applied:
		r.writePlain("%s\n", ui.Styles.Success(fmt.Sprintf("✓ Updated %d ratings", len(updates))))
	}

	if c.Defects > 0 {
		r.writePlain("%s\n", ui.Styles.Help("Run with --verbose or `ratingsync library stats` to inspect library defects."))
	}
}

func (r *Runner) printUnmatched(songs []models.Song) {
	if len(songs) == 0 {
		return
	}

	r.writePlainln("%s", ui.Styles.Title(fmt.Sprintf("Unmatched (%d)", len(songs))))
	rows := make([][]string, len(songs))
	for i, s := range songs {
		rows[i] = []string{s.ID, s.Name, s.Album, s.Artist, shared.RatingStars(s.Rating)}
	}
	r.writePlain("%s\n", ui.RenderTable([]string{"ID", "Name", "Album", "Artist", "Rating"}, rows, nil))
}

func updateRows(updates []models.Update) [][]string {
	rows := make([][]string, len(updates))
	for i, u := range updates {
		rows[i] = []string{
			u.Song.Name,
			u.Song.Album,
			u.Song.Artist,
			shared.RatingStars(u.PreviousRating),
			shared.RatingStars(u.Song.Rating),
		}
	}
	return rows
}
