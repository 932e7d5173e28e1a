package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ratingsync/internal/models"
	"github.com/desertthunder/ratingsync/internal/repositories"
	"github.com/desertthunder/ratingsync/internal/shared"
	"github.com/desertthunder/ratingsync/internal/ui"
	"github.com/urfave/cli/v3"
)

// runView is the JSON form of a [models.SyncRun].
type runView struct {
	ID          string           `json:"id"`
	Sequence    int              `json:"sequence"`
	Service     string           `json:"service"`
	Library     string           `json:"library"`
	OnlyUnrated bool             `json:"onlyUnrated"`
	DryRun      bool             `json:"dryRun"`
	Status      models.RunStatus `json:"status"`
	Counts      models.RunCounts `json:"counts"`
	Error       string           `json:"error,omitempty"`
	StartedAt   time.Time        `json:"startedAt"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
	Changes     []changeView     `json:"changes,omitempty"`
}

type changeView struct {
	SongID         string `json:"songId"`
	Name           string `json:"name"`
	Album          string `json:"album"`
	Artist         string `json:"artist"`
	PreviousRating int    `json:"previousRating"`
	NewRating      int    `json:"newRating"`
}

func newRunView(run *models.SyncRun) runView {
	return runView{
		ID:          run.ID(),
		Sequence:    run.Sequence(),
		Service:     run.Service(),
		Library:     run.LibraryPath(),
		OnlyUnrated: run.OnlyUnrated(),
		DryRun:      run.DryRun(),
		Status:      run.Status(),
		Counts:      run.Counts(),
		Error:       run.ErrorMessage(),
		StartedAt:   run.StartedAt(),
		CompletedAt: run.CompletedAt(),
	}
}

// HistoryList lists the most recent runs.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	criteria := map[string]any{"limit": int(cmd.Int("limit"))}
	if status := cmd.String("status"); status != "" {
		criteria["status"] = status
	}

	runs, err := repositories.NewRunRepository(db).List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		views := make([]runView, len(runs))
		for i, run := range runs {
			views[i] = newRunView(run)
		}
		return r.writeJSON(views, true)
	}

	if len(runs) == 0 {
		r.writePlain("%s\n", ui.Styles.Help("No runs recorded yet"))
		return nil
	}

	rows := make([][]string, len(runs))
	for i, run := range runs {
		c := run.Counts()
		rows[i] = []string{
			strconv.Itoa(run.Sequence()),
			run.StartedAt().Local().Format(time.DateTime),
			run.Service(),
			statusLabel(run),
			strconv.Itoa(c.Matched),
			strconv.Itoa(c.Updated),
			strconv.Itoa(c.Unmatched),
			strconv.Itoa(c.Defects),
		}
	}

	r.writePlain("%s\n", ui.RenderTable(
		[]string{"#", "Started", "Service", "Status", "Matched", "Updated", "Unmatched", "Defects"},
		rows,
		[]ui.Alignment{ui.AlignRight, ui.AlignLeft, ui.AlignLeft, ui.AlignLeft, ui.AlignRight, ui.AlignRight, ui.AlignRight, ui.AlignRight},
	))
	return nil
}

// HistoryShow prints a run and the rating changes it produced.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	arg := cmd.StringArg("run")
	if arg == "" {
		return fmt.Errorf("%w: run number", shared.ErrMissingArgument)
	}
	sequence, err := strconv.Atoi(strings.TrimPrefix(arg, "#"))
	if err != nil {
		return fmt.Errorf("%w: run number %q", shared.ErrInvalidArgument, arg)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := repositories.NewRunRepository(db).GetBySequence(sequence)
	if err != nil {
		return err
	}

	changes, err := repositories.NewRatingChangeRepository(db).ListChanges(run.ID())
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		view := newRunView(run)
		for _, c := range changes {
			view.Changes = append(view.Changes, changeView{
				SongID:         c.SongID,
				Name:           c.Name,
				Album:          c.Album,
				Artist:         c.Artist,
				PreviousRating: c.PreviousRating,
				NewRating:      c.NewRating,
			})
		}
		return r.writeJSON(view, true)
	}

	c := run.Counts()
	r.writePlainHeader(fmt.Sprintf("Run #%d (%s)", run.Sequence(), statusLabel(run)))
	r.writePlain("ID:       %s\n", run.ID())
	r.writePlain("Service:  %s\n", run.Service())
	r.writePlain("Library:  %s\n", run.LibraryPath())
	r.writePlain("Started:  %s\n", run.StartedAt().Local().Format(time.DateTime))
	if done := run.CompletedAt(); done != nil {
		r.writePlain("Finished: %s\n", done.Local().Format(time.DateTime))
	}
	if msg := run.ErrorMessage(); msg != "" {
		r.writePlain("Error:    %s\n", ui.Styles.Error(msg))
	}
	r.writePlain("Counts:   %d service, %d library, %d considered, %d matched, %d updated, %d unmatched, %d defects\n",
		c.RemoteTotal, c.LocalTotal, c.Considered, c.Matched, c.Updated, c.Unmatched, c.Defects)

	if len(changes) == 0 {
		r.writePlain("%s\n", ui.Styles.Help("No rating changes"))
		return nil
	}

	rows := make([][]string, len(changes))
	for i, ch := range changes {
		rows[i] = []string{ch.Name, ch.Album, ch.Artist, shared.RatingStars(ch.PreviousRating), shared.RatingStars(ch.NewRating)}
	}
	r.writePlain("%s\n", ui.RenderTable([]string{"Name", "Album", "Artist", "Before", "After"}, rows, nil))
	return nil
}

func statusLabel(run *models.SyncRun) string {
	label := string(run.Status())
	if run.DryRun() {
		label += " (dry run)"
	}

	switch run.Status() {
	case models.RunCompleted:
		return ui.Styles.Success(label)
	case models.RunFailed:
		return ui.Styles.Error(label)
	default:
		return ui.Styles.Warning(label)
	}
}
