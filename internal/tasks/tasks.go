// package tasks implements the ratings sync pipeline.
//
// [RatingsEngine] is the [SyncEngine] callers build with [NewRatingsEngine]; its Run sequences login, library
// extraction, matching and rating write-back.
// Operations emit progress updates via channels for non-blocking status reporting to the CLI layer.
package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ratingsync/internal/library"
	"github.com/desertthunder/ratingsync/internal/matcher"
	"github.com/desertthunder/ratingsync/internal/models"
	"github.com/desertthunder/ratingsync/internal/services"
	"github.com/desertthunder/ratingsync/internal/shared"
)

// RunOptions configures a single sync run.
type RunOptions struct {
	Email       string // Service account email
	Password    string // Service account password
	LibraryPath string // Path to the exported library property list
	OnlyUnrated bool   // Only consider service songs without a rating
	DryRun      bool   // Compute updates without writing them
}

// SyncResult contains all data from a sync run.
type SyncResult struct {
	Run     *models.SyncRun  // History record for this run
	Remote  models.Catalog   // Service songs, sorted by name
	Library *library.Library // Extracted library, sorted by name
	Match   *matcher.Result  // Matcher output
	Counts  models.RunCounts // Summary counts
	Applied bool             // Whether updates were written to the service
}

// Updates returns the update candidates of the run, or nil if matching never happened.
func (r *SyncResult) Updates() []models.Update {
	if r == nil || r.Match == nil {
		return nil
	}
	return r.Match.Updates
}

// RunRecorder persists run history.
//
// Recording is best effort: failures are logged and never fail the run.
type RunRecorder interface {
	StartRun(run *models.SyncRun) error
	FinishRun(run *models.SyncRun, updates []models.Update) error
}

// SyncEngine defines the ratings sync operation.
type SyncEngine interface {
	// Run logs in, reads the library, matches both catalogs and writes the changed ratings back.
	Run(ctx context.Context, opts RunOptions, progress chan<- ProgressUpdate) (*SyncResult, error)
}

// RatingsEngine implements SyncEngine over a [services.Service].
type RatingsEngine struct {
	service  services.Service
	recorder RunRecorder
	logger   *log.Logger
}

// NewRatingsEngine creates a new RatingsEngine for the given service.
func NewRatingsEngine(service services.Service, logger *log.Logger) *RatingsEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &RatingsEngine{service: service, logger: logger}
}

// SetRecorder enables run history.
func (e *RatingsEngine) SetRecorder(r RunRecorder) {
	e.recorder = r
}

// sendProgress sends a progress update through the channel without blocking.
func (e *RatingsEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run executes the sync pipeline:
//
//	login → open library → fetch service songs → extract library songs → match → apply → record
//
// [shared.ErrAuthFailed] and [shared.ErrSourceNotFound] are returned unchanged so callers can tell them apart.
// Nothing is retried. The result is returned alongside any error with whatever was computed before the failure.
func (e *RatingsEngine) Run(ctx context.Context, opts RunOptions, progress chan<- ProgressUpdate) (*SyncResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: music service not initialized", shared.ErrServiceUnavailable)
	}
	if opts.LibraryPath == "" {
		return nil, fmt.Errorf("%w: library path", shared.ErrMissingArgument)
	}

	run := models.NewSyncRun(e.service.Name(), opts.LibraryPath, opts.OnlyUnrated, opts.DryRun)
	result := &SyncResult{Run: run}
	logger := shared.WithLogger(e.logger, "service", e.service.Name(), "dry_run", opts.DryRun)

	recording := e.startRun(logger, run)

	err := e.sync(ctx, logger, opts, progress, result)
	if err != nil {
		run.Fail(err)
		logger.Error("sync run failed", "error", err)
	} else {
		run.Complete()
	}
	run.SetCounts(result.Counts)

	if recording {
		e.finishRun(logger, progress, run, result.Updates())
	}
	return result, err
}

func (e *RatingsEngine) sync(ctx context.Context, logger *log.Logger, opts RunOptions, progress chan<- ProgressUpdate, result *SyncResult) error {
	e.sendProgress(progress, loginUpdate(e.service.Name()))
	if err := e.service.Login(ctx, opts.Email, opts.Password); err != nil {
		return err
	}
	logger.Debug("logged in", "email", opts.Email)

	e.sendProgress(progress, openSourceUpdate(opts.LibraryPath))
	f, err := library.Open(opts.LibraryPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := ctx.Err(); err != nil {
		return err
	}

	remote, err := e.service.FetchSongs(ctx, func(fetched int) {
		e.sendProgress(progress, fetchRemoteUpdate(fetched))
	})
	if err != nil {
		return fmt.Errorf("failed to fetch songs from %s: %w", e.service.Name(), err)
	}
	models.SortByName(remote)
	result.Remote = models.Catalog{Origin: models.Remote, Songs: remote}
	result.Counts.RemoteTotal = len(remote)
	logger.Info("fetched service songs", "count", len(remote))

	if err := ctx.Err(); err != nil {
		return err
	}

	lib, err := library.Parse(f, opts.LibraryPath, func(parsed, total int) {
		e.sendProgress(progress, extractLocalUpdate(parsed, total))
	})
	if err != nil {
		return err
	}
	result.Library = lib
	result.Counts.LocalTotal = len(lib.Songs)
	result.Counts.Defects = defectiveRecords(lib.Defects)
	for _, d := range lib.Defects {
		logger.Warn("library record defect", "position", d.Position, "name", d.Name, "key", d.Key, "value", d.Value, "error", d.Err)
	}
	logger.Info("extracted library songs", "count", len(lib.Songs), "batches", lib.Batches, "defects", len(lib.Defects))

	if err := ctx.Err(); err != nil {
		return err
	}

	considered := len(remote)
	if opts.OnlyUnrated {
		considered = len(matcher.Unrated(remote))
	}
	e.sendProgress(progress, matchUpdate(considered, len(lib.Songs)))

	match := matcher.Match(remote, lib.Songs, opts.OnlyUnrated)
	result.Match = match
	result.Counts.Considered = match.Considered
	result.Counts.Matched = match.Matched
	result.Counts.Updated = len(match.Updates)
	result.Counts.Unmatched = len(match.Unmatched)
	for _, a := range match.Anomalies {
		logger.Warn("library rating out of range", "name", a.Local.Name, "album", a.Local.Album, "rating", a.Local.Rating, "error", a.Err)
	}
	for _, s := range match.Unmatched {
		logger.Debug("no library match", "name", s.Name, "album", s.Album, "artist", s.Artist)
	}
	e.sendProgress(progress, matchedUpdate(len(match.Updates), len(match.Unmatched), match))
	logger.Info("matched catalogs", "considered", match.Considered, "matched", match.Matched, "updates", len(match.Updates))

	e.sendProgress(progress, applyUpdate(len(match.Updates), opts.DryRun))
	if opts.DryRun || len(match.Updates) == 0 {
		return nil
	}

	if err := e.service.ChangeRatings(ctx, models.Songs(match.Updates)); err != nil {
		return fmt.Errorf("failed to write ratings to %s: %w", e.service.Name(), err)
	}
	result.Applied = true
	logger.Info("ratings written", "count", len(match.Updates))
	return nil
}

func (e *RatingsEngine) startRun(logger *log.Logger, run *models.SyncRun) bool {
	if e.recorder == nil {
		return false
	}
	if err := e.recorder.StartRun(run); err != nil {
		logger.Warn("failed to record run start", "error", err)
		return false
	}
	return true
}

func (e *RatingsEngine) finishRun(logger *log.Logger, progress chan<- ProgressUpdate, run *models.SyncRun, updates []models.Update) {
	if err := e.recorder.FinishRun(run, updates); err != nil {
		logger.Warn("failed to record run", "run", run.ID(), "error", err)
		return
	}
	e.sendProgress(progress, recordUpdate(run.Sequence()))
}

// defectiveRecords counts the distinct records with at least one defect.
func defectiveRecords(defects []library.Defect) int {
	seen := make(map[int]struct{}, len(defects))
	for _, d := range defects {
		seen[d.Position] = struct{}{}
	}
	return len(seen)
}

// IsTerminal reports whether err is one of the errors that end a run before any matching happens.
func IsTerminal(err error) bool {
	return errors.Is(err, shared.ErrAuthFailed) ||
		errors.Is(err, shared.ErrMissingCredentials) ||
		errors.Is(err, shared.ErrSourceNotFound) ||
		errors.Is(err, shared.ErrSourceParse)
}
