// package models defines the data model for the ratings sync service
package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/ratingsync/internal/shared"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// RunStatus is the lifecycle state of a [SyncRun].
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunCounts aggregates the numbers reported at the end of a run.
type RunCounts struct {
	RemoteTotal int // Songs fetched from the service
	LocalTotal  int // Songs extracted from the library
	Considered  int // Remote songs left after the unrated filter
	Matched     int // Remote songs paired with a library song
	Updated     int // Rating changes produced
	Unmatched   int // Remote songs without a library counterpart
	Defects     int // Library records with parse or range defects
}

// SyncRun records one invocation of the sync pipeline.
type SyncRun struct {
	id           string
	sequence     int
	service      string
	libraryPath  string
	onlyUnrated  bool
	dryRun       bool
	status       RunStatus
	counts       RunCounts
	errorMessage string
	startedAt    time.Time
	completedAt  *time.Time
	createdAt    time.Time
	updatedAt    time.Time
}

// NewSyncRun creates a pending run that started now.
func NewSyncRun(service, libraryPath string, onlyUnrated, dryRun bool) *SyncRun {
	now := time.Now()
	return &SyncRun{
		service:     service,
		libraryPath: libraryPath,
		onlyUnrated: onlyUnrated,
		dryRun:      dryRun,
		status:      RunPending,
		startedAt:   now,
		createdAt:   now,
		updatedAt:   now,
	}
}

func (r *SyncRun) ID() string              { return r.id }
func (r *SyncRun) Sequence() int           { return r.sequence }
func (r *SyncRun) Service() string         { return r.service }
func (r *SyncRun) LibraryPath() string     { return r.libraryPath }
func (r *SyncRun) OnlyUnrated() bool       { return r.onlyUnrated }
func (r *SyncRun) DryRun() bool            { return r.dryRun }
func (r *SyncRun) Status() RunStatus       { return r.status }
func (r *SyncRun) Counts() RunCounts       { return r.counts }
func (r *SyncRun) ErrorMessage() string    { return r.errorMessage }
func (r *SyncRun) StartedAt() time.Time    { return r.startedAt }
func (r *SyncRun) CompletedAt() *time.Time { return r.completedAt }
func (r *SyncRun) CreatedAt() time.Time    { return r.createdAt }
func (r *SyncRun) UpdatedAt() time.Time    { return r.updatedAt }

func (r *SyncRun) SetID(id string)             { r.id = id }
func (r *SyncRun) SetSequence(seq int)         { r.sequence = seq }
func (r *SyncRun) SetCounts(c RunCounts)       { r.counts = c }
func (r *SyncRun) SetUpdatedAt(t time.Time)    { r.updatedAt = t }
func (r *SyncRun) SetStartedAt(t time.Time)    { r.startedAt = t }
func (r *SyncRun) SetCreatedAt(t time.Time)    { r.createdAt = t }
func (r *SyncRun) SetCompletedAt(t *time.Time) { r.completedAt = t }
func (r *SyncRun) SetStatus(s RunStatus)       { r.status = s }
func (r *SyncRun) SetErrorMessage(msg string)  { r.errorMessage = msg }

// Complete marks the run as completed now.
func (r *SyncRun) Complete() {
	now := time.Now()
	r.status = RunCompleted
	r.completedAt = &now
	r.updatedAt = now
}

// Fail marks the run as failed now with the given error.
func (r *SyncRun) Fail(err error) {
	now := time.Now()
	r.status = RunFailed
	r.completedAt = &now
	r.updatedAt = now
	if err != nil {
		r.errorMessage = err.Error()
	}
}

// Validate checks required fields.
func (r *SyncRun) Validate() error {
	if r.service == "" {
		return fmt.Errorf("%w: service is required", shared.ErrInvalidInput)
	}
	if r.libraryPath == "" {
		return fmt.Errorf("%w: library path is required", shared.ErrInvalidInput)
	}
	switch r.status {
	case RunPending, RunCompleted, RunFailed:
	default:
		return fmt.Errorf("%w: unknown status %q", shared.ErrInvalidInput, r.status)
	}
	return nil
}

// RatingChange is one rating written (or proposed) by a run.
type RatingChange struct {
	ID             string
	RunID          string
	Position       int
	SongID         string
	Name           string
	Album          string
	Artist         string
	PreviousRating int
	NewRating      int
	CreatedAt      time.Time
}

// NewRatingChange builds the history row for the update at the given position.
func NewRatingChange(runID string, position int, u Update) RatingChange {
	return RatingChange{
		RunID:          runID,
		Position:       position,
		SongID:         u.Song.ID,
		Name:           u.Song.Name,
		Album:          u.Song.Album,
		Artist:         u.Song.Artist,
		PreviousRating: u.PreviousRating,
		NewRating:      u.Song.Rating,
		CreatedAt:      time.Now(),
	}
}
