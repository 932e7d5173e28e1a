package repositories

import (
	"fmt"

	"github.com/desertthunder/ratingsync/internal/models"
)

// RunRecorderAdapter implements tasks.RunRecorder using RunRepository and RatingChangeRepository.
//
// The run row is created when the sync starts and updated with its outcome and changes when it ends.
type RunRecorderAdapter struct {
	runs    *RunRepository
	changes *RatingChangeRepository
}

// NewRunRecorderAdapter creates a new RunRecorderAdapter with the given repositories
func NewRunRecorderAdapter(runs *RunRepository, changes *RatingChangeRepository) *RunRecorderAdapter {
	return &RunRecorderAdapter{runs: runs, changes: changes}
}

// StartRun persists a pending run and assigns its ID and run number.
func (a *RunRecorderAdapter) StartRun(run *models.SyncRun) error {
	if err := a.runs.Create(run); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// FinishRun stores the outcome of a run and the updates it produced.
func (a *RunRecorderAdapter) FinishRun(run *models.SyncRun, updates []models.Update) error {
	if err := a.runs.Update(run); err != nil {
		return fmt.Errorf("failed to record run outcome: %w", err)
	}

	changes := make([]models.RatingChange, 0, len(updates))
	for i, u := range updates {
		changes = append(changes, models.NewRatingChange(run.ID(), i, u))
	}

	if err := a.changes.AddChanges(changes); err != nil {
		return fmt.Errorf("failed to record rating changes: %w", err)
	}
	return nil
}
