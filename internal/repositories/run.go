package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ratingsync/internal/models"
	"github.com/desertthunder/ratingsync/internal/shared"
)

const runColumns = `
	id, sequence, service, library_path, only_unrated, dry_run, status,
	remote_total, local_total, considered, matched, updated, unmatched, defects,
	error_message, started_at, completed_at, created_at, updated_at
`

// RunRepository implements models.Repository[*models.SyncRun] for sync run history.
//
// Runs are numbered with a per-table sequence and listed newest first.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run into the database with generated ID and run number.
//
// The run number is taken in the same transaction as the insert, so a failed insert does not consume one.
func (r *RunRepository) Create(run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := nextRunNumber(tx)
	if err != nil {
		return err
	}

	id := shared.GenerateID()
	query := `INSERT INTO sync_runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	c := run.Counts()
	_, err = tx.Exec(query,
		id,
		sequence,
		run.Service(),
		run.LibraryPath(),
		run.OnlyUnrated(),
		run.DryRun(),
		string(run.Status()),
		c.RemoteTotal,
		c.LocalTotal,
		c.Considered,
		c.Matched,
		c.Updated,
		c.Unmatched,
		c.Defects,
		nullString(run.ErrorMessage()),
		run.StartedAt(),
		run.CompletedAt(),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	run.SetID(id)
	run.SetSequence(sequence)
	return nil
}

// nextRunNumber increments the sync_runs_sequence counter inside tx and returns the new value.
func nextRunNumber(tx *sql.Tx) (int, error) {
	var sequence int
	err := tx.QueryRow(`UPDATE sync_runs_sequence SET value = value + 1 WHERE id = 1 RETURNING value`).Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to generate run number: %w", err)
	}
	return sequence, nil
}

// Get retrieves a run by ID
func (r *RunRepository) Get(id string) (*models.SyncRun, error) {
	query := `SELECT ` + runColumns + ` FROM sync_runs WHERE id = ?`

	run, err := scanRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}
	return run, err
}

// GetBySequence retrieves a run by its run number
func (r *RunRepository) GetBySequence(sequence int) (*models.SyncRun, error) {
	query := `SELECT ` + runColumns + ` FROM sync_runs WHERE sequence = ?`

	run, err := scanRun(r.db.QueryRow(query, sequence))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: #%d", shared.ErrRunNotFound, sequence)
	}
	return run, err
}

// Update writes the status, counts and timestamps of an existing run
func (r *RunRepository) Update(run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE sync_runs
		SET status = ?, remote_total = ?, local_total = ?, considered = ?, matched = ?,
			updated = ?, unmatched = ?, defects = ?, error_message = ?, completed_at = ?, updated_at = ?
		WHERE id = ?
	`

	c := run.Counts()
	result, err := r.db.Exec(query,
		string(run.Status()),
		c.RemoteTotal,
		c.LocalTotal,
		c.Considered,
		c.Matched,
		c.Updated,
		c.Unmatched,
		c.Defects,
		nullString(run.ErrorMessage()),
		run.CompletedAt(),
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	return expectAffected(result, run.ID())
}

// Delete removes a run and, through the foreign key cascade, its rating changes
func (r *RunRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sync_runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	return expectAffected(result, id)
}

// List retrieves runs matching the given criteria, newest first.
//
// Supported criteria: "status" (string), "service" (string), "dry_run" (bool), "limit" (int).
func (r *RunRepository) List(criteria map[string]any) ([]*models.SyncRun, error) {
	query := `SELECT ` + runColumns + ` FROM sync_runs WHERE 1 = 1`
	args := []any{}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	if service, ok := criteria["service"].(string); ok && service != "" {
		query += " AND service = ?"
		args = append(args, service)
	}

	if dryRun, ok := criteria["dry_run"].(bool); ok {
		query += " AND dry_run = ?"
		args = append(args, dryRun)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.SyncRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// scanner is satisfied by both [sql.Row] and [sql.Rows]
type scanner interface {
	Scan(dest ...any) error
}

// scanRun scans a single row into a [models.SyncRun]; [sql.ErrNoRows] is returned unwrapped.
func scanRun(row scanner) (*models.SyncRun, error) {
	var (
		id           string
		sequence     int
		service      string
		libraryPath  string
		onlyUnrated  bool
		dryRun       bool
		status       string
		counts       models.RunCounts
		errorMessage sql.NullString
		startedAt    time.Time
		completedAt  sql.NullTime
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := row.Scan(
		&id, &sequence, &service, &libraryPath, &onlyUnrated, &dryRun, &status,
		&counts.RemoteTotal, &counts.LocalTotal, &counts.Considered, &counts.Matched,
		&counts.Updated, &counts.Unmatched, &counts.Defects,
		&errorMessage, &startedAt, &completedAt, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run := models.NewSyncRun(service, libraryPath, onlyUnrated, dryRun)
	run.SetID(id)
	run.SetSequence(sequence)
	run.SetStatus(models.RunStatus(status))
	run.SetCounts(counts)
	run.SetStartedAt(startedAt)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)

	if errorMessage.Valid {
		run.SetErrorMessage(errorMessage.String)
	}
	if completedAt.Valid {
		run.SetCompletedAt(&completedAt.Time)
	}

	return run, nil
}

func expectAffected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
