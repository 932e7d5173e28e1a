package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/ratingsync/internal/models"
	"github.com/desertthunder/ratingsync/internal/shared"
)

// RatingChangeRepository stores the rating changes produced by a run.
type RatingChangeRepository struct {
	db *sql.DB
}

// NewRatingChangeRepository creates a new RatingChangeRepository with the given database connection
func NewRatingChangeRepository(db *sql.DB) *RatingChangeRepository {
	return &RatingChangeRepository{db: db}
}

// AddChanges inserts changes for a run in a single transaction and assigns their IDs.
func (r *RatingChangeRepository) AddChanges(changes []models.RatingChange) error {
	if len(changes) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO rating_changes (id, run_id, position, song_id, name, album, artist, previous_rating, new_rating, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range changes {
		c := &changes[i]
		if c.RunID == "" {
			return fmt.Errorf("%w: rating change %q has no run", shared.ErrInvalidInput, c.Name)
		}

		c.ID = shared.GenerateID()
		if c.CreatedAt.IsZero() {
			c.CreatedAt = time.Now()
		}

		_, err := stmt.Exec(c.ID, c.RunID, c.Position, c.SongID, c.Name, c.Album, c.Artist, c.PreviousRating, c.NewRating, c.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert rating change: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rating changes: %w", err)
	}

	return nil
}

// ListChanges returns the changes of a run in the order they were produced.
func (r *RatingChangeRepository) ListChanges(runID string) ([]models.RatingChange, error) {
	query := `
		SELECT id, run_id, position, song_id, name, album, artist, previous_rating, new_rating, created_at
		FROM rating_changes
		WHERE run_id = ?
		ORDER BY position ASC
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rating changes: %w", err)
	}
	defer rows.Close()

	var changes []models.RatingChange
	for rows.Next() {
		var c models.RatingChange
		err := rows.Scan(&c.ID, &c.RunID, &c.Position, &c.SongID, &c.Name, &c.Album, &c.Artist, &c.PreviousRating, &c.NewRating, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating change: %w", err)
		}
		changes = append(changes, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return changes, nil
}
