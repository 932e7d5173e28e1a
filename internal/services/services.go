// package services defines interface Service for the remote music catalog
package services

import (
	"context"

	"github.com/desertthunder/ratingsync/internal/models"
)

// PageFunc is called after every fetched page with the number of songs retrieved so far.
type PageFunc = func(fetched int)

// Service is the remote music catalog whose ratings get overwritten.
type Service interface {
	// Login authenticates with the operator's email and password.
	// A rejected login wraps shared.ErrAuthFailed.
	Login(ctx context.Context, email, password string) error

	// FetchSongs retrieves every song in the user's library.
	FetchSongs(ctx context.Context, progress PageFunc) ([]models.Song, error)

	// ChangeRatings writes the Rating of each song back to the service.
	ChangeRatings(ctx context.Context, songs []models.Song) error

	// Name returns the name of the service
	Name() string
}
