package models

import (
	"fmt"

	"github.com/desertthunder/ratingsync/internal/shared"
)

const (
	MinRating = 0
	MaxRating = 5

	// NativeRatingMax is the top of the library's rating scale (five stars are stored as 100).
	NativeRatingMax = 100
)

// ConvertRating maps a native 0-100 library rating to the remote 0-5 scale as floor(native * 0.05).
//
// The mapping truncates: 18 and 19 both become 0, 20 becomes 1. Previously synced ratings were produced this way,
// so the truncation is kept as is. Out-of-domain input is not validated here; use [ValidateRating] on the result.
func ConvertRating(native int) int {
	// Integer division truncates toward zero; step down for negative remainders to get a floor.
	q := native / 20
	if native%20 < 0 {
		q--
	}
	return q
}

// ValidateRating reports ratings outside the 0-5 scale.
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("%w: got %d", shared.ErrRatingOutOfRange, rating)
	}
	return nil
}
