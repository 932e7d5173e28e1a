// package shared defines shared helpers
package shared

import (
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

// RatingStars renders a 0-5 rating as filled and empty stars.
//
// Values outside the scale are rendered as the bare number so anomalies stay visible.
func RatingStars(rating int) string {
	if rating < 0 || rating > 5 {
		return "?" + strconv.Itoa(rating)
	}
	stars := make([]rune, 0, 5)
	for i := range 5 {
		if i < rating {
			stars = append(stars, '★')
		} else {
			stars = append(stars, '☆')
		}
	}
	return string(stars)
}
