package shared

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestRatingStars(t *testing.T) {
	tc := []struct {
		name   string
		rating int
		want   string
	}{
		{name: "unrated", rating: 0, want: "☆☆☆☆☆"},
		{name: "three stars", rating: 3, want: "★★★☆☆"},
		{name: "five stars", rating: 5, want: "★★★★★"},
		{name: "negative", rating: -1, want: "?-1"},
		{name: "above scale", rating: 20, want: "?20"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := RatingStars(tt.rating); got != tt.want {
				t.Errorf("RatingStars(%d) = %v, want %v", tt.rating, got, tt.want)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	t.Run("writes to provided writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("hello", "key", "value")

		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("expected log output to contain message, got %q", buf.String())
		}
		if !strings.Contains(buf.String(), "key=value") {
			t.Errorf("expected log output to contain key/value, got %q", buf.String())
		}
	})

	t.Run("child logger carries fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "run", "abc")
		logger.Warn("careful")

		if !strings.Contains(buf.String(), "run=abc") {
			t.Errorf("expected child logger fields, got %q", buf.String())
		}
	})

	t.Run("SetLogLevel filters debug", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		SetLogLevel(logger, log.WarnLevel)
		logger.Info("hidden")

		if buf.Len() != 0 {
			t.Errorf("expected no output below warn level, got %q", buf.String())
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Errorf("expected unique IDs, got %s twice", a)
	}
	if len(a) != 36 {
		t.Errorf("expected 36 character UUID, got %d", len(a))
	}
}
