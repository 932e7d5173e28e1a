// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/desertthunder/ratingsync/internal/models"
)

// MockService is a test double for [services.Service]
//
// Songs is returned by FetchSongs; every ChangeRatings call is recorded in Changed.
type MockService struct {
	Songs     []models.Song
	LoginErr  error
	FetchErr  error
	ChangeErr error

	LoggedIn bool
	Email    string
	Changed  [][]models.Song
}

func (m *MockService) Login(ctx context.Context, email, password string) error {
	if m.LoginErr != nil {
		return m.LoginErr
	}
	m.Email = email
	m.LoggedIn = true
	return nil
}

func (m *MockService) FetchSongs(ctx context.Context, progress func(fetched int)) ([]models.Song, error) {
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	if progress != nil {
		progress(len(m.Songs))
	}
	return slices.Clone(m.Songs), nil
}

func (m *MockService) ChangeRatings(ctx context.Context, songs []models.Song) error {
	if m.ChangeErr != nil {
		return m.ChangeErr
	}
	m.Changed = append(m.Changed, slices.Clone(songs))
	return nil
}

func (m *MockService) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// LibraryXML renders songs as an iTunes library property list.
//
// Ratings are written on the native 0-100 scale (rating × 20); zero-valued fields are left out.
func LibraryXML(songs []models.Song) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<!DOCTYPE plist PUBLIC "-//Apple Computer//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">` + "\n")
	b.WriteString("<plist version=\"1.0\">\n<dict>\n\t<key>Major Version</key><integer>1</integer>\n")
	b.WriteString("\t<key>Tracks</key>\n\t<dict>\n")

	for i, s := range songs {
		id := 1000 + i
		fmt.Fprintf(&b, "\t\t<key>%d</key>\n\t\t<dict>\n", id)
		fmt.Fprintf(&b, "\t\t\t<key>Track ID</key><integer>%d</integer>\n", id)

		str := func(key, value string) {
			if value != "" {
				fmt.Fprintf(&b, "\t\t\t<key>%s</key><string>%s</string>\n", key, html.EscapeString(value))
			}
		}
		num := func(key string, value int) {
			if value != 0 {
				fmt.Fprintf(&b, "\t\t\t<key>%s</key><integer>%d</integer>\n", key, value)
			}
		}

		str("Name", s.Name)
		str("Artist", s.Artist)
		str("Album Artist", s.AlbumArtist)
		str("Composer", s.Composer)
		str("Album", s.Album)
		str("Genre", s.Genre)
		num("Disc Number", s.Disc)
		num("Disc Count", s.TotalDiscs)
		num("Track", s.Track)
		num("Track Count", s.TotalTracks)
		num("Year", s.Year)
		num("Play Count", s.PlayCount)
		num("Rating", s.Rating*20)
		b.WriteString("\t\t</dict>\n")
	}

	b.WriteString("\t</dict>\n</dict>\n</plist>\n")
	return b.String()
}

// WriteLibrary writes [LibraryXML] to dir and returns the file path.
func WriteLibrary(t *testing.T, dir string, songs []models.Song) string {
	t.Helper()
	path := filepath.Join(dir, "Library.xml")
	if err := os.WriteFile(path, []byte(LibraryXML(songs)), 0644); err != nil {
		t.Fatalf("Failed to write library %s: %v", path, err)
	}
	return path
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
