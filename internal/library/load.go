package library

import (
	"fmt"
	"io"
	"os"

	"github.com/desertthunder/ratingsync/internal/models"
	"github.com/desertthunder/ratingsync/internal/shared"
)

// Library is the result of loading a library file.
type Library struct {
	Path    string
	Tracks  int           // Track nodes found in the document
	Batches int           // Batches extracted
	Songs   []models.Song // Records stably sorted by name
	Defects []Defect
}

// Catalog returns the songs as a local catalog.
func (l *Library) Catalog() models.Catalog {
	return models.Catalog{Origin: models.Local, Songs: l.Songs}
}

// ProgressFunc is called after every extracted batch with the number of records parsed so far.
type ProgressFunc func(parsed, total int)

// Open opens the library file; a missing or unreadable file wraps [shared.ErrSourceNotFound].
func Open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSourceNotFound, err)
	}
	return f, nil
}

// Load reads the library at path, extracts its tracks batch by batch and sorts them by name.
//
// A missing or unreadable file wraps [shared.ErrSourceNotFound]; malformed XML wraps [shared.ErrSourceParse].
func Load(path string, progress ProgressFunc) (*Library, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f, path, progress)
}

// Parse extracts the library document read from r. path is only recorded on the result.
func Parse(r io.Reader, path string, progress ProgressFunc) (*Library, error) {
	nodes, err := ReadTracks(r)
	if err != nil {
		return nil, err
	}

	lib := &Library{
		Path:   path,
		Tracks: len(nodes),
		Songs:  make([]models.Song, 0, len(nodes)),
	}

	for batch := range Extract(nodes) {
		lib.Batches++
		lib.Songs = append(lib.Songs, batch.Songs...)
		lib.Defects = append(lib.Defects, batch.Defects...)
		if progress != nil {
			progress(len(lib.Songs), len(nodes))
		}
	}

	models.SortByName(lib.Songs)
	return lib, nil
}
