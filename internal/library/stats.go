package library

import (
	"slices"

	"github.com/desertthunder/ratingsync/internal/models"
)

// Stats summarizes an extracted library.
type Stats struct {
	Songs       int
	Batches     int
	Defects     int         // Records with at least one defect
	Ratings     [6]int      // Songs per rating 0-5
	OutOfRange  int         // Songs whose converted rating is outside 0-5
	Albums      int         // Distinct album names
	Artists     int         // Distinct artists, falling back to album artist
	SharedNames []NameCount // Names carried by more than one song, most frequent first
}

// NameCount is a song name and how many library songs carry it.
type NameCount struct {
	Name  string
	Count int
}

// Stats computes rating distribution, defects and name collisions.
//
// Shared names are the songs the matcher has to disambiguate by album, artist, year and genre.
func (l *Library) Stats() Stats {
	st := Stats{Songs: len(l.Songs), Batches: l.Batches}

	positions := make(map[int]struct{}, len(l.Defects))
	for _, d := range l.Defects {
		positions[d.Position] = struct{}{}
	}
	st.Defects = len(positions)

	albums := make(map[string]struct{})
	artists := make(map[string]struct{})
	names := make(map[string]int)

	for _, s := range l.Songs {
		if models.ValidateRating(s.Rating) != nil {
			st.OutOfRange++
		} else {
			st.Ratings[s.Rating]++
		}

		if s.Album != "" {
			albums[s.Album] = struct{}{}
		}
		artist := s.Artist
		if artist == "" {
			artist = s.AlbumArtist
		}
		if artist != "" {
			artists[artist] = struct{}{}
		}
		names[s.Name]++
	}
	st.Albums = len(albums)
	st.Artists = len(artists)

	for name, n := range names {
		if n > 1 {
			st.SharedNames = append(st.SharedNames, NameCount{Name: name, Count: n})
		}
	}
	slices.SortFunc(st.SharedNames, func(a, b NameCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})

	return st
}
