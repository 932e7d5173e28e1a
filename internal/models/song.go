package models

import (
	"cmp"
	"fmt"
	"slices"
)

// Origin tags which side of the sync a catalog came from.
type Origin string

const (
	Local  Origin = "local"
	Remote Origin = "remote"
)

// Song is a single track record. Every field is always set; absent source values keep the zero value.
type Song struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"` // Remote service identifier, empty for library records
	Name        string `json:"name" yaml:"name"`
	Album       string `json:"album" yaml:"album"`
	AlbumArtist string `json:"albumArtist" yaml:"album_artist"`
	Artist      string `json:"artist" yaml:"artist"`
	Composer    string `json:"composer" yaml:"composer"`
	Genre       string `json:"genre" yaml:"genre"`
	Track       int    `json:"track" yaml:"track"`
	TotalTracks int    `json:"totalTracks" yaml:"total_tracks"`
	Disc        int    `json:"disc" yaml:"disc"`
	TotalDiscs  int    `json:"totalDiscs" yaml:"total_discs"`
	Year        int    `json:"year" yaml:"year"`
	PlayCount   int    `json:"playCount" yaml:"play_count"`
	Rating      int    `json:"rating" yaml:"rating"` // 0-5
}

// NewSong returns a fresh record with every field at its zero value.
func NewSong() Song {
	return Song{}
}

// String renders the song as "Artist - Name (Album)".
func (s Song) String() string {
	artist := s.Artist
	if artist == "" {
		artist = s.AlbumArtist
	}
	if s.Album == "" {
		return fmt.Sprintf("%s - %s", artist, s.Name)
	}
	return fmt.Sprintf("%s - %s (%s)", artist, s.Name, s.Album)
}

// Catalog is an ordered collection of songs from one side of the sync.
type Catalog struct {
	Origin Origin
	Songs  []Song
}

// Len returns the number of songs in the catalog.
func (c Catalog) Len() int {
	return len(c.Songs)
}

// Update is a remote song whose Rating has been rewritten to its matched library rating.
type Update struct {
	Song           Song `json:"song" yaml:"song"`
	PreviousRating int  `json:"previousRating" yaml:"previous_rating"`
}

// Songs returns the rewritten remote songs of the given updates, in order.
func Songs(updates []Update) []Song {
	songs := make([]Song, len(updates))
	for i, u := range updates {
		songs[i] = u.Song
	}
	return songs
}

// SortByName stably sorts songs by name so equal names keep their relative order.
//
// The matcher breaks ties by position, so both catalogs go through this before matching.
func SortByName(songs []Song) {
	slices.SortStableFunc(songs, func(a, b Song) int {
		return cmp.Compare(a.Name, b.Name)
	})
}
