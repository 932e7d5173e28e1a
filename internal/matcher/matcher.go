// Package matcher pairs remote songs with library songs and computes the ratings that must be overwritten.
//
// Each remote song is matched by exact name, then disambiguated by a fixed cascade of field filters that only
// runs while more than one candidate remains:
//
//  1. album
//  2. artist, album artist, or the two swapped
//  3. year
//  4. genre
//
// A filter that would leave no candidates is skipped. The first remaining candidate wins and is removed from the
// pool, so a library song is matched at most once. Ties are broken by position, which makes the result depend
// on input order: sort both catalogs with [models.SortByName] first.
package matcher

import (
	"slices"

	"github.com/desertthunder/ratingsync/internal/models"
)

// Predicate reports whether a library candidate agrees with the remote song on one field.
type Predicate func(remote, candidate models.Song) bool

// Cascade is the fixed disambiguation pipeline applied after the name lookup.
var Cascade = []Predicate{
	SameAlbum,
	SameArtist,
	SameYear,
	SameGenre,
}

// SameAlbum compares albums exactly.
func SameAlbum(r, c models.Song) bool { return c.Album == r.Album }

// SameArtist accepts the artist and album artist in either role.
func SameArtist(r, c models.Song) bool {
	return c.Artist == r.Artist ||
		c.AlbumArtist == r.AlbumArtist ||
		c.Artist == r.AlbumArtist ||
		c.AlbumArtist == r.Artist
}

// SameYear compares years exactly.
func SameYear(r, c models.Song) bool { return c.Year == r.Year }

// SameGenre compares genres exactly.
func SameGenre(r, c models.Song) bool { return c.Genre == r.Genre }

// Anomaly is a matched library rating outside the 0-5 scale.
type Anomaly struct {
	Remote models.Song
	Local  models.Song
	Err    error // Wraps shared.ErrRatingOutOfRange
}

// Result is the outcome of [Match].
type Result struct {
	Updates    []models.Update // Remote songs whose rating must change, in remote order
	Unmatched  []models.Song   // Remote songs without a library counterpart
	Anomalies  []Anomaly       // Matches whose library rating is out of range
	Considered int             // Remote songs left after the unrated filter
	Matched    int             // Remote songs paired with a library song
	LocalLeft  int             // Library songs never matched
}

// Match pairs every remote song with at most one library song and returns the rating updates.
//
// When onlyUnratedRemote is set, remote songs that already have a rating are dropped before matching.
// Neither input slice is modified.
func Match(remote, local []models.Song, onlyUnratedRemote bool) *Result {
	if onlyUnratedRemote {
		remote = Unrated(remote)
	}

	result := &Result{Considered: len(remote)}
	pool := newPool(local)

	for _, r := range remote {
		candidates := pool.named(r.Name)
		for _, pred := range Cascade {
			if len(candidates) <= 1 {
				break
			}
			candidates = narrow(candidates, func(i int) bool {
				return pred(r, pool.songs[i])
			})
		}

		if len(candidates) == 0 {
			result.Unmatched = append(result.Unmatched, r)
			continue
		}

		match := pool.take(candidates[0])
		result.Matched++

		if err := models.ValidateRating(match.Rating); err != nil {
			result.Anomalies = append(result.Anomalies, Anomaly{Remote: r, Local: match, Err: err})
		}

		if match.Rating != r.Rating {
			update := models.Update{Song: r, PreviousRating: r.Rating}
			update.Song.Rating = match.Rating
			result.Updates = append(result.Updates, update)
		}
	}

	result.LocalLeft = pool.remaining()
	return result
}

// Unrated returns the songs with a zero rating, in order.
func Unrated(songs []models.Song) []models.Song {
	unrated := make([]models.Song, 0, len(songs))
	for _, s := range songs {
		if s.Rating == 0 {
			unrated = append(unrated, s)
		}
	}
	return unrated
}

// narrow keeps the candidates accepted by keep, or all of them when keep accepts none.
func narrow[T any](candidates []T, keep func(T) bool) []T {
	filtered := make([]T, 0, len(candidates))
	for _, c := range candidates {
		if keep(c) {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		return candidates
	}
	return filtered
}

// pool is the working copy of the library songs still available for matching.
//
// Songs are bucketed by name; each bucket holds positions in input order and shrinks as songs are taken,
// which gives the same candidates, in the same order, as scanning the remaining list.
type pool struct {
	songs  []models.Song
	byName map[string][]int
}

func newPool(local []models.Song) *pool {
	p := &pool{
		songs:  slices.Clone(local),
		byName: make(map[string][]int),
	}
	for i, s := range p.songs {
		p.byName[s.Name] = append(p.byName[s.Name], i)
	}
	return p
}

// named returns the positions of the remaining songs with exactly this name.
func (p *pool) named(name string) []int {
	return slices.Clone(p.byName[name])
}

// take removes the song at position i from the pool and returns it.
func (p *pool) take(i int) models.Song {
	song := p.songs[i]
	bucket := p.byName[song.Name]
	if at := slices.Index(bucket, i); at >= 0 {
		p.byName[song.Name] = slices.Delete(bucket, at, at+1)
	}
	return song
}

// remaining returns the number of songs not yet taken.
func (p *pool) remaining() int {
	n := 0
	for _, bucket := range p.byName {
		n += len(bucket)
	}
	return n
}
