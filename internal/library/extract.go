package library

import (
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/desertthunder/ratingsync/internal/models"
	"github.com/desertthunder/ratingsync/internal/shared"
)

// BatchSize is the number of track nodes turned into records before a batch is yielded.
const BatchSize = 1000

// Batch is one chunk of extracted records, in input order.
type Batch struct {
	Index   int           // Zero-based batch number
	Offset  int           // Input position of the first record
	Songs   []models.Song // Completed records
	Defects []Defect      // Problems found while building Songs
}

// Defect describes a value that could not be applied to a record.
type Defect struct {
	Position int    // Input position of the track
	Name     string // Track name, if it was parsed
	Key      string // Library key that failed
	Value    string // Raw value
	Err      error  // Wraps shared.ErrRecordParse or shared.ErrRatingOutOfRange
}

func (d Defect) Error() string {
	return fmt.Sprintf("track %d (%q) %s=%q: %v", d.Position, d.Name, d.Key, d.Value, d.Err)
}

func (d Defect) Unwrap() error {
	return d.Err
}

type fieldSetter func(s *models.Song, value string) error

func setString(field func(*models.Song) *string) fieldSetter {
	return func(s *models.Song, value string) error {
		*field(s) = value
		return nil
	}
}

func setInt(field func(*models.Song) *int) fieldSetter {
	return func(s *models.Song, value string) error {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrRecordParse, err)
		}
		*field(s) = n
		return nil
	}
}

func setRating(s *models.Song, value string) error {
	native, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRecordParse, err)
	}
	s.Rating = models.ConvertRating(native)
	return models.ValidateRating(s.Rating)
}

// fieldSetters maps library keys to the record field they fill. Keys not listed are ignored.
var fieldSetters = map[string]fieldSetter{
	"Album":        setString(func(s *models.Song) *string { return &s.Album }),
	"Artist":       setString(func(s *models.Song) *string { return &s.Artist }),
	"Album Artist": setString(func(s *models.Song) *string { return &s.AlbumArtist }),
	"Name":         setString(func(s *models.Song) *string { return &s.Name }),
	"Composer":     setString(func(s *models.Song) *string { return &s.Composer }),
	"Genre":        setString(func(s *models.Song) *string { return &s.Genre }),
	"Track":        setInt(func(s *models.Song) *int { return &s.Track }),
	"Track Count":  setInt(func(s *models.Song) *int { return &s.TotalTracks }),
	"Year":         setInt(func(s *models.Song) *int { return &s.Year }),
	"Disc Number":  setInt(func(s *models.Song) *int { return &s.Disc }),
	"Disc Count":   setInt(func(s *models.Song) *int { return &s.TotalDiscs }),
	"Play Count":   setInt(func(s *models.Song) *int { return &s.PlayCount }),
	"Rating":       setRating,
}

// Extract converts track nodes into records, yielding one [Batch] per [BatchSize] nodes.
//
// The sequence is finite and can be replayed by ranging over it again.
func Extract(nodes []TrackNode) iter.Seq[Batch] {
	return extract(nodes, BatchSize)
}

func extract(nodes []TrackNode, size int) iter.Seq[Batch] {
	return func(yield func(Batch) bool) {
		for index, start := 0, 0; start < len(nodes); index, start = index+1, start+size {
			end := min(start+size, len(nodes))

			batch := Batch{
				Index:  index,
				Offset: start,
				Songs:  make([]models.Song, 0, end-start),
			}
			for i := start; i < end; i++ {
				song, defects := ParseTrack(i, nodes[i])
				batch.Songs = append(batch.Songs, song)
				batch.Defects = append(batch.Defects, defects...)
			}

			if !yield(batch) {
				return
			}
		}
	}
}

// ParseTrack builds a record from one track node. position is only used to label defects.
func ParseTrack(position int, node TrackNode) (models.Song, []Defect) {
	song := models.NewSong()
	var defects []Defect

	markers := node.Markers
	for i := 0; i < len(markers); i++ {
		if markers[i].Kind != KindKey {
			continue
		}

		key := markers[i].Text
		set, ok := fieldSetters[key]
		if !ok {
			continue
		}

		if i+1 >= len(markers) || markers[i+1].Kind == KindKey {
			defects = append(defects, Defect{
				Position: position,
				Key:      key,
				Err:      fmt.Errorf("%w: missing value", shared.ErrRecordParse),
			})
			continue
		}

		i++
		value := markers[i].Text
		if err := set(&song, value); err != nil {
			defects = append(defects, Defect{Position: position, Key: key, Value: value, Err: err})
		}
	}

	for i := range defects {
		defects[i].Name = song.Name
	}
	return song, defects
}
