package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/ratingsync/internal/library"
	"github.com/desertthunder/ratingsync/internal/shared"
	"github.com/desertthunder/ratingsync/internal/ui"
	"github.com/urfave/cli/v3"
)

// loadLibrary extracts the library named by --library or the config.
func (r *Runner) loadLibrary(cmd *cli.Command) (*library.Library, error) {
	path := cmd.String("library")
	if path == "" {
		path = r.config.Library.Path
	}
	if path == "" {
		return nil, fmt.Errorf("%w: --library", shared.ErrMissingArgument)
	}

	r.logger.Debug("loading library", "path", path)
	lib, err := library.Load(path, func(parsed, total int) {
		r.logger.Debug("parsed library songs", "parsed", parsed, "total", total)
	})
	if err != nil {
		return nil, err
	}

	for _, d := range lib.Defects {
		r.logger.Warn("library record defect", "position", d.Position, "name", d.Name, "key", d.Key, "value", d.Value, "error", d.Err)
	}
	return lib, nil
}

// LibraryParse extracts the library and lists its songs in matching order.
func (r *Runner) LibraryParse(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.loadLibrary(cmd)
	if err != nil {
		return err
	}

	songs := lib.Songs
	if limit := int(cmd.Int("limit")); limit > 0 && limit < len(songs) {
		songs = songs[:limit]
	}

	if cmd.Bool("json") {
		return r.writeJSON(songs, cmd.Bool("pretty"))
	}

	rows := make([][]string, len(songs))
	for i, s := range songs {
		year := ""
		if s.Year > 0 {
			year = strconv.Itoa(s.Year)
		}
		rows[i] = []string{s.Name, s.Artist, s.Album, year, strconv.Itoa(s.PlayCount), shared.RatingStars(s.Rating)}
	}

	r.writePlain("%s\n", ui.RenderTable(
		[]string{"Name", "Artist", "Album", "Year", "Plays", "Rating"},
		rows,
		[]ui.Alignment{ui.AlignLeft, ui.AlignLeft, ui.AlignLeft, ui.AlignRight, ui.AlignRight, ui.AlignLeft},
	))
	r.writePlain("%s\n", ui.Styles.Help(fmt.Sprintf("Showing %d of %d songs (%d defects)", len(songs), len(lib.Songs), len(lib.Defects))))
	return nil
}

// LibraryStats prints the rating distribution and the names the matcher has to disambiguate.
func (r *Runner) LibraryStats(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.loadLibrary(cmd)
	if err != nil {
		return err
	}

	st := lib.Stats()
	r.writePlainHeader(lib.Path)

	overview := [][]string{
		{"Songs", strconv.Itoa(st.Songs)},
		{"Batches", strconv.Itoa(st.Batches)},
		{"Albums", strconv.Itoa(st.Albums)},
		{"Artists", strconv.Itoa(st.Artists)},
		{"Records with defects", strconv.Itoa(st.Defects)},
	}
	r.writePlain("%s\n", ui.RenderTable([]string{"", "Count"}, overview, []ui.Alignment{ui.AlignLeft, ui.AlignRight}))

	ratings := make([][]string, 0, len(st.Ratings)+1)
	for rating, n := range st.Ratings {
		ratings = append(ratings, []string{shared.RatingStars(rating), strconv.Itoa(n)})
	}
	ratings = append(ratings, []string{"out of range", strconv.Itoa(st.OutOfRange)})
	r.writePlain("%s\n", ui.RenderTable([]string{"Rating", "Songs"}, ratings, []ui.Alignment{ui.AlignLeft, ui.AlignRight}))

	if len(st.SharedNames) == 0 {
		r.writePlain("%s\n", ui.Styles.Success("✓ Every song name is unique"))
		return nil
	}

	shown := st.SharedNames[:min(len(st.SharedNames), 10)]
	names := make([][]string, len(shown))
	for i, nc := range shown {
		names[i] = []string{nc.Name, strconv.Itoa(nc.Count)}
	}
	r.writePlainln("%s", ui.Styles.Title(fmt.Sprintf("Shared names (%d)", len(st.SharedNames))))
	r.writePlain("%s\n", ui.RenderTable([]string{"Name", "Songs"}, names, []ui.Alignment{ui.AlignLeft, ui.AlignRight}))
	return nil
}
