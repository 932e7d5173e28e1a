// package formatter provides functions to export rating update reports to various formats (CSV, Markdown, plain text, JSON, YAML)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ratingsync/internal/models"
	"github.com/desertthunder/ratingsync/internal/shared"
	"gopkg.in/yaml.v3"
)

// Format is a report output format.
type Format string

const (
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "txt"
	JSON     Format = "json"
	YAML     Format = "yaml"
)

// Formats lists the supported formats in help text order.
var Formats = []Format{CSV, Markdown, Text, JSON, YAML}

// ParseFormat accepts a format name or common alias (md, text, yml).
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "txt", "text":
		return Text, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, name)
	}
}

// FormatFromPath infers the format from a file extension, falling back to def.
func FormatFromPath(path string, def Format) Format {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return def
	}
	if f, err := ParseFormat(ext); err == nil {
		return f
	}
	return def
}

// Extension returns the file extension for the format, without the dot.
func (f Format) Extension() string {
	if f == Markdown {
		return "md"
	}
	return string(f)
}

// Report is the exportable outcome of a sync run.
type Report struct {
	Service     string
	LibraryPath string
	GeneratedAt time.Time
	DryRun      bool
	Counts      models.RunCounts
	Updates     []models.Update
	Unmatched   []models.Song // Only exported when non-empty
}

type changeDoc struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	Album          string `json:"album" yaml:"album"`
	Artist         string `json:"artist" yaml:"artist"`
	PreviousRating int    `json:"previous_rating" yaml:"previous_rating"`
	NewRating      int    `json:"new_rating" yaml:"new_rating"`
}

type unmatchedDoc struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Album  string `json:"album" yaml:"album"`
	Artist string `json:"artist" yaml:"artist"`
}

type countsDoc struct {
	RemoteTotal int `json:"remote_total" yaml:"remote_total"`
	LocalTotal  int `json:"local_total" yaml:"local_total"`
	Considered  int `json:"considered" yaml:"considered"`
	Matched     int `json:"matched" yaml:"matched"`
	Updated     int `json:"updated" yaml:"updated"`
	Unmatched   int `json:"unmatched" yaml:"unmatched"`
	Defects     int `json:"defects" yaml:"defects"`
}

type reportDoc struct {
	Service     string         `json:"service" yaml:"service"`
	Library     string         `json:"library" yaml:"library"`
	GeneratedAt time.Time      `json:"generated_at" yaml:"generated_at"`
	DryRun      bool           `json:"dry_run" yaml:"dry_run"`
	Counts      countsDoc      `json:"counts" yaml:"counts"`
	Changes     []changeDoc    `json:"changes" yaml:"changes"`
	Unmatched   []unmatchedDoc `json:"unmatched,omitempty" yaml:"unmatched,omitempty"`
}

func (r *Report) document() reportDoc {
	c := r.Counts
	doc := reportDoc{
		Service:     r.Service,
		Library:     r.LibraryPath,
		GeneratedAt: r.GeneratedAt,
		DryRun:      r.DryRun,
		Counts: countsDoc{
			RemoteTotal: c.RemoteTotal,
			LocalTotal:  c.LocalTotal,
			Considered:  c.Considered,
			Matched:     c.Matched,
			Updated:     c.Updated,
			Unmatched:   c.Unmatched,
			Defects:     c.Defects,
		},
		Changes: make([]changeDoc, 0, len(r.Updates)),
	}

	for _, u := range r.Updates {
		doc.Changes = append(doc.Changes, changeDoc{
			ID:             u.Song.ID,
			Name:           u.Song.Name,
			Album:          u.Song.Album,
			Artist:         u.Song.Artist,
			PreviousRating: u.PreviousRating,
			NewRating:      u.Song.Rating,
		})
	}
	for _, s := range r.Unmatched {
		doc.Unmatched = append(doc.Unmatched, unmatchedDoc{ID: s.ID, Name: s.Name, Album: s.Album, Artist: s.Artist})
	}
	return doc
}

// ExportToCSV converts the report's updates to CSV with columns: ID, Name, Album, Artist, Previous Rating, New Rating
func ExportToCSV(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Album", "Artist", "Previous Rating", "New Rating"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, u := range report.Updates {
		record := []string{
			u.Song.ID,
			u.Song.Name,
			u.Song.Album,
			u.Song.Artist,
			strconv.Itoa(u.PreviousRating),
			strconv.Itoa(u.Song.Rating),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts the report to Markdown with a summary and a changes table
func ExportToMarkdown(report *Report) ([]byte, error) {
	var buf bytes.Buffer

	title := "Rating Changes"
	if report.DryRun {
		title += " (dry run)"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))

	if report.Service != "" {
		buf.WriteString(fmt.Sprintf("**Service**: %s\n", report.Service))
	}
	if report.LibraryPath != "" {
		buf.WriteString(fmt.Sprintf("**Library**: %s\n", report.LibraryPath))
	}
	if !report.GeneratedAt.IsZero() {
		buf.WriteString(fmt.Sprintf("**Generated**: %s\n", report.GeneratedAt.Format(time.RFC3339)))
	}
	buf.WriteString("\n")

	c := report.Counts
	buf.WriteString("## Summary\n\n")
	buf.WriteString(fmt.Sprintf("- Service songs: %d\n", c.RemoteTotal))
	buf.WriteString(fmt.Sprintf("- Library songs: %d\n", c.LocalTotal))
	buf.WriteString(fmt.Sprintf("- Considered: %d\n", c.Considered))
	buf.WriteString(fmt.Sprintf("- Matched: %d\n", c.Matched))
	buf.WriteString(fmt.Sprintf("- Ready for sync: %d\n", c.Updated))
	buf.WriteString(fmt.Sprintf("- Unmatched: %d\n\n", c.Unmatched))

	buf.WriteString("## Changes\n\n")
	if len(report.Updates) == 0 {
		buf.WriteString("No ratings to change.\n")
	} else {
		buf.WriteString("| # | Name | Album | Artist | Rating |\n")
		buf.WriteString("|---|------|-------|--------|--------|\n")
		for i, u := range report.Updates {
			buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s → %s |\n",
				i+1, escapeCell(u.Song.Name), escapeCell(u.Song.Album), escapeCell(u.Song.Artist),
				shared.RatingStars(u.PreviousRating), shared.RatingStars(u.Song.Rating)))
		}
	}

	if len(report.Unmatched) > 0 {
		buf.WriteString("\n## Unmatched\n\n")
		for i, s := range report.Unmatched {
			buf.WriteString(fmt.Sprintf("%d. %s - %s%s\n", i+1, s.Artist, s.Name, albumSuffix(s.Album)))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts the report to plain text format
func ExportToText(report *Report) ([]byte, error) {
	var buf bytes.Buffer

	if report.Service != "" {
		buf.WriteString(fmt.Sprintf("Service: %s\n", report.Service))
	}
	if report.LibraryPath != "" {
		buf.WriteString(fmt.Sprintf("Library: %s\n", report.LibraryPath))
	}
	if report.DryRun {
		buf.WriteString("Dry run: ratings were not written\n")
	}
	buf.WriteString(fmt.Sprintf("Changes: %d\n\n", len(report.Updates)))

	for i, u := range report.Updates {
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s: %d -> %d\n",
			i+1, u.Song.Artist, u.Song.Name, albumSuffix(u.Song.Album), u.PreviousRating, u.Song.Rating))
	}

	if len(report.Unmatched) > 0 {
		buf.WriteString(fmt.Sprintf("\nUnmatched: %d\n\n", len(report.Unmatched)))
		for i, s := range report.Unmatched {
			buf.WriteString(fmt.Sprintf("%d. %s - %s%s\n", i+1, s.Artist, s.Name, albumSuffix(s.Album)))
		}
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts the report to indented JSON
func ExportToJSON(report *Report) ([]byte, error) {
	data, err := json.MarshalIndent(report.document(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToYAML converts the report to YAML
func ExportToYAML(report *Report) ([]byte, error) {
	data, err := yaml.Marshal(report.document())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return data, nil
}

// Export renders the report in the given format.
func Export(report *Report, format Format) ([]byte, error) {
	switch format {
	case CSV:
		return ExportToCSV(report)
	case Markdown:
		return ExportToMarkdown(report)
	case Text:
		return ExportToText(report)
	case JSON:
		return ExportToJSON(report)
	case YAML:
		return ExportToYAML(report)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteExport writes the report to path in the given format.
//
// Defaults to ratings_{epoch}.{ext} in the working directory as the filename.
func WriteExport(report *Report, format Format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("ratings_%d.%s", time.Now().Unix(), format.Extension())
	}

	data, err := Export(report, format)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}

	return path, nil
}

func albumSuffix(album string) string {
	if album == "" {
		return ""
	}
	return fmt.Sprintf(" (%s)", album)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
