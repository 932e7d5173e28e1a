package ui

import (
	"strings"
	"testing"

	"github.com/desertthunder/ratingsync/internal/tasks"
)

func TestRenderTable(t *testing.T) {
	t.Run("renders headers and rows", func(t *testing.T) {
		out := RenderTable(
			[]string{"Run", "Status", "Updated"},
			[][]string{{"1", "completed", "12"}, {"2", "failed"}},
			[]Alignment{AlignRight, AlignLeft, AlignRight},
		)

		for _, want := range []string{"Run", "Status", "Updated", "completed", "failed", "12", "╭", "╯"} {
			if !strings.Contains(out, want) {
				t.Errorf("table missing %q:\n%s", want, out)
			}
		}
		if strings.Contains(out, "STATUS") {
			t.Errorf("expected headers to keep their case:\n%s", out)
		}
	})

	t.Run("no headers", func(t *testing.T) {
		if out := RenderTable(nil, [][]string{{"x"}}, nil); out != "" {
			t.Errorf("expected empty output, got %q", out)
		}
	})
}

func TestPalette(t *testing.T) {
	p := NewPalette("#000000", "#111111", "#222222", "#333333", "#444444")

	for name, render := range map[string]func(string) string{
		"Title":   p.Title,
		"Success": p.Success,
		"Error":   p.Error,
		"Warning": p.Warning,
		"Help":    p.Help,
	} {
		if out := render("hello"); !strings.Contains(out, "hello") {
			t.Errorf("%s dropped the text: %q", name, out)
		}
	}

	if out := p.As("fg", "#FFFFFF"); !strings.Contains(out, "fg") {
		t.Errorf("As dropped the text: %q", out)
	}
	if out := p.On("bg", "#FFFFFF"); !strings.Contains(out, "bg") {
		t.Errorf("On dropped the text: %q", out)
	}
}

func TestFormatProgress(t *testing.T) {
	t.Run("with total", func(t *testing.T) {
		out := FormatProgress(tasks.ProgressUpdate{Phase: tasks.ExtractLocal, Step: 1000, Total: 4000, Message: "[1000/4000] Parsed library songs"})
		if !strings.Contains(out, "extract_local") || !strings.Contains(out, "25%") {
			t.Errorf("unexpected progress line %q", out)
		}
	})

	t.Run("without total", func(t *testing.T) {
		out := FormatProgress(tasks.ProgressUpdate{Phase: tasks.FetchRemote, Step: 250, Message: "Fetched 250 songs"})
		if !strings.Contains(out, "fetch_remote") || strings.Contains(out, "%") {
			t.Errorf("unexpected progress line %q", out)
		}
	})

	t.Run("Drain", func(t *testing.T) {
		progress := make(chan tasks.ProgressUpdate, 2)
		done := make(chan struct{})
		var lines []string

		progress <- tasks.ProgressUpdate{Phase: tasks.Login, Message: "Logging in"}
		progress <- tasks.ProgressUpdate{Phase: tasks.MatchSongs, Message: "Matching"}
		close(progress)

		Drain(progress, func(s string) { lines = append(lines, s) }, done)
		<-done

		if len(lines) != 2 || !strings.Contains(lines[1], "Matching") {
			t.Errorf("unexpected lines %v", lines)
		}
	})
}
