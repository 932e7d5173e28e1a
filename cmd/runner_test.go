package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/ratingsync/internal/models"
	"github.com/desertthunder/ratingsync/internal/shared"
	tu "github.com/desertthunder/ratingsync/internal/testing"
)

var (
	librarySongs = []models.Song{
		{Name: "Lucky", Album: "OK Computer", Artist: "Radiohead", Year: 1997, Rating: 5},
		{Name: "Airbag", Album: "OK Computer", Artist: "Radiohead", Year: 1997, Rating: 4},
		{Name: "Creep", Album: "Pablo Honey", Artist: "Radiohead", Year: 1993, Rating: 2},
		{Name: "Creep", Album: "Creep EP", Artist: "Radiohead", Year: 1992, Rating: 1},
	}

	serviceSongs = []models.Song{
		{ID: "r4", Name: "Unknown", Album: "Nowhere", Artist: "Nobody"},
		{ID: "r2", Name: "Lucky", Album: "OK Computer", Artist: "Radiohead", Rating: 5},
		{ID: "r3", Name: "Creep", Album: "Creep EP", Artist: "Radiohead"},
		{ID: "r1", Name: "Airbag", Album: "OK Computer", Artist: "Radiohead", Rating: 3},
	}
)

// newTestRunner builds a runner over a temp dir holding the library and history database.
func newTestRunner(t *testing.T, svc *tu.MockService) (*Runner, *bytes.Buffer, string) {
	t.Helper()
	t.Setenv(shared.EnvEmail, "")
	t.Setenv(shared.EnvPassword, "")
	t.Setenv(shared.EnvLibrary, "")

	dir := t.TempDir()
	config := shared.DefaultConfig()
	config.Credentials.Email = "user@example.com"
	config.Credentials.Password = "hunter2"
	config.Library.Path = tu.WriteLibrary(t, dir, librarySongs)
	config.Database.Path = filepath.Join(dir, "ratingsync.db")

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:  config,
		Service: svc,
		Logger:  shared.NewLogger(io.Discard),
		Output:  output,
	})
	return runner, output, dir
}

func runApp(r *Runner, dir string, args ...string) error {
	base := []string{
		"ratingsync",
		"--config", filepath.Join(dir, "config.toml"),
		"--env", filepath.Join(dir, ".env"),
	}
	return newApp(r).Run(context.Background(), append(base, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			svc := &tu.MockService{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Service:    svc,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.service != svc {
				t.Error("expected service to be set")
			}
			if runner.engine == nil {
				t.Error("expected engine to be built for the service")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("without service defers engine to Before", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.service != nil || runner.engine != nil {
				t.Error("expected service and engine to be unset")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)

			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("writePlainln surrounds with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlainln("title"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "\ntitle\n" {
				t.Errorf("expected %q, got %q", "\ntitle\n", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")

			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		commands := NewRunner(RunnerOpts{}).register()

		names := make([]string, 0, len(commands))
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names = append(names, cmd.Name)
		}

		if got := strings.Join(names, ","); got != "sync,library,history,setup" {
			t.Errorf("unexpected commands %s", got)
		}
	})

	t.Run("Before", func(t *testing.T) {
		t.Run("loads config file and env overrides", func(t *testing.T) {
			t.Setenv(shared.EnvEmail, "")
			t.Setenv(shared.EnvPassword, "")
			t.Setenv(shared.EnvLibrary, "")
			os.Unsetenv(shared.EnvPassword)

			dir := t.TempDir()
			configPath := filepath.Join(dir, "config.toml")
			envPath := filepath.Join(dir, ".env")
			dbPath := filepath.Join(dir, "history.db")
			conf := fmt.Sprintf("[credentials]\nemail = \"file@example.com\"\n\n[database]\npath = %q\n", dbPath)
			if err := os.WriteFile(configPath, []byte(conf), 0600); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}
			if err := os.WriteFile(envPath, []byte("RATINGSYNC_PASSWORD=from-env\n"), 0600); err != nil {
				t.Fatalf("failed to write env: %v", err)
			}

			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: &bytes.Buffer{}})
			err := newApp(runner).Run(context.Background(), []string{"ratingsync", "--config", configPath, "--env", envPath, "setup", "database"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if runner.config.Credentials.Email != "file@example.com" {
				t.Errorf("expected email from file, got %q", runner.config.Credentials.Email)
			}
			if runner.config.Credentials.Password != "from-env" {
				t.Errorf("expected password from env, got %q", runner.config.Credentials.Password)
			}
			if runner.config.Database.Path != dbPath {
				t.Errorf("expected database path from file, got %q", runner.config.Database.Path)
			}
			tu.AssertFileExists(t, dbPath)
			if runner.config.Service.UpdateBatchSize != 250 {
				t.Errorf("expected default batch size, got %d", runner.config.Service.UpdateBatchSize)
			}
			if runner.service == nil || runner.service.Name() == "mock" {
				t.Error("expected music service to be built from config")
			}
			if runner.engine == nil {
				t.Error("expected engine to be built")
			}
		})

		t.Run("rejects invalid config", func(t *testing.T) {
			dir := t.TempDir()
			configPath := filepath.Join(dir, "config.toml")
			if err := os.WriteFile(configPath, []byte("[service\n"), 0600); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: &bytes.Buffer{}})
			err := newApp(runner).Run(context.Background(), []string{"ratingsync", "--config", configPath, "setup", "database"})
			if !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})
}

func TestSyncCommand(t *testing.T) {
	t.Run("dry run records history without writing", func(t *testing.T) {
		svc := &tu.MockService{Songs: serviceSongs}
		runner, output, dir := newTestRunner(t, svc)

		if err := runApp(runner, dir, "sync", "--dry-run", "--show-unmatched"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(svc.Changed) != 0 {
			t.Errorf("expected no writes on dry run, got %v", svc.Changed)
		}
		if svc.Email != "user@example.com" {
			t.Errorf("expected login with config email, got %q", svc.Email)
		}

		out := output.String()
		for _, want := range []string{"Sync Summary", "Dry run: 2 ratings not written", "Airbag", "Unmatched (1)", "Unknown", "Recorded run #1"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
		tu.AssertFileExists(t, runner.config.Database.Path)
	})

	t.Run("applies updates", func(t *testing.T) {
		svc := &tu.MockService{Songs: serviceSongs}
		runner, output, dir := newTestRunner(t, svc)

		if err := runApp(runner, dir, "sync", "--no-history"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(svc.Changed) != 1 || len(svc.Changed[0]) != 2 {
			t.Fatalf("expected one write of 2 songs, got %v", svc.Changed)
		}
		got := map[string]int{}
		for _, s := range svc.Changed[0] {
			got[s.ID] = s.Rating
		}
		if got["r1"] != 4 || got["r3"] != 1 {
			t.Errorf("unexpected ratings written %v", got)
		}
		if !strings.Contains(output.String(), "Updated 2 ratings") {
			t.Errorf("expected success line, got:\n%s", output.String())
		}
		if _, err := os.Stat(runner.config.Database.Path); !os.IsNotExist(err) {
			t.Error("expected no history database with --no-history")
		}
	})

	t.Run("only unrated", func(t *testing.T) {
		svc := &tu.MockService{Songs: serviceSongs}
		runner, _, dir := newTestRunner(t, svc)

		if err := runApp(runner, dir, "sync", "--no-history", "--only-unrated"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(svc.Changed) != 1 || len(svc.Changed[0]) != 1 || svc.Changed[0][0].ID != "r3" {
			t.Errorf("expected only the unrated song to change, got %v", svc.Changed)
		}
	})

	t.Run("writes report", func(t *testing.T) {
		svc := &tu.MockService{Songs: serviceSongs}
		runner, _, dir := newTestRunner(t, svc)
		reportPath := filepath.Join(dir, "reports", "changes.csv")

		if err := runApp(runner, dir, "sync", "--dry-run", "--no-history", "--output", reportPath); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		content := tu.MustReadFile(t, reportPath)
		if !strings.HasPrefix(content, "ID,Name,Album,Artist,Previous Rating,New Rating") {
			t.Errorf("expected CSV header, got:\n%s", content)
		}
		if !strings.Contains(content, "r1,Airbag,OK Computer,Radiohead,3,4") {
			t.Errorf("expected Airbag change, got:\n%s", content)
		}
	})

	t.Run("flag overrides", func(t *testing.T) {
		svc := &tu.MockService{Songs: serviceSongs}
		runner, _, dir := newTestRunner(t, svc)
		other := t.TempDir()
		libraryPath := tu.WriteLibrary(t, other, []models.Song{{Name: "Airbag", Album: "OK Computer", Artist: "Radiohead", Rating: 1}})

		err := runApp(runner, dir, "sync", "--no-history", "--email", "flag@example.com", "--library", libraryPath)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if svc.Email != "flag@example.com" {
			t.Errorf("expected email from flag, got %q", svc.Email)
		}
		if len(svc.Changed) != 1 || svc.Changed[0][0].Rating != 1 {
			t.Errorf("expected rating from the flag library, got %v", svc.Changed)
		}
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name    string
			prepare func(r *Runner, svc *tu.MockService)
			args    []string
			want    error
		}{
			{
				name:    "missing credentials",
				prepare: func(r *Runner, _ *tu.MockService) { r.config.Credentials.Password = "" },
				args:    []string{"sync", "--no-history"},
				want:    shared.ErrMissingCredentials,
			},
			{
				name:    "rejected login",
				prepare: func(_ *Runner, svc *tu.MockService) { svc.LoginErr = shared.ErrAuthFailed },
				args:    []string{"sync", "--no-history"},
				want:    shared.ErrAuthFailed,
			},
			{
				name:    "missing library",
				prepare: func(r *Runner, _ *tu.MockService) { r.config.Library.Path = "does-not-exist.xml" },
				args:    []string{"sync", "--no-history"},
				want:    shared.ErrSourceNotFound,
			},
			{
				name:    "unknown format",
				prepare: func(*Runner, *tu.MockService) {},
				args:    []string{"sync", "--no-history", "--format", "xlsx"},
				want:    shared.ErrInvalidArgument,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc := &tu.MockService{Songs: serviceSongs}
				runner, _, dir := newTestRunner(t, svc)
				tt.prepare(runner, svc)

				err := runApp(runner, dir, tt.args...)
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
				if len(svc.Changed) != 0 {
					t.Errorf("expected no writes, got %v", svc.Changed)
				}
			})
		}
	})
}

func TestLibraryCommands(t *testing.T) {
	t.Run("parse lists songs sorted by name", func(t *testing.T) {
		runner, output, dir := newTestRunner(t, &tu.MockService{})

		if err := runApp(runner, dir, "library", "parse", "--json", "--limit", "3"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var songs []models.Song
		if err := json.Unmarshal(output.Bytes(), &songs); err != nil {
			t.Fatalf("failed to decode output: %v\n%s", err, output.String())
		}
		if len(songs) != 3 {
			t.Fatalf("expected 3 songs, got %d", len(songs))
		}
		if songs[0].Name != "Airbag" || songs[1].Album != "Pablo Honey" || songs[2].Album != "Creep EP" {
			t.Errorf("unexpected order %+v", songs)
		}
		if songs[0].Rating != 4 || songs[0].Year != 1997 {
			t.Errorf("unexpected fields %+v", songs[0])
		}
	})

	t.Run("parse table", func(t *testing.T) {
		runner, output, dir := newTestRunner(t, &tu.MockService{})

		if err := runApp(runner, dir, "library", "parse"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Showing 4 of 4 songs (0 defects)") {
			t.Errorf("unexpected output:\n%s", output.String())
		}
	})

	t.Run("stats reports shared names", func(t *testing.T) {
		runner, output, dir := newTestRunner(t, &tu.MockService{})

		if err := runApp(runner, dir, "lib", "stats"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := output.String()
		for _, want := range []string{"Shared names (1)", "Creep", "out of range"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("missing library", func(t *testing.T) {
		runner, _, dir := newTestRunner(t, &tu.MockService{})

		err := runApp(runner, dir, "library", "parse", "--library", filepath.Join(dir, "missing.xml"))
		if !errors.Is(err, shared.ErrSourceNotFound) {
			t.Errorf("expected ErrSourceNotFound, got %v", err)
		}
	})
}

func TestHistoryCommands(t *testing.T) {
	svc := &tu.MockService{Songs: serviceSongs}
	runner, output, dir := newTestRunner(t, svc)

	if err := runApp(runner, dir, "sync", "--dry-run"); err != nil {
		t.Fatalf("failed to sync: %v", err)
	}
	svc.LoginErr = shared.ErrAuthFailed
	if err := runApp(runner, dir, "sync"); !errors.Is(err, shared.ErrAuthFailed) {
		t.Fatalf("expected failed sync, got %v", err)
	}

	t.Run("list", func(t *testing.T) {
		output.Reset()
		if err := runApp(runner, dir, "history", "list", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var runs []runView
		if err := json.Unmarshal(output.Bytes(), &runs); err != nil {
			t.Fatalf("failed to decode output: %v\n%s", err, output.String())
		}
		if len(runs) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(runs))
		}
		if runs[0].Sequence != 2 || runs[0].Status != models.RunFailed || runs[0].Error == "" {
			t.Errorf("expected latest run to be the failed one, got %+v", runs[0])
		}
		if runs[1].Status != models.RunCompleted || !runs[1].DryRun || runs[1].Counts.Updated != 2 {
			t.Errorf("unexpected first run %+v", runs[1])
		}
	})

	t.Run("list by status", func(t *testing.T) {
		output.Reset()
		if err := runApp(runner, dir, "history", "list", "--status", "failed"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "failed") || strings.Contains(output.String(), "completed") {
			t.Errorf("expected only failed runs, got:\n%s", output.String())
		}
	})

	t.Run("show", func(t *testing.T) {
		output.Reset()
		if err := runApp(runner, dir, "history", "show", "--json", "1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var run runView
		if err := json.Unmarshal(output.Bytes(), &run); err != nil {
			t.Fatalf("failed to decode output: %v\n%s", err, output.String())
		}
		if len(run.Changes) != 2 {
			t.Fatalf("expected 2 changes, got %+v", run.Changes)
		}
		if run.Changes[0].SongID != "r1" || run.Changes[0].PreviousRating != 3 || run.Changes[0].NewRating != 4 {
			t.Errorf("unexpected first change %+v", run.Changes[0])
		}
	})

	t.Run("show table", func(t *testing.T) {
		output.Reset()
		if err := runApp(runner, dir, "history", "show", "#1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Run #1") || !strings.Contains(output.String(), "Airbag") {
			t.Errorf("unexpected output:\n%s", output.String())
		}
	})

	t.Run("show errors", func(t *testing.T) {
		tests := []struct {
			args []string
			want error
		}{
			{[]string{"history", "show"}, shared.ErrMissingArgument},
			{[]string{"history", "show", "first"}, shared.ErrInvalidArgument},
			{[]string{"history", "show", "99"}, shared.ErrRunNotFound},
		}
		for _, tt := range tests {
			if err := runApp(runner, dir, tt.args...); !errors.Is(err, tt.want) {
				t.Errorf("%v: expected %v, got %v", tt.args, tt.want, err)
			}
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		runner, _, dir := newTestRunner(t, &tu.MockService{})

		if err := runApp(runner, dir, "setup", "config"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		content := tu.MustReadFile(t, filepath.Join(dir, "config.toml"))
		if !strings.Contains(content, "[credentials]") {
			t.Errorf("expected example config, got:\n%s", content)
		}

		if err := runApp(runner, dir, "setup", "config"); err == nil {
			t.Error("expected error when config already exists")
		}
	})

	t.Run("database", func(t *testing.T) {
		runner, _, dir := newTestRunner(t, &tu.MockService{})

		if err := runApp(runner, dir, "setup", "database"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, runner.config.Database.Path)
	})
}
