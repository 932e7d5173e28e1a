// Package repositories implements SQLite persistence for sync run history.
//
// Key Implementations:
//   - [RunRepository] : Sync runs with status and summary counts, addressable by ID or run number
//   - [RatingChangeRepository] : Rating changes written (or proposed, for dry runs) by a run
//   - [RunRecorderAdapter] : Adapts both repositories to tasks.RunRecorder
//
// Runs carry a human-readable run number (e.g., run #42) independent of UUIDs and creation timestamps.
// Numbers come from the single-row sync_runs_sequence counter, incremented in the same transaction as the insert.
//
// Deleting a run removes its rating changes through ON DELETE CASCADE, which requires PRAGMA foreign_keys = ON.
package repositories
