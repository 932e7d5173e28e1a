// Package tasks orchestrates a ratings sync between an exported media library and a music service with real-time
// progress reporting.
//
// # Core Operation
//
// [SyncEngine.Run] performs a full library → service ratings sync:
//
//  1. Logs in to the service (terminal [shared.ErrAuthFailed] on rejection)
//  2. Opens the library file (terminal [shared.ErrSourceNotFound] when missing)
//  3. Fetches every service song and sorts it by name
//  4. Extracts the library in batches, logging per-record defects as warnings
//  5. Matches both catalogs with the [matcher] cascade
//  6. Writes the changed ratings back, unless [RunOptions.DryRun] is set
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for richer rendering.
// Updates use select with default to prevent blocking.
//
// # Run History
//
// The optional [RunRecorder] interface persists every run and the ratings it changed.
//
// Recording failures are logged and ignored to avoid disrupting the sync.
//
// # Implementation
//
// [RatingsEngine] implements [SyncEngine] with dependencies on:
//   - [services.Service] : the remote music catalog
//   - [RunRecorder] : Optional persistence layer (repositories.RunRecorderAdapter)
package tasks
