// Package models defines the song record shared by both catalogs and the persisted sync history.
//
// The package contains two categories of types:
//
// 1. Records: plain value types flowing through extraction and matching
//   - [Song] : one track from either catalog, built with [NewSong]
//   - [Catalog] : an ordered set of songs tagged with its [Origin]
//   - [Update] : a remote song whose rating must be overwritten
//
// 2. Persistent Entities: database-backed history of sync runs
//   - [SyncRun] : one invocation of the sync pipeline with its counters and outcome
//   - [RatingChange] : one rating written (or proposed, for dry runs) by a run
//
// Ratings use the remote 0–5 scale. [ConvertRating] maps the library's native 0–100 scale onto it.
package models
