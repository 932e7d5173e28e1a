// Package library reads an exported media library property list (iTunes "Library.xml") into song records.
//
// # Reading
//
// [Scan] walks the document with a streaming XML decoder and yields one [TrackNode] per track dictionary,
// i.e. every dict nested directly inside two other dicts (plist > dict > dict > dict). Only the flat run of
// key/value markers of each track is kept in memory, never the whole document tree.
//
// # Extraction
//
// [Extract] turns track nodes into [models.Song] values in batches of [BatchSize], yielding after every batch
// so callers can report progress. Keys are dispatched through a fixed table of field setters; unknown keys
// are skipped. The Rating key goes through [models.ConvertRating].
//
// A bad value never stops a batch. The record is still emitted with whatever fields parsed and the problem is
// reported as a [Defect] wrapping [shared.ErrRecordParse] or [shared.ErrRatingOutOfRange].
//
// # Loading
//
// [Load] opens a library file, drains the batches and returns the records stably sorted by name, which is
// the order the matcher expects.
package library
