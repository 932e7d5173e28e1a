package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a sync run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	Login Phase = iota
	OpenSource
	FetchRemote
	ExtractLocal
	MatchSongs
	ApplyRatings
	RecordRun
)

func (p Phase) String() string {
	switch p {
	case Login:
		return "login"
	case OpenSource:
		return "open_source"
	case FetchRemote:
		return "fetch_remote"
	case ExtractLocal:
		return "extract_local"
	case MatchSongs:
		return "match"
	case ApplyRatings:
		return "apply"
	case RecordRun:
		return "record"
	default:
		return ""
	}
}

func loginUpdate(service string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Login,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Logging in to %s...", service),
	}
}

func openSourceUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   OpenSource,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Opening library %s...", path),
	}
}

func fetchRemoteUpdate(fetched int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRemote,
		Step:    fetched,
		Message: fmt.Sprintf("Fetched %d songs from the service", fetched),
	}
}

func extractLocalUpdate(parsed, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExtractLocal,
		Step:    parsed,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Parsed library songs", parsed, total),
	}
}

func matchUpdate(considered, local int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MatchSongs,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Matching %d service songs against %d library songs...", considered, local),
	}
}

func matchedUpdate(updates, unmatched int, data any) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MatchSongs,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%d ratings ready for sync (%d songs unmatched)", updates, unmatched),
		Data:    data,
	}
}

func applyUpdate(count int, dryRun bool) ProgressUpdate {
	msg := fmt.Sprintf("Writing %d ratings...", count)
	if dryRun {
		msg = fmt.Sprintf("Dry run: skipping %d rating writes", count)
	}
	return ProgressUpdate{
		Phase:   ApplyRatings,
		Step:    1,
		Total:   1,
		Message: msg,
	}
}

func recordUpdate(sequence int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RecordRun,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Recorded run #%d", sequence),
	}
}
