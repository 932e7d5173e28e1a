package ui

import (
	"fmt"

	"github.com/desertthunder/ratingsync/internal/tasks"
)

// FormatProgress renders a progress update as a single status line.
func FormatProgress(u tasks.ProgressUpdate) string {
	if u.Total > 0 && u.Step < u.Total {
		pct := u.Step * 100 / u.Total
		return fmt.Sprintf("%s %s %s", Styles.Help(fmt.Sprintf("[%-13s]", u.Phase)), u.Message, Styles.Help(fmt.Sprintf("%3d%%", pct)))
	}
	return fmt.Sprintf("%s %s", Styles.Help(fmt.Sprintf("[%-13s]", u.Phase)), u.Message)
}

// Drain prints updates from progress until it is closed, then closes done.
func Drain(progress <-chan tasks.ProgressUpdate, print func(string), done chan<- struct{}) {
	defer close(done)
	for u := range progress {
		print(FormatProgress(u))
	}
}
