// Package ui renders CLI output: a [lipgloss] palette for status lines, rounded tables for history and
// library statistics, and progress lines for updates streamed from the sync engine.
package ui
