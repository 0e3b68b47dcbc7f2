// Package tui provides the terminal user interface for trainline.
//
// It handles:
//   - Operator prompts (confirmations, commit message editing, branch selection) through survey
//   - Structured logging to the console and a rotated log file (Splog)
//   - Terminal styling with lipgloss and the termenv color profile
//   - The conflict scan spinner built on bubbletea
package tui
