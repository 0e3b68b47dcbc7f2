package tui

import (
	"os"
	"path/filepath"
)

// LogFilePath returns the path of the log file for a repository.
// TRAINLINE_LOG_FILE overrides the default of <git dir>/trainline.log.
func LogFilePath(gitDir string) string {
	if customPath := os.Getenv("TRAINLINE_LOG_FILE"); customPath != "" {
		return customPath
	}
	return filepath.Join(gitDir, "trainline.log")
}
