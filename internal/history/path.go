package history

import (
	"path/filepath"

	"github.com/tryforce-dev/forge/internal/paths"
)

const (
	liveSuffix   = ".jsonl"
	closedSuffix = ".jsonl.gz"
)

// DefaultDir returns the default history directory.
func DefaultDir() (string, error) {
	return paths.HistoryDir()
}

func livePath(dir, sessionID string) string {
	return filepath.Join(dir, sessionID+liveSuffix)
}

func closedPath(dir, sessionID string) string {
	return filepath.Join(dir, sessionID+closedSuffix)
}
