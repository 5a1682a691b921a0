package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.blogsearch/logs/).
// Falls back to temp directory if home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".blogsearch", "logs")
	}
	return filepath.Join(home, ".blogsearch", "logs")
}

// DefaultLogPath returns the default server log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "server.log")
}

// BuildLogPath returns the log path used by the index build job.
func BuildLogPath() string {
	return filepath.Join(DefaultLogDir(), "build.log")
}
