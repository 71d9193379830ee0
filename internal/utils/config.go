package utils

import (
	"os"
	"path/filepath"
)

// DefaultSessionDir returns ~/.taskmanager, or a directory under the temp dir when
// the home directory cannot be resolved.
func DefaultSessionDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "taskmanager")
	}
	return filepath.Join(home, ".taskmanager")
}

// DefaultLogPath returns the client log file inside the session dir.
func DefaultLogPath() string {
	return filepath.Join(DefaultSessionDir(), "logs", "client.log")
}
