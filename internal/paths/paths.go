package paths

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "fleetdash"

// RuntimeDir returns the runtime directory for the demo server's pid and log
func RuntimeDir() string {
	return filepath.Join(xdg.RuntimeDir, appName)
}

// StateDir returns the state directory for persistent data (survives reboots)
func StateDir() string {
	return filepath.Join(xdg.StateHome, appName)
}

// ConfigDir returns the directory holding config.toml
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DatabasePath returns the path to the SQLite database file
func DatabasePath() string {
	return filepath.Join(StateDir(), "state.db")
}

// LogPath returns the path to the client log file
func LogPath() string {
	return filepath.Join(StateDir(), "fleetdash.log")
}

// DemoPIDPath returns the pid file of a detached demo server
func DemoPIDPath() string {
	return filepath.Join(RuntimeDir(), "demo.pid")
}

// DemoLogPath returns the log file of a detached demo server
func DemoLogPath() string {
	return filepath.Join(RuntimeDir(), "demo.log")
}

// EnsureRuntimeDir creates the runtime directory if it doesn't exist
func EnsureRuntimeDir() (string, error) {
	return ensure(RuntimeDir(), "runtime")
}

// EnsureStateDir creates the state directory if it doesn't exist
func EnsureStateDir() (string, error) {
	return ensure(StateDir(), "state")
}

func ensure(dir, kind string) (string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", kind, err)
	}
	return dir, nil
}
