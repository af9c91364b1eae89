// Package logging holds the process-wide structured logger. Output goes to a
// file only: anything written to stderr would corrupt the terminal UI.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Logger is the structured logger shared by all packages
var Logger *slog.Logger

func init() {
	// Default to discarding logs until Init is called
	Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Init points Logger at logPath, appending. If logPath is empty, logs are
// discarded. The log file is created with mode 0600 (user-only).
func Init(logPath string, debug bool) (io.Closer, error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}

	if logPath == "" {
		Logger = slog.New(slog.NewTextHandler(io.Discard, opts))
		return io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	Logger = slog.New(slog.NewTextHandler(file, opts))
	return file, nil
}
