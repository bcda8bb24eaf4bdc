// Package logging installs the process logger: text records outside
// production, JSON records in production, optionally copied to a log file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Setup installs the default logger writing to out and, when file is not
// empty, appending to file. The returned closer closes the file.
func Setup(appEnv, logLevel string, out io.Writer, file string) (io.Closer, error) {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(logLevel),
	}

	newHandler := func(w io.Writer) slog.Handler {
		if appEnv == "production" {
			return slog.NewJSONHandler(w, opts)
		}
		return slog.NewTextHandler(w, opts)
	}

	fan := NewFanout(newHandler(out))

	var closer io.Closer = nopCloser{}
	if file != "" {
		f, err := openLogFile(file)
		if err != nil {
			return nil, err
		}
		// The file always gets JSON so that it can be parsed back.
		fan.Add(slog.NewJSONHandler(f, opts))
		closer = f
	}

	slog.SetDefault(slog.New(fan))
	return closer, nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// ParseLevel maps a level name to a slog.Level. VERBOSE is DEBUG and ASSERT
// is ERROR. Unknown names are INFO.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToUpper(levelStr) {
	case "VERBOSE", "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARNING", "WARN":
		return slog.LevelWarn
	case "ERROR", "ASSERT":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
