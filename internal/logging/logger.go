// Package logging builds the charmbracelet logger used as the slog backend.
// Configuration comes from DUMPDIFF_LOG_* environment variables.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const defaultPrefix = "dump-diff"

// LoggerCloser wraps a logger and the file it may be writing to.
type LoggerCloser struct {
	*log.Logger
	closer io.Closer
}

// Close closes the underlying writer if it's closeable
func (lc *LoggerCloser) Close() error {
	if lc.closer != nil {
		return lc.closer.Close()
	}
	return nil
}

// LevelFromEnv maps DUMPDIFF_LOG_LEVEL to a log level. Unknown or empty
// values mean warn so that normal runs only print the report.
func LevelFromEnv() log.Level {
	switch strings.ToLower(os.Getenv("DUMPDIFF_LOG_LEVEL")) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.WarnLevel
	}
}

// NewLoggerWithWriter creates a logger writing to w.
func NewLoggerWithWriter(w io.Writer) *LoggerCloser {
	lg := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Level:           LevelFromEnv(),
	})

	prefix := os.Getenv("DUMPDIFF_LOG_PREFIX")
	if prefix == "" {
		prefix = defaultPrefix
	}

	var closer io.Closer
	if c, ok := w.(io.Closer); ok && w != os.Stderr {
		closer = c
	}

	return &LoggerCloser{
		Logger: lg.WithPrefix(prefix),
		closer: closer,
	}
}

// NewLogger creates a logger based on environment variables
// DUMPDIFF_LOG_LEVEL: debug, info, warn, error (default: warn)
// DUMPDIFF_LOG_PREFIX: prefix for log messages (default: "dump-diff")
// DUMPDIFF_LOG_TO_FILE: when set to "1", logs to a timestamped file instead of stderr
func NewLogger() *LoggerCloser {
	output := io.Writer(os.Stderr)

	if os.Getenv("DUMPDIFF_LOG_TO_FILE") == "1" {
		logFile := fmt.Sprintf("dump-diff-%s.log", time.Now().Format("20060102-150405"))
		f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err == nil {
			output = f
		}
		// stderr if the file can't be created
	}

	return NewLoggerWithWriter(output)
}

// IsDebug returns true if debug logging is enabled
func IsDebug() bool {
	return LevelFromEnv() == log.DebugLevel
}
