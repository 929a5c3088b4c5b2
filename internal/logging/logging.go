// Package logging builds the leveled console logger used across tada.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// Options holds logger configuration.
type Options struct {
	Level  string
	Format string
	// File, when set, receives the log instead of Fallback.
	File string
	// Fallback is used when File is empty. Nil discards.
	Fallback io.Writer
}

// New builds a logger. The returned closer releases the log file, if one
// was opened; it is never nil.
func New(opts Options) (*log.Logger, io.Closer, error) {
	var w io.Writer = io.Discard
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	} else if opts.Fallback != nil {
		w = opts.Fallback
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(opts.Level),
		Formatter:       ParseFormatter(opts.Format),
		ReportTimestamp: opts.File != "",
		Prefix:          "tada",
	})
	return logger, closer, nil
}

// ParseLevel maps debug|info|warn|error to a level. Unknown input is info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ParseFormatter maps text|json|logfmt to a formatter.
func ParseFormatter(format string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
