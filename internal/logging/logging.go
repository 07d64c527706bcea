// Package logging builds the process logger and installs it into the
// library packages that report soft failures.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"mlipens/internal/correction"
	"mlipens/internal/dataset"
)

// Setup returns a console logger at the requested verbosity and wires it
// into the packages that log degradations (correction fallbacks, skipped
// files) instead of failing.
func Setup(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	correction.SetLogger(logger)
	dataset.SetLogger(logger)
	return logger
}
