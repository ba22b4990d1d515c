// Package logging builds the zerolog logger used by the CLI.
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console logger writing to w. Debug events, including the
// linter's node trace, are only shown when verbose is set.
func New(w io.Writer, verbose, colored bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    !colored,
		TimeFormat: time.TimeOnly,
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Component tags log events with the subsystem that produced them.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
