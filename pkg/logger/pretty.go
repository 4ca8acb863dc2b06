package logger

import (
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// NewPretty returns a colorized, human-friendly logger for CLI commands.
// Service components should use NewLogger instead; this is for user-facing
// command output where structured fields would be noise.
func NewPretty(debug bool) *charmlog.Logger {
	return NewPrettyWithWriter(debug, os.Stderr)
}

// NewPrettyWithWriter is NewPretty with an explicit output writer, used in tests.
func NewPrettyWithWriter(debug bool, w io.Writer) *charmlog.Logger {
	level := charmlog.InfoLevel
	if debug {
		level = charmlog.DebugLevel
	}

	return charmlog.NewWithOptions(w, charmlog.Options{
		Level:           level,
		ReportTimestamp: false,
	})
}
