// Package logging provides the zerolog-based logger used by all commands.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Options controls logger construction.
type Options struct {
	Verbose bool
	LogDir  string // when set, a main.log file is also written there
}

// New builds the application logger. Console output goes to stderr so that
// stdout stays clean for progress bars and summaries; with LogDir set, the
// same events are mirrored into <dir>/main.log as JSON.
func New(opts Options) (zerolog.Logger, error) {
	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}

	var w io.Writer = console
	if opts.LogDir != "" {
		if err := os.MkdirAll(opts.LogDir, 0755); err != nil {
			return zerolog.Nop(), err
		}
		f, err := os.OpenFile(filepath.Join(opts.LogDir, "main.log"),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return zerolog.Nop(), err
		}
		w = zerolog.MultiLevelWriter(console, f)
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return logger, nil
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
