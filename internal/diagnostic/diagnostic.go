// Package diagnostic builds the structured logger that every component
// writes human-readable diagnostics to. It is the one place that decides
// the logger's destination, so the rest of the module never has to
// reason about which stream is safe to write to.
package diagnostic

import (
	"io"

	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger writing to w at the level named by
// levelName ("debug", "info", "warn", "error"). An unrecognized level
// name falls back to info and logs one warning line so the mistake is
// visible without aborting startup.
func New(w io.Writer, levelName string) zerolog.Logger {
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()

	if err != nil {
		logger.Warn().Str("value", levelName).Msg("unrecognized log level, defaulting to info")
	}

	return logger
}
