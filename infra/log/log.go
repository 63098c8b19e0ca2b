package log

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"topbook/config"
)

type Logger = zerolog.Logger

func NewLogger(cfg config.Config) Logger {
	return New(os.Stderr, cfg.Logging.Level, cfg.Logging.Pretty)
}

// New builds a logger writing to w. An unknown level falls back to info.
func New(w io.Writer, level string, pretty bool) Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	if pretty {
		w = zerolog.ConsoleWriter{Out: w}
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Nop discards everything; used by tests and optional components.
func Nop() Logger {
	return zerolog.Nop()
}
