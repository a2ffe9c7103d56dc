package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures zerolog for the process. Logs go to stderr, stdout may
// carry the rewritten G-code.
func Setup(level string) zerolog.Logger {
	return SetupWithWriter(level, zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})
}

// SetupWithWriter configures zerolog writing to w.
func SetupWithWriter(level string, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	logger := zerolog.New(w).With().Timestamp().Logger().Level(lvl)
	log.Logger = logger
	return logger
}
