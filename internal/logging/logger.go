package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New creates the root logger writing JSON to stderr at the given
// level.
func New(level string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	return zerolog.New(os.Stderr).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// Sub returns a child logger tagged with the subsystem name.
func Sub(log zerolog.Logger, subsystem string) zerolog.Logger {
	return log.With().Str("subsystem", subsystem).Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
