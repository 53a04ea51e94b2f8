// Package log wraps zerolog with the console setup used by satellite-reset.
package log

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lakshaymaurya-felt/satreset/internal/core"
)

const timeFormat = "15:04:05"

// Logger is the process-wide logger. Operator-facing status lines go to
// stdout through the ui package; everything here goes to stderr.
var Logger zerolog.Logger

var level = zerolog.InfoLevel

func init() {
	SetOutput(os.Stderr)
}

// SetOutput points the logger at w, keeping the current level.
func SetOutput(w io.Writer) {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: timeFormat,
		NoColor:    !core.IsTerminal(w),
	}

	Logger = zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("tool", "satellite-reset").
		Logger()

	log.Logger = Logger
}

// Info starts an info level event.
func Info() *zerolog.Event {
	return Logger.Info()
}

// Error starts an error level event.
func Error() *zerolog.Event {
	return Logger.Error()
}

// Warn starts a warning level event.
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Debug starts a debug level event.
func Debug() *zerolog.Event {
	return Logger.Debug()
}

// SetDebugMode switches the logger to debug level.
func SetDebugMode() {
	level = zerolog.DebugLevel
	Logger = Logger.Level(level)
	log.Logger = Logger
}
