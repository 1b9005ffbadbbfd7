package log

import (
	"io"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zerologr"
	"github.com/rs/zerolog"
)

// New returns a logger writing to stderr; stdout is left to edge output.
// Verbosity 0 logs info and errors, every step above adds one V level.
func New(verbosity int) logr.Logger {
	var output io.Writer
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		output = os.Stderr
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02T15:04:05.999Z07:00"}
	}
	return newLogger(output, verbosity)
}

func newLogger(output io.Writer, verbosity int) logr.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerologr.NameFieldName = "logger"
	zerologr.NameSeparator = "/"

	if verbosity < 0 {
		verbosity = 0
	}
	// zerologr maps V(n) to zerolog level 1-n
	zlog := zerolog.New(output).Level(zerolog.Level(1 - verbosity)).With().Timestamp().Logger()
	return zerologr.New(&zlog)
}
