package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a structured logger tagged with a consistent service name.
func New(service string) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.TimeOnly}
	return zerolog.New(out).With().Timestamp().Str("service", service).Logger()
}
