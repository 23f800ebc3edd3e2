package wclog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var Zero = NewZeroLogger("")

// NewZeroLogger creates a logger writing human readable lines to stdout when
// filepath is empty, and JSON lines appended to filepath otherwise.
func NewZeroLogger(filepath string) *zerolog.Logger {
	var output io.Writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	if filepath != "" {
		if f, err := os.OpenFile(filepath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
			output = f
		}
	}
	logger := zerolog.New(output).With().Timestamp().Logger().Level(zerolog.InfoLevel)

	return &logger
}

// ReloadLogger points Zero to a new destination, keeping its level.
func ReloadLogger(filepath string) {
	level := Zero.GetLevel()
	logger := NewZeroLogger(filepath).Level(level)
	Zero = &logger
}

func UpdateZeroLogLevel(logLevel string) error {
	level, err := parseLevel(logLevel)
	if err != nil {
		return err
	}
	zeroLogger := Zero.Level(level)
	Zero = &zeroLogger
	return nil
}

func parseLevel(level string) (zerolog.Level, error) {
	switch level {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info", "":
		return zerolog.InfoLevel, nil
	case "warning", "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "fatal":
		return zerolog.FatalLevel, nil
	case "disabled":
		return zerolog.Disabled, nil
	default:
		return zerolog.InfoLevel, &UnknownLevelError{Level: level}
	}
}

type UnknownLevelError struct {
	Level string
}

func (e *UnknownLevelError) Error() string {
	return "no matching log level found " + e.Level
}
