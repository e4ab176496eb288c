package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

const (
	JSON = "json"
	Text = "text"
	Tint = "tint"
)

// New builds a logger writing to w. Source locations are only added at debug
// level, where they are worth the noise.
func New(w io.Writer, loggingType string, logLevelName string) (*slog.Logger, error) {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(logLevelName)); err != nil {
		return nil, fmt.Errorf("could not parse log level: %w", err)
	}

	addSource := logLevel <= slog.LevelDebug

	var logHandler slog.Handler
	switch loggingType {
	case JSON:
		logHandler = slog.NewJSONHandler(w, &slog.HandlerOptions{AddSource: addSource, Level: logLevel})
	case Text:
		logHandler = slog.NewTextHandler(w, &slog.HandlerOptions{AddSource: addSource, Level: logLevel})
	case Tint:
		logHandler = tint.NewHandler(w, &tint.Options{AddSource: addSource, Level: logLevel})
	default:
		return nil, fmt.Errorf("unknown logging type: %s", loggingType)
	}

	return slog.New(logHandler), nil
}

// Initialize installs the default logger. Logs go to stderr because stdout
// carries the run report.
func Initialize(loggingType string, logLevelName string) error {
	logger, err := New(os.Stderr, loggingType, logLevelName)
	if err != nil {
		return err
	}

	slog.SetDefault(logger)
	slog.Debug("logging initialized", "logLevel", logLevelName, "type", loggingType)
	return nil
}
