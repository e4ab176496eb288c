package api

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoUpgradeAvailable is the terminal outcome when every key is already current.
var ErrNoUpgradeAvailable = errors.New("no update available")

// ConfigurationError reports files an item needs but does not have.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required file(s): %s", strings.Join(e.Missing, ", "))
}

// ValidationError reports a document that does not match its expected shape.
type ValidationError struct {
	Subject string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s failed validation: %s", e.Subject, e.Reason)
}

// ExternalToolError reports a failed registry query or strategy run.
type ExternalToolError struct {
	Tool   string
	Stderr string
	Err    error
}

func (e *ExternalToolError) Error() string {
	msg := e.Tool + ": " + e.Err.Error()
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *ExternalToolError) Unwrap() error { return e.Err }

// TrainNotFoundError is returned when the train directory does not exist.
type TrainNotFoundError struct {
	Path string
}

func (e *TrainNotFoundError) Error() string {
	return fmt.Sprintf("unable to locate catalog train at %q", e.Path)
}
