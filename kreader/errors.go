package kreader

import (
	"errors"
	"fmt"
)

// ErrInvalidState is returned when a reader is driven out of order, e.g.
// initialized twice.
var ErrInvalidState = errors.New("kreader: invalid reader state")

// ErrValidation is wrapped by every ValidationError.
var ErrValidation = errors.New("kreader: invalid edge value")

// ValidationError reports a line whose value failed the algorithm's checks.
// It is fatal for the split.
type ValidationError struct {
	Split      string
	LineNumber int64
	Line       string
	Cause      error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("split %s line %d: invalid edge value in %q: %v", e.Split, e.LineNumber, e.Line, e.Cause)
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Cause}
}

// ConfigurationError reports that a reader could not be initialized, either
// because its split could not be opened or its settings are unusable.
type ConfigurationError struct {
	Split string
	Cause error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("split %s: cannot initialize edge reader: %v", e.Split, e.Cause)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}
