package epidemic

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrConfiguration indicates invalid initialization or rule parameters.
	ErrConfiguration = errors.New("epidemic: invalid configuration")

	// ErrSink indicates an observer (CSV, video, ...) failed to record a step.
	ErrSink = errors.New("epidemic: output sink failed")

	// ErrGridMismatch indicates a commit of a grid that does not follow the
	// current one.
	ErrGridMismatch = errors.New("epidemic: grid does not follow current grid")
)

// ConfigError reports the offending parameter.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("epidemic: invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfiguration
}

// SinkError wraps an observer failure with the step it happened at.
type SinkError struct {
	Sink    string
	Step    int
	Wrapped error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("epidemic: sink %s failed at step %d: %v", e.Sink, e.Step, e.Wrapped)
}

func (e *SinkError) Unwrap() []error {
	return []error{ErrSink, e.Wrapped}
}

// InvariantError is the panic value raised when a grid holds a value outside
// the defined states. It signals a programming error upstream, not a runtime
// condition.
type InvariantError struct {
	Row, Col int
	Value    State
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("epidemic: cell (%d,%d) holds undefined state %d", e.Row, e.Col, uint8(e.Value))
}
