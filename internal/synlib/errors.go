// ABOUTME: Error types for gateway construction and the worker's fault boundary.
// ABOUTME: ConfigurationError fails construction; PanicError wraps recovered panics.

package synlib

import (
	"errors"
	"fmt"
)

// ErrInvalidPort indicates a port outside [1, 65535].
var ErrInvalidPort = errors.New("invalid port range")

// ErrNoCollaborator indicates Options.NewCollaborator was not set.
var ErrNoCollaborator = errors.New("no session manager configured")

// ConfigurationError is returned by New when the options are unusable.
// No goroutine has been started when it is returned.
type ConfigurationError struct {
	Field string
	Value any
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("gateway configuration: %s=%v: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// PanicError carries a panic recovered at the worker's top-level boundary.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
