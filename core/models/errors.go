package models

import (
	"errors"
	"fmt"
)

// ErrInterrupted marks a run that was cancelled from outside before completing
var ErrInterrupted = errors.New("training interrupted by user")

// ConfigurationError reports invalid run parameters. It fails the run before
// any phase starts.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// EngineError wraps any failure raised by the training engine. The
// orchestrator treats every engine error identically regardless of the
// call that produced it.
type EngineError struct {
	Op    string
	Cause error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine error during %s: %v", e.Op, e.Cause)
}

func (e *EngineError) Unwrap() error { return e.Cause }
