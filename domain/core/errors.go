package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Configuration errors: invalid or contradictory configuration,
	// always detected before any stochastic draw.
	ErrConfiguration = errors.New("invalid configuration")

	// Inference errors: the external engine reported non-convergence,
	// returned a failure payload, or timed out. Never retried here.
	ErrInference = errors.New("inference failed")

	// Shape errors: posterior draw arrays disagree in length, or a
	// declared parameter is missing from the engine response.
	ErrShapeMismatch = errors.New("posterior shape mismatch")

	// Not found errors
	ErrNotFound    = errors.New("resource not found")
	ErrRunNotFound = fmt.Errorf("%w: run", ErrNotFound)
)

// Error constructors with context

func NewConfigurationError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrConfiguration, field, reason)
}

func NewInferenceError(engine string, diagnostics string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: engine %s: %s: %v", ErrInference, engine, diagnostics, cause)
	}
	return fmt.Errorf("%w: engine %s: %s", ErrInference, engine, diagnostics)
}

func NewShapeMismatchError(parameter string, reason string) error {
	return fmt.Errorf("%w: parameter %s: %s", ErrShapeMismatch, parameter, reason)
}

// Error checking helpers

func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func IsInferenceError(err error) bool {
	return errors.Is(err, ErrInference)
}

func IsShapeMismatchError(err error) bool {
	return errors.Is(err, ErrShapeMismatch)
}
