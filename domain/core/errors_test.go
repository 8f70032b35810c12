package core

import (
	"errors"
	"fmt"
	"testing"
)

// TestErrorClassification tests that constructed errors match their
// sentinel and no other
func TestErrorClassification(t *testing.T) {
	cfg := NewConfigurationError("cycles", "must be >= 1, got 0")
	inf := NewInferenceError("stan-http", "r_hat_max=1.31", nil)
	shape := NewShapeMismatchError("slope[3]", "has 900 draws, expected 1000")

	if !IsConfigurationError(cfg) || IsInferenceError(cfg) || IsShapeMismatchError(cfg) {
		t.Errorf("Configuration error misclassified: %v", cfg)
	}
	if !IsInferenceError(inf) || IsConfigurationError(inf) {
		t.Errorf("Inference error misclassified: %v", inf)
	}
	if !IsShapeMismatchError(shape) || IsInferenceError(shape) {
		t.Errorf("Shape error misclassified: %v", shape)
	}
}

// TestErrorClassificationSurvivesWrapping tests sentinel matching through
// fmt.Errorf %w chains, which is how services annotate cycle context
func TestErrorClassificationSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("cycle 3: %w", NewInferenceError("stan-http", "engine error", nil))
	if !IsInferenceError(err) {
		t.Errorf("Expected wrapped inference error to classify, got %v", err)
	}
}

// TestInferenceErrorCause tests that a transport cause is preserved
func TestInferenceErrorCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewInferenceError("stan-http", "request failed", cause)
	if !IsInferenceError(err) {
		t.Fatalf("Expected inference error, got %v", err)
	}
}

// TestRunNotFound tests that run-not-found is a NotFound
func TestRunNotFound(t *testing.T) {
	if !errors.Is(ErrRunNotFound, ErrNotFound) {
		t.Error("Expected ErrRunNotFound to match ErrNotFound")
	}
}
