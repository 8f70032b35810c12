package model

import (
	"math"
	"testing"

	"github.com/willpearse/bayesianflows/domain/core"
)

func TestHyperParametersValidate(t *testing.T) {
	valid := HyperParameters{MuIntercept: 100, SigmaIntercept: 10, MuSlope: -0.5, SigmaSlope: 0.2, SigmaResidual: 5}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Expected valid hyperparameters to pass, got %v", err)
	}

	// Zero scales degenerate draws to their means but are not an error.
	degenerate := HyperParameters{MuIntercept: 125, MuSlope: 0.5}
	if err := degenerate.Validate(); err != nil {
		t.Errorf("Expected zero scales to validate, got %v", err)
	}

	negative := valid
	negative.SigmaSlope = -0.1
	err := negative.Validate()
	if err == nil {
		t.Fatal("Expected negative sigma_slope to fail validation")
	}
	if !core.IsConfigurationError(err) {
		t.Errorf("Expected a configuration error, got %v", err)
	}

	nan := valid
	nan.SigmaResidual = math.NaN()
	if err := nan.Validate(); err == nil {
		t.Error("Expected NaN sigma_residual to fail validation")
	}
}

func TestDatasetValidate(t *testing.T) {
	ds := Dataset{
		GroupCount:  2,
		Changepoint: 1990,
		Observations: []Observation{
			{GroupID: 0, Year: 1989, YearCentered: -1, Flow: 10},
			{GroupID: 1, Year: 1991, YearCentered: 1, Flow: 20},
		},
	}
	if err := ds.Validate(); err != nil {
		t.Fatalf("Expected dataset to validate, got %v", err)
	}

	outOfRange := ds
	outOfRange.Observations = append([]Observation{}, ds.Observations...)
	outOfRange.Observations[1].GroupID = 2
	if err := outOfRange.Validate(); err == nil {
		t.Error("Expected group id outside [0, GroupCount) to fail")
	}

	inconsistent := ds
	inconsistent.Observations = append([]Observation{}, ds.Observations...)
	inconsistent.Observations[0].YearCentered = 0.5
	if err := inconsistent.Validate(); err == nil {
		t.Error("Expected centered predictor inconsistent with changepoint to fail")
	}

	empty := Dataset{}
	if err := empty.Validate(); err == nil {
		t.Error("Expected zero group count to fail")
	}
}

func TestDatasetGroupResponsesAndShape(t *testing.T) {
	ds := Dataset{
		GroupCount:  2,
		Changepoint: 1990,
		Observations: []Observation{
			{GroupID: 1, Year: 1992, YearCentered: 2, Flow: 30},
			{GroupID: 0, Year: 1989, YearCentered: -1, Flow: 10},
			{GroupID: 1, Year: 1993, YearCentered: 3, Flow: 35},
		},
	}

	responses := ds.GroupResponses()
	if len(responses) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(responses))
	}
	if len(responses[0]) != 1 || responses[0][0] != 10 {
		t.Errorf("Unexpected group 0 responses: %v", responses[0])
	}
	if len(responses[1]) != 2 || responses[1][0] != 30 || responses[1][1] != 35 {
		t.Errorf("Unexpected group 1 responses: %v", responses[1])
	}

	shape := ds.Shape()
	if err := shape.Validate(); err != nil {
		t.Fatalf("Expected shape to validate, got %v", err)
	}
	if shape.ObservationCount() != 3 {
		t.Errorf("Expected 3 observations in shape, got %d", shape.ObservationCount())
	}
	if shape.Predictors[1][1] != 3 {
		t.Errorf("Expected group 1 predictors to keep observation order, got %v", shape.Predictors[1])
	}
}

func TestDesignShapeValidate(t *testing.T) {
	mismatched := DesignShape{GroupCount: 3, Predictors: [][]float64{{1}, {2}}}
	if err := mismatched.Validate(); err == nil {
		t.Error("Expected predictor/group count mismatch to fail")
	}
}
