package model

import (
	"fmt"
	"math"

	"github.com/willpearse/bayesianflows/domain/core"
)

// HyperParameters govern the population-level distributions the per-group
// intercepts and slopes are drawn from, plus the residual noise scale.
// A value is immutable once drawn or fit; regenerating creates a new one.
type HyperParameters struct {
	MuIntercept    float64 `json:"mu_intercept" db:"mu_intercept"`
	SigmaIntercept float64 `json:"sigma_intercept" db:"sigma_intercept"`
	MuSlope        float64 `json:"mu_slope" db:"mu_slope"`
	SigmaSlope     float64 `json:"sigma_slope" db:"sigma_slope"`
	SigmaResidual  float64 `json:"sigma_residual" db:"sigma_residual"`
}

// Validate rejects negative scales. A scale of exactly zero is permitted:
// it degenerates the draw to its mean, which is how the generative
// arithmetic is validated independent of randomness.
func (h HyperParameters) Validate() error {
	for _, s := range []struct {
		name  string
		value float64
	}{
		{"sigma_intercept", h.SigmaIntercept},
		{"sigma_slope", h.SigmaSlope},
		{"sigma_residual", h.SigmaResidual},
	} {
		if math.IsNaN(s.value) || s.value < 0 {
			return core.NewConfigurationError(s.name, fmt.Sprintf("must be non-negative, got %v", s.value))
		}
	}
	return nil
}

// GroupEffect is one group's intercept/slope pair, drawn from (or
// estimated under) the shared hyperparameter distributions.
type GroupEffect struct {
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
}

// GroupEffects holds one GroupEffect per group, indexed by group id.
type GroupEffects []GroupEffect

// Observation is one measured (or simulated) data point. YearCentered is
// the hinge-transformed predictor and must stay consistent with the
// changepoint stored on the owning Dataset.
type Observation struct {
	GroupID      int     `json:"group_id"`
	Year         float64 `json:"year"`
	YearCentered float64 `json:"year_centered"`
	Flow         float64 `json:"flow"`
}

// Dataset is an ordered sequence of observations plus the group count and
// the changepoint they were centered on. Datasets are created once and
// read thereafter; regeneration produces a fresh instance.
type Dataset struct {
	Observations []Observation  `json:"observations"`
	GroupCount   int            `json:"group_count"`
	Changepoint  float64        `json:"changepoint"`
	Labels       []core.SiteKey `json:"labels,omitempty"`
}

// Validate checks the dataset invariants: every group id in
// [0, GroupCount) and every centered predictor consistent with the
// stored changepoint.
func (d Dataset) Validate() error {
	if d.GroupCount < 1 {
		return core.NewConfigurationError("group_count", fmt.Sprintf("must be positive, got %d", d.GroupCount))
	}
	for i, obs := range d.Observations {
		if obs.GroupID < 0 || obs.GroupID >= d.GroupCount {
			return core.NewConfigurationError("group_id",
				fmt.Sprintf("observation %d references group %d outside [0,%d)", i, obs.GroupID, d.GroupCount))
		}
		if got, want := obs.YearCentered, Hinge(obs.Year, d.Changepoint); got != want {
			return core.NewConfigurationError("year_centered",
				fmt.Sprintf("observation %d has %v, changepoint %v implies %v", i, got, d.Changepoint, want))
		}
	}
	return nil
}

// GroupResponses returns each group's responses in observation order.
func (d Dataset) GroupResponses() [][]float64 {
	out := make([][]float64, d.GroupCount)
	for _, obs := range d.Observations {
		out[obs.GroupID] = append(out[obs.GroupID], obs.Flow)
	}
	return out
}

// Shape extracts the fixed per-group predictor layout. Posterior
// predictive replicates reuse this layout verbatim so simulated datasets
// share the real design, including right-aligned unequal history lengths.
func (d Dataset) Shape() DesignShape {
	predictors := make([][]float64, d.GroupCount)
	for _, obs := range d.Observations {
		predictors[obs.GroupID] = append(predictors[obs.GroupID], obs.YearCentered)
	}
	return DesignShape{
		GroupCount:  d.GroupCount,
		Changepoint: d.Changepoint,
		Predictors:  predictors,
	}
}

// DesignShape is the predictor layout of a dataset: per group, the
// centered predictor values its observations sit at.
type DesignShape struct {
	GroupCount  int         `json:"group_count"`
	Changepoint float64     `json:"changepoint"`
	Predictors  [][]float64 `json:"predictors"`
}

// ObservationCount sums the per-group design sizes.
func (s DesignShape) ObservationCount() int {
	n := 0
	for _, p := range s.Predictors {
		n += len(p)
	}
	return n
}

// Validate checks the shape is usable for simulation.
func (s DesignShape) Validate() error {
	if s.GroupCount < 1 {
		return core.NewConfigurationError("group_count", fmt.Sprintf("must be positive, got %d", s.GroupCount))
	}
	if len(s.Predictors) != s.GroupCount {
		return core.NewConfigurationError("predictors",
			fmt.Sprintf("have %d groups, group_count is %d", len(s.Predictors), s.GroupCount))
	}
	return nil
}
