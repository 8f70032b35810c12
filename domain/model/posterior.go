package model

import (
	"fmt"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/willpearse/bayesianflows/domain/core"
)

// Hyperparameter names as they travel across the inference boundary.
const (
	ParamMuIntercept    = "mu_intercept"
	ParamSigmaIntercept = "sigma_intercept"
	ParamMuSlope        = "mu_slope"
	ParamSigmaSlope     = "sigma_slope"
	ParamSigmaResidual  = "sigma_residual"
)

// InterceptParam returns the wire name of group g's intercept.
func InterceptParam(g int) string { return fmt.Sprintf("intercept[%d]", g) }

// SlopeParam returns the wire name of group g's slope.
func SlopeParam(g int) string { return fmt.Sprintf("slope[%d]", g) }

// HyperParams lists the five population-level parameter names.
func HyperParams() []string {
	return []string{ParamMuIntercept, ParamSigmaIntercept, ParamMuSlope, ParamSigmaSlope, ParamSigmaResidual}
}

// ModelSpec declares the parameters the inference engine must return for
// a model, so responses can be shape-checked before anything downstream
// consumes them. The prior family is fixed by the model identifier and is
// not runtime-configurable here.
type ModelSpec struct {
	Name             string   `json:"name"`
	GroupCount       int      `json:"group_count"`
	ObservationCount int      `json:"observation_count"`
	Parameters       []string `json:"parameters"`
}

// HingeModelSpec declares the parameter set for the two-level hinge regression:
// five hyperparameters plus an intercept and slope per group.
func HingeModelSpec(groupCount, observationCount int) ModelSpec {
	params := HyperParams()
	for g := 0; g < groupCount; g++ {
		params = append(params, InterceptParam(g), SlopeParam(g))
	}
	return ModelSpec{
		Name:             "hinge_hierarchical",
		GroupCount:       groupCount,
		ObservationCount: observationCount,
		Parameters:       params,
	}
}

// SamplerConfig is passed through to the external engine uninterpreted:
// the adapter does not manage chain concurrency itself. Timeout bounds
// the whole fit call.
type SamplerConfig struct {
	Chains     int           `json:"chains"`
	Iterations int           `json:"iterations"`
	Warmup     int           `json:"warmup"`
	Timeout    time.Duration `json:"timeout"`
}

// Validate enforces chains >= 1 and iterations >= warmup >= 0.
func (c SamplerConfig) Validate() error {
	if c.Chains < 1 {
		return core.NewConfigurationError("chains", fmt.Sprintf("must be >= 1, got %d", c.Chains))
	}
	if c.Warmup < 0 {
		return core.NewConfigurationError("warmup", fmt.Sprintf("must be >= 0, got %d", c.Warmup))
	}
	if c.Iterations < c.Warmup {
		return core.NewConfigurationError("iterations",
			fmt.Sprintf("must be >= warmup, got %d < %d", c.Iterations, c.Warmup))
	}
	return nil
}

// PosteriorSample holds the engine's draws: one equal-length slice per
// declared parameter. Owned by whoever invoked the fit; consumers only
// read it.
type PosteriorSample struct {
	Draws map[string][]float64 `json:"draws"`
}

// DrawCount returns the shared length of the draw arrays, or 0 for an
// empty sample.
func (p *PosteriorSample) DrawCount() int {
	for _, d := range p.Draws {
		return len(d)
	}
	return 0
}

// ValidateShape checks the sample against a model spec: every declared
// parameter present with a consistent, positive draw count.
func (p *PosteriorSample) ValidateShape(spec ModelSpec) error {
	n := -1
	for _, name := range spec.Parameters {
		draws, ok := p.Draws[name]
		if !ok {
			return core.NewShapeMismatchError(name, "declared in model spec but absent from response")
		}
		if len(draws) == 0 {
			return core.NewShapeMismatchError(name, "has zero draws")
		}
		if n == -1 {
			n = len(draws)
		} else if len(draws) != n {
			return core.NewShapeMismatchError(name,
				fmt.Sprintf("has %d draws, expected %d", len(draws), n))
		}
	}
	return nil
}

// Mean returns the posterior mean of a named parameter.
func (p *PosteriorSample) Mean(name string) (float64, error) {
	draws, ok := p.Draws[name]
	if !ok {
		return 0, core.NewShapeMismatchError(name, "no draws present")
	}
	m, err := stats.Mean(draws)
	if err != nil {
		return 0, core.NewShapeMismatchError(name, err.Error())
	}
	return m, nil
}

// HyperMeans collapses the five hyperparameter draw sequences to their
// posterior means. This is the sufficient summary the posterior
// predictive simulator consumes; it deliberately ignores posterior
// uncertainty in the means.
func (p *PosteriorSample) HyperMeans() (HyperParameters, error) {
	var h HyperParameters
	targets := []struct {
		name string
		dst  *float64
	}{
		{ParamMuIntercept, &h.MuIntercept},
		{ParamSigmaIntercept, &h.SigmaIntercept},
		{ParamMuSlope, &h.MuSlope},
		{ParamSigmaSlope, &h.SigmaSlope},
		{ParamSigmaResidual, &h.SigmaResidual},
	}
	for _, t := range targets {
		m, err := p.Mean(t.name)
		if err != nil {
			return HyperParameters{}, err
		}
		*t.dst = m
	}
	return h, nil
}

// GroupMeans returns posterior-mean group effects for groupCount groups.
func (p *PosteriorSample) GroupMeans(groupCount int) (GroupEffects, error) {
	effects := make(GroupEffects, groupCount)
	for g := 0; g < groupCount; g++ {
		intercept, err := p.Mean(InterceptParam(g))
		if err != nil {
			return nil, err
		}
		slope, err := p.Mean(SlopeParam(g))
		if err != nil {
			return nil, err
		}
		effects[g] = GroupEffect{Intercept: intercept, Slope: slope}
	}
	return effects, nil
}
