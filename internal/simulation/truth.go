package simulation

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/willpearse/bayesianflows/domain/core"
	"github.com/willpearse/bayesianflows/domain/model"
	"github.com/willpearse/bayesianflows/ports"
)

// TruthConfig drives synthetic dataset generation. Hyperparameters come
// either from fixed values (Hyper) or, when HyperPrior is set, from a
// draw against their generating distributions.
type TruthConfig struct {
	GroupCount int `json:"group_count"`
	// MinObs/MaxObs bound each group's sample size; n_g is drawn
	// uniformly from the inclusive integer range.
	MinObs int `json:"min_obs"`
	MaxObs int `json:"max_obs"`
	// EndYear is the shared last observation year. Groups observed for
	// fewer periods are right-aligned: they are missing only the
	// earliest years, never interior ones.
	EndYear     float64               `json:"end_year"`
	Changepoint float64               `json:"changepoint"`
	Hyper       model.HyperParameters `json:"hyper"`
	// HyperPrior, when non-nil, replaces Hyper with one draw per run;
	// the realized values are reported back in Truth.Hyper.
	HyperPrior *HyperPrior `json:"hyper_prior,omitempty"`
	Seed       int64       `json:"seed"`
}

// Validate runs all configuration checks eagerly, before any draw.
func (c TruthConfig) Validate() error {
	if c.GroupCount < 1 {
		return core.NewConfigurationError("group_count", fmt.Sprintf("must be >= 1, got %d", c.GroupCount))
	}
	if c.MinObs < 1 {
		return core.NewConfigurationError("min_obs", fmt.Sprintf("must be >= 1, got %d (a group with zero observations is rejected)", c.MinObs))
	}
	if c.MinObs > c.MaxObs {
		return core.NewConfigurationError("max_obs", fmt.Sprintf("range [%d,%d] is empty", c.MinObs, c.MaxObs))
	}
	if c.HyperPrior != nil {
		return c.HyperPrior.Validate()
	}
	return c.Hyper.Validate()
}

// PriorSpec is the generating distribution of one hyperparameter,
// Normal(Mu, Sigma). Sigma zero pins the draw at Mu.
type PriorSpec struct {
	Mu    float64 `json:"mu"`
	Sigma float64 `json:"sigma"`
}

func (p PriorSpec) validate(name string) error {
	if math.IsNaN(p.Mu) || math.IsNaN(p.Sigma) {
		return core.NewConfigurationError(name, "prior mu/sigma must not be NaN")
	}
	if p.Sigma < 0 {
		return core.NewConfigurationError(name, fmt.Sprintf("prior sigma must be >= 0, got %g", p.Sigma))
	}
	return nil
}

// HyperPrior gives each hyperparameter its own generating distribution.
// Scale hyperparameters draw half-normal (the normal draw is folded) so
// a realized truth is always a valid HyperParameters.
type HyperPrior struct {
	MuIntercept    PriorSpec `json:"mu_intercept"`
	SigmaIntercept PriorSpec `json:"sigma_intercept"`
	MuSlope        PriorSpec `json:"mu_slope"`
	SigmaSlope     PriorSpec `json:"sigma_slope"`
	SigmaResidual  PriorSpec `json:"sigma_residual"`
}

// Validate checks every component prior eagerly.
func (p HyperPrior) Validate() error {
	checks := []struct {
		name string
		spec PriorSpec
	}{
		{"hyper_prior.mu_intercept", p.MuIntercept},
		{"hyper_prior.sigma_intercept", p.SigmaIntercept},
		{"hyper_prior.mu_slope", p.MuSlope},
		{"hyper_prior.sigma_slope", p.SigmaSlope},
		{"hyper_prior.sigma_residual", p.SigmaResidual},
	}
	for _, c := range checks {
		if err := c.spec.validate(c.name); err != nil {
			return err
		}
	}
	return nil
}

// draw realizes one HyperParameters from the prior.
func (p HyperPrior) draw(rng *rand.Rand) model.HyperParameters {
	return model.HyperParameters{
		MuIntercept:    drawNormal(rng, p.MuIntercept.Mu, p.MuIntercept.Sigma),
		SigmaIntercept: math.Abs(drawNormal(rng, p.SigmaIntercept.Mu, p.SigmaIntercept.Sigma)),
		MuSlope:        drawNormal(rng, p.MuSlope.Mu, p.MuSlope.Sigma),
		SigmaSlope:     math.Abs(drawNormal(rng, p.SigmaSlope.Mu, p.SigmaSlope.Sigma)),
		SigmaResidual:  math.Abs(drawNormal(rng, p.SigmaResidual.Mu, p.SigmaResidual.Sigma)),
	}
}

// Truth is the generated ground truth a recovery comparison aligns the
// posterior against.
type Truth struct {
	Hyper  model.HyperParameters `json:"hyper"`
	Groups model.GroupEffects    `json:"groups"`
}

// TruthGenerator synthesizes datasets from known hyperparameters. It
// carries no hidden mutable state: all randomness flows through the
// seeded stream obtained per call, so a fixed seed reproduces the run.
type TruthGenerator struct {
	rng ports.RNGPort
}

// NewTruthGenerator creates a generator drawing from the given RNG port.
func NewTruthGenerator(rng ports.RNGPort) *TruthGenerator {
	return &TruthGenerator{rng: rng}
}

// Generate realizes the hyperparameters (fixed, or one prior draw),
// draws per-group effects from them, and synthesizes a right-aligned
// dataset around the changepoint. Truth reports the realized values.
func (g *TruthGenerator) Generate(ctx context.Context, cfg TruthConfig) (Truth, model.Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return Truth{}, model.Dataset{}, err
	}

	rng, err := g.rng.SeededStream(ctx, "truth-generator", cfg.Seed)
	if err != nil {
		return Truth{}, model.Dataset{}, err
	}

	hyper := cfg.Hyper
	if cfg.HyperPrior != nil {
		hyper = cfg.HyperPrior.draw(rng)
	}

	effects := make(model.GroupEffects, cfg.GroupCount)
	for i := range effects {
		effects[i] = model.GroupEffect{
			Intercept: drawNormal(rng, hyper.MuIntercept, hyper.SigmaIntercept),
			Slope:     drawNormal(rng, hyper.MuSlope, hyper.SigmaSlope),
		}
	}

	dataset := model.Dataset{
		GroupCount:  cfg.GroupCount,
		Changepoint: cfg.Changepoint,
	}
	for groupID, effect := range effects {
		n := cfg.MinObs
		if cfg.MaxObs > cfg.MinObs {
			n += rng.IntN(cfg.MaxObs - cfg.MinObs + 1)
		}
		// Contiguous integer years ending at the shared endpoint.
		for k := 0; k < n; k++ {
			year := cfg.EndYear - float64(n-1-k)
			centered := model.Hinge(year, cfg.Changepoint)
			dataset.Observations = append(dataset.Observations, model.Observation{
				GroupID:      groupID,
				Year:         year,
				YearCentered: centered,
				Flow:         effect.Intercept + effect.Slope*centered + drawNormal(rng, 0, hyper.SigmaResidual),
			})
		}
	}

	return Truth{Hyper: hyper, Groups: effects}, dataset, nil
}

// drawNormal samples Normal(mu, sigma). A zero sigma degenerates to mu so
// noise-free validation scenarios stay exact.
func drawNormal(rng *rand.Rand, mu, sigma float64) float64 {
	if sigma == 0 {
		return mu
	}
	return distuv.Normal{Mu: mu, Sigma: sigma, Src: rng}.Rand()
}
