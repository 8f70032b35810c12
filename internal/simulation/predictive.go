package simulation

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/willpearse/bayesianflows/domain/core"
	"github.com/willpearse/bayesianflows/domain/model"
	"github.com/willpearse/bayesianflows/domain/report"
	"github.com/willpearse/bayesianflows/ports"
)

// PredictiveRequest configures one posterior predictive simulation.
type PredictiveRequest struct {
	// Estimates are the posterior hyperparameter means extracted from a
	// fit; the simulator does not re-derive them.
	Estimates model.HyperParameters
	// Shape fixes each replicate's predictor layout to the real
	// dataset's design, right-alignment included. Sample sizes are not
	// resampled.
	Shape      model.DesignShape
	Statistic  string
	Summary    SummaryFn
	Replicates int
	RunID      core.RunID
	Seed       int64
}

// PosteriorPredictiveSimulator regenerates synthetic datasets from
// posterior point estimates and aggregates a summary statistic across
// replicates. Replicates are mutually independent: each draws a fresh
// per-group effect set on its own RNG stream and carries no state into
// the next.
type PosteriorPredictiveSimulator struct {
	rng     ports.RNGPort
	workers int
}

// NewPosteriorPredictiveSimulator creates a simulator running replicates
// on a bounded worker pool.
func NewPosteriorPredictiveSimulator(rng ports.RNGPort) *PosteriorPredictiveSimulator {
	return &PosteriorPredictiveSimulator{
		rng:     rng,
		workers: runtime.GOMAXPROCS(0),
	}
}

// Simulate runs the replicate loop. The returned distribution has exactly
// Replicates rows of Shape.GroupCount entries each; row order carries no
// meaning. Cancellation is cooperative, checked at replicate boundaries.
func (s *PosteriorPredictiveSimulator) Simulate(ctx context.Context, req PredictiveRequest) (report.SummaryDistribution, error) {
	if req.Replicates < 1 {
		return report.SummaryDistribution{}, core.NewConfigurationError("replicates",
			fmt.Sprintf("must be >= 1, got %d", req.Replicates))
	}
	if err := req.Shape.Validate(); err != nil {
		return report.SummaryDistribution{}, err
	}
	if err := req.Estimates.Validate(); err != nil {
		return report.SummaryDistribution{}, err
	}
	if req.Summary == nil {
		return report.SummaryDistribution{}, core.NewConfigurationError("summary_fn", "must be set")
	}

	values := make([][]float64, req.Replicates)
	sem := semaphore.NewWeighted(int64(s.workers))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i := 0; i < req.Replicates; i++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled between replicates; abandon the rest.
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			break
		}

		wg.Add(1)
		go func(replicate int) {
			defer wg.Done()
			defer sem.Release(1)

			row, err := s.replicate(ctx, req, replicate)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			values[replicate] = row
		}(i)
	}

	wg.Wait()
	if firstErr != nil {
		return report.SummaryDistribution{}, firstErr
	}

	return report.SummaryDistribution{
		Statistic:  req.Statistic,
		GroupCount: req.Shape.GroupCount,
		Values:     values,
	}, nil
}

// replicate draws one fresh effect set, simulates responses over the
// fixed design, and reduces each group with the summary function. This is
// the same generative step the truth generator uses, minus sample-size
// resampling.
func (s *PosteriorPredictiveSimulator) replicate(ctx context.Context, req PredictiveRequest, index int) ([]float64, error) {
	rng, err := s.rng.Stream(ctx, req.RunID.String(), "posterior-predictive",
		fmt.Sprintf("replicate-%d", index), req.Seed)
	if err != nil {
		return nil, err
	}

	groups := make([][]float64, req.Shape.GroupCount)
	for g := 0; g < req.Shape.GroupCount; g++ {
		effect := model.GroupEffect{
			Intercept: drawNormal(rng, req.Estimates.MuIntercept, req.Estimates.SigmaIntercept),
			Slope:     drawNormal(rng, req.Estimates.MuSlope, req.Estimates.SigmaSlope),
		}
		responses := make([]float64, len(req.Shape.Predictors[g]))
		for k, x := range req.Shape.Predictors[g] {
			responses[k] = effect.Intercept + effect.Slope*x + drawNormal(rng, 0, req.Estimates.SigmaResidual)
		}
		groups[g] = responses
	}

	return ApplySummary(req.Summary, groups), nil
}
