package ports

import (
	"context"

	"github.com/willpearse/bayesianflows/domain/model"
)

// FitData carries the named data arrays the inference engine consumes:
// one entry per observation, predictor already hinge-transformed.
type FitData struct {
	GroupID     []int     `json:"group_id"`
	Predictor   []float64 `json:"predictor"`
	Response    []float64 `json:"response"`
	GroupCount  int       `json:"group_count"`
	Changepoint float64   `json:"changepoint"`
}

// NewFitData flattens a dataset into the engine's array layout.
func NewFitData(d model.Dataset) FitData {
	data := FitData{
		GroupID:     make([]int, len(d.Observations)),
		Predictor:   make([]float64, len(d.Observations)),
		Response:    make([]float64, len(d.Observations)),
		GroupCount:  d.GroupCount,
		Changepoint: d.Changepoint,
	}
	for i, obs := range d.Observations {
		data.GroupID[i] = obs.GroupID
		data.Predictor[i] = obs.YearCentered
		data.Response[i] = obs.Flow
	}
	return data
}

// FitRequest bundles everything the boundary serializes for one fit.
type FitRequest struct {
	Model  model.ModelSpec     `json:"model"`
	Data   FitData             `json:"data"`
	Config model.SamplerConfig `json:"config"`
}

// Sampler is the uninterpreted boundary to the external Bayesian
// inference engine. Implementations serialize the request, invoke the
// engine, and deserialize draws back; they guarantee structural
// well-formedness of the result (every declared parameter present,
// consistent draw count) and nothing about its statistical validity.
// Engine failures surface as core.ErrInference with the engine's
// diagnostics attached and are never retried here: retrying a stochastic
// sampler without diagnosis is the caller's decision to make.
type Sampler interface {
	Fit(ctx context.Context, req FitRequest) (*model.PosteriorSample, error)
}
