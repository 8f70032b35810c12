package heuristic

import (
	"context"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/willpearse/bayesianflows/domain/core"
	"github.com/willpearse/bayesianflows/domain/model"
	"github.com/willpearse/bayesianflows/ports"
)

// Engine is an in-process stand-in for the external inference service,
// used for offline runs and tests. It is NOT a posterior sampler: it
// fits each group by ordinary least squares, moment-matches the
// hyperparameters across groups, and emits draws by jittering those
// estimates with approximate standard errors. It satisfies the
// fit-given-data, return-draws contract, nothing more.
type Engine struct {
	rng  ports.RNGPort
	seed int64
}

// NewEngine creates the stand-in engine.
func NewEngine(rng ports.RNGPort, seed int64) *Engine {
	return &Engine{rng: rng, seed: seed}
}

// Fit produces a structurally valid PosteriorSample for the hinge model.
func (e *Engine) Fit(ctx context.Context, req ports.FitRequest) (*model.PosteriorSample, error) {
	if err := req.Config.Validate(); err != nil {
		return nil, err
	}
	if len(req.Data.Response) == 0 {
		return nil, core.NewInferenceError("heuristic", "empty dataset", nil)
	}

	rng, err := e.rng.SeededStream(ctx, "heuristic-engine", e.seed)
	if err != nil {
		return nil, err
	}

	groups := splitGroups(req.Data)
	fits := make([]groupFit, len(groups))
	for g, gd := range groups {
		fits[g] = fitGroup(gd, req.Data)
	}

	intercepts := make([]float64, len(fits))
	slopes := make([]float64, len(fits))
	var ssr float64
	var n int
	for g, f := range fits {
		intercepts[g] = f.intercept
		slopes[g] = f.slope
		ssr += f.ssr
		n += len(groups[g].x)
	}

	sigmaResid := 1.0
	if dof := n - 2*len(fits); dof > 0 {
		sigmaResid = math.Sqrt(ssr / float64(dof))
	}

	hyper := model.HyperParameters{
		MuIntercept:    stat.Mean(intercepts, nil),
		SigmaIntercept: sampleStdDev(intercepts),
		MuSlope:        stat.Mean(slopes, nil),
		SigmaSlope:     sampleStdDev(slopes),
		SigmaResidual:  sigmaResid,
	}

	drawCount := req.Config.Chains * (req.Config.Iterations - req.Config.Warmup)
	if drawCount < 1 {
		drawCount = 1
	}

	groupCount := float64(len(fits))
	sample := &model.PosteriorSample{Draws: map[string][]float64{}}
	emit := func(name string, center, scale float64, positive bool) {
		draws := make([]float64, drawCount)
		for i := range draws {
			v := jitter(rng, center, scale)
			if positive && v < 0 {
				v = -v
			}
			draws[i] = v
		}
		sample.Draws[name] = draws
	}

	emit(model.ParamMuIntercept, hyper.MuIntercept, hyper.SigmaIntercept/math.Sqrt(groupCount), false)
	emit(model.ParamSigmaIntercept, hyper.SigmaIntercept, hyper.SigmaIntercept/math.Sqrt(2*groupCount), true)
	emit(model.ParamMuSlope, hyper.MuSlope, hyper.SigmaSlope/math.Sqrt(groupCount), false)
	emit(model.ParamSigmaSlope, hyper.SigmaSlope, hyper.SigmaSlope/math.Sqrt(2*groupCount), true)
	emit(model.ParamSigmaResidual, hyper.SigmaResidual, hyper.SigmaResidual/math.Sqrt(2*float64(n)), true)
	for g, f := range fits {
		emit(model.InterceptParam(g), f.intercept, f.interceptSE(sigmaResid), false)
		emit(model.SlopeParam(g), f.slope, f.slopeSE(sigmaResid), false)
	}

	if err := sample.ValidateShape(req.Model); err != nil {
		return nil, err
	}
	return sample, nil
}

type groupData struct {
	x []float64
	y []float64
}

func splitGroups(data ports.FitData) []groupData {
	groups := make([]groupData, data.GroupCount)
	for i, g := range data.GroupID {
		groups[g].x = append(groups[g].x, data.Predictor[i])
		groups[g].y = append(groups[g].y, data.Response[i])
	}
	return groups
}

type groupFit struct {
	intercept float64
	slope     float64
	ssr       float64
	n         int
	sxx       float64
	xbar      float64
}

// fitGroup runs OLS on one group; groups too small or degenerate to
// regress borrow the pooled fit across all observations.
func fitGroup(gd groupData, all ports.FitData) groupFit {
	x, y := gd.x, gd.y
	if len(x) < 2 || allEqual(x) {
		x, y = all.Predictor, all.Response
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) {
		alpha, beta = stat.Mean(y, nil), 0
	}

	f := groupFit{intercept: alpha, slope: beta, n: len(gd.x)}
	// An empty group carries only the borrowed estimates; averaging
	// nothing would poison xbar with NaN.
	if len(gd.x) > 0 {
		f.xbar = stat.Mean(gd.x, nil)
	}
	for i := range gd.x {
		resid := gd.y[i] - (alpha + beta*gd.x[i])
		f.ssr += resid * resid
		f.sxx += (gd.x[i] - f.xbar) * (gd.x[i] - f.xbar)
	}
	return f
}

func (f groupFit) slopeSE(sigmaResid float64) float64 {
	if f.sxx <= 0 {
		return sigmaResid
	}
	return sigmaResid / math.Sqrt(f.sxx)
}

func (f groupFit) interceptSE(sigmaResid float64) float64 {
	if f.n < 1 || f.sxx <= 0 {
		return sigmaResid
	}
	return sigmaResid * math.Sqrt(1/float64(f.n)+f.xbar*f.xbar/f.sxx)
}

func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

func allEqual(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

func jitter(rng *rand.Rand, center, scale float64) float64 {
	if scale <= 0 {
		return center
	}
	return distuv.Normal{Mu: center, Sigma: scale, Src: rng}.Rand()
}
