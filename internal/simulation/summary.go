package simulation

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/willpearse/bayesianflows/domain/core"
	"github.com/willpearse/bayesianflows/domain/report"
)

// SummaryFn reduces one group's responses to a single statistic value.
// When the statistic is not computable for the group (e.g. a standard
// deviation over fewer than two observations) it returns the Undefined
// marker rather than failing: that case is expected during posterior
// predictive simulation and must never crash a replicate.
type SummaryFn func(responses []float64) float64

// GroupStdDev is the sample standard deviation of a group's responses.
func GroupStdDev(responses []float64) float64 {
	if len(responses) < 2 {
		return report.Undefined()
	}
	sd, err := stats.StandardDeviationSample(responses)
	if err != nil {
		return report.Undefined()
	}
	return sd
}

// GroupMean is the mean of a group's responses.
func GroupMean(responses []float64) float64 {
	m, err := stats.Mean(responses)
	if err != nil {
		return report.Undefined()
	}
	return m
}

// GroupMax is the largest response in a group.
func GroupMax(responses []float64) float64 {
	m, err := stats.Max(responses)
	if err != nil {
		return report.Undefined()
	}
	return m
}

// summaryRegistry maps CLI/config statistic names to their functions.
var summaryRegistry = map[string]SummaryFn{
	"sd":   GroupStdDev,
	"mean": GroupMean,
	"max":  GroupMax,
}

// LookupSummary resolves a statistic by name.
func LookupSummary(name string) (SummaryFn, error) {
	fn, ok := summaryRegistry[name]
	if !ok {
		return nil, core.NewConfigurationError("statistic", fmt.Sprintf("unknown statistic %q", name))
	}
	return fn, nil
}

// SummaryNames lists the registered statistic names.
func SummaryNames() []string {
	names := make([]string, 0, len(summaryRegistry))
	for name := range summaryRegistry {
		names = append(names, name)
	}
	return names
}

// ApplySummary computes a statistic vector, one entry per group, from
// per-group response slices.
func ApplySummary(fn SummaryFn, groups [][]float64) []float64 {
	out := make([]float64, len(groups))
	for i, g := range groups {
		out[i] = fn(g)
	}
	return out
}
