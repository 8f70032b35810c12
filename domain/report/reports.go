package report

import (
	"math"
)

// Undefined is the marker recorded when a summary statistic cannot be
// computed for a group (e.g. a standard deviation over one observation).
// It is an expected, tolerable value inside a SummaryDistribution, not an
// error, and is excluded from any aggregate that requires a number.
func Undefined() float64 {
	return math.NaN()
}

// IsUndefined reports whether v is the Undefined marker.
func IsUndefined(v float64) bool {
	return math.IsNaN(v)
}

// QuantileValue pairs a probability level with the empirical order
// statistic computed at it.
type QuantileValue struct {
	Prob  float64 `json:"prob"`
	Value float64 `json:"value"`
}

// ParameterRecovery aligns one generated truth value with its posterior
// summary.
type ParameterRecovery struct {
	Name          string          `json:"name"`
	Truth         float64         `json:"truth"`
	PointEstimate float64         `json:"point_estimate"`
	Quantiles     []QuantileValue `json:"quantiles"`
	// Error is the signed point-estimate error (estimate - truth).
	Error    float64 `json:"error"`
	AbsError float64 `json:"abs_error"`
	// Covered reports whether the truth falls inside the outermost
	// configured quantile pair.
	Covered bool `json:"covered"`
	// PerGroup marks group-level parameters, which feed the aggregate
	// coverage rate.
	PerGroup bool `json:"per_group"`
}

// RecoveryReport is the output of a simulate-fit-compare cycle:
// per-parameter recovery diagnostics plus an aggregate coverage rate
// over the per-group parameters.
type RecoveryReport struct {
	Parameters []ParameterRecovery `json:"parameters"`
	// GroupCoverageRate is the fraction of per-group parameters whose
	// credible interval contained the generating truth.
	GroupCoverageRate float64 `json:"group_coverage_rate"`
	DrawCount         int     `json:"draw_count"`
}

// SummaryDistribution collects one summary-statistic vector per simulated
// replicate. It is append-only while simulation runs and frozen once the
// replicate count is reached. Replicate order carries no meaning:
// consumers must treat the rows as an unordered multiset.
type SummaryDistribution struct {
	Statistic  string      `json:"statistic"`
	GroupCount int         `json:"group_count"`
	Values     [][]float64 `json:"values"`
}

// ReplicateCount returns the number of completed replicates.
func (d SummaryDistribution) ReplicateCount() int {
	return len(d.Values)
}

// GroupValues gathers the defined (non-marker) values for one group
// across all replicates.
func (d SummaryDistribution) GroupValues(group int) []float64 {
	out := make([]float64, 0, len(d.Values))
	for _, row := range d.Values {
		if group < len(row) && !IsUndefined(row[group]) {
			out = append(out, row[group])
		}
	}
	return out
}

// GroupComparison positions one group's real-data statistic against its
// simulated distribution. It reports position only; whether the position
// is "close enough" is the report consumer's call.
type GroupComparison struct {
	GroupID   int     `json:"group_id"`
	Empirical float64 `json:"empirical"`
	// Rank is the fraction of defined simulated values <= the empirical
	// value (an empirical CDF position in [0,1]).
	Rank float64 `json:"rank"`
	// ZScore standardizes the empirical value against the simulated
	// mean and spread; Undefined when the spread is zero or fewer than
	// two replicates are defined.
	ZScore            float64         `json:"z_score"`
	SimMean           float64         `json:"sim_mean"`
	SimStdDev         float64         `json:"sim_std_dev"`
	SimQuantiles      []QuantileValue `json:"sim_quantiles"`
	DefinedReplicates int             `json:"defined_replicates"`
}

// ComparisonReport is the posterior-predictive-check verdictless output:
// one positional comparison per group.
type ComparisonReport struct {
	Statistic string            `json:"statistic"`
	Groups    []GroupComparison `json:"groups"`
}
