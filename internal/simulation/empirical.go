package simulation

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/willpearse/bayesianflows/domain/core"
	"github.com/willpearse/bayesianflows/domain/report"
)

// EmpiricalComparator positions real-data statistics inside a simulated
// summary distribution. Like the recovery comparator it is pure: no
// hidden state, identical inputs give identical reports.
type EmpiricalComparator struct {
	quantiles []float64
}

// NewEmpiricalComparator reports simulated quantiles at the given levels
// (DefaultQuantiles when empty).
func NewEmpiricalComparator(quantiles []float64) (*EmpiricalComparator, error) {
	if len(quantiles) == 0 {
		quantiles = DefaultQuantiles
	}
	for i, q := range quantiles {
		if q <= 0 || q >= 1 {
			return nil, core.NewConfigurationError("quantiles", fmt.Sprintf("level %v outside (0,1)", q))
		}
		if i > 0 && q < quantiles[i-1] {
			return nil, core.NewConfigurationError("quantiles", "levels must be non-decreasing")
		}
	}
	owned := make([]float64, len(quantiles))
	copy(owned, quantiles)
	return &EmpiricalComparator{quantiles: owned}, nil
}

// Assess computes, per group, the empirical rank and z-score of the real
// statistic within the simulated distribution, plus the distribution's
// own summary. It never declares pass/fail: interpretation is the report
// consumer's policy decision.
func (c *EmpiricalComparator) Assess(sim report.SummaryDistribution, empirical []float64) (report.ComparisonReport, error) {
	if len(empirical) != sim.GroupCount {
		return report.ComparisonReport{}, core.NewConfigurationError("empirical",
			fmt.Sprintf("have %d group statistics, distribution has %d groups", len(empirical), sim.GroupCount))
	}

	rep := report.ComparisonReport{Statistic: sim.Statistic}
	for g := 0; g < sim.GroupCount; g++ {
		rep.Groups = append(rep.Groups, c.assessGroup(g, sim.GroupValues(g), empirical[g]))
	}
	return rep, nil
}

func (c *EmpiricalComparator) assessGroup(groupID int, simulated []float64, empirical float64) report.GroupComparison {
	cmp := report.GroupComparison{
		GroupID:           groupID,
		Empirical:         empirical,
		Rank:              report.Undefined(),
		ZScore:            report.Undefined(),
		SimMean:           report.Undefined(),
		SimStdDev:         report.Undefined(),
		DefinedReplicates: len(simulated),
	}

	// An all-undefined group (or an undefined empirical statistic)
	// yields marker positions, never an error.
	if len(simulated) == 0 || report.IsUndefined(empirical) {
		return cmp
	}

	below := 0
	for _, v := range simulated {
		if v <= empirical {
			below++
		}
	}
	cmp.Rank = float64(below) / float64(len(simulated))

	if mean, err := stats.Mean(simulated); err == nil {
		cmp.SimMean = mean
	}
	if len(simulated) >= 2 {
		if sd, err := stats.StandardDeviationSample(simulated); err == nil {
			cmp.SimStdDev = sd
			if sd > 0 {
				cmp.ZScore = (empirical - cmp.SimMean) / sd
			}
		}
	}

	for _, q := range c.quantiles {
		value, err := stats.Percentile(simulated, q*100)
		if err != nil {
			value = report.Undefined()
		}
		cmp.SimQuantiles = append(cmp.SimQuantiles, report.QuantileValue{Prob: q, Value: value})
	}

	return cmp
}
