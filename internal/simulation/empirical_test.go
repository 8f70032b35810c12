package simulation

import (
	"math"
	"testing"

	"github.com/willpearse/bayesianflows/domain/core"
	"github.com/willpearse/bayesianflows/domain/report"
)

func testDistribution() report.SummaryDistribution {
	// Two groups, five replicates. Group 0 values 1..5, group 1 fixed.
	return report.SummaryDistribution{
		Statistic:  "sd",
		GroupCount: 2,
		Values: [][]float64{
			{1, 10},
			{2, 10},
			{3, 10},
			{4, 10},
			{5, 10},
		},
	}
}

func TestEmpiricalComparatorRank(t *testing.T) {
	cmp, err := NewEmpiricalComparator(nil)
	if err != nil {
		t.Fatalf("NewEmpiricalComparator failed: %v", err)
	}

	rep, err := cmp.Assess(testDistribution(), []float64{3, 10})
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}
	if rep.Statistic != "sd" {
		t.Errorf("Expected statistic name carried through, got %q", rep.Statistic)
	}
	if len(rep.Groups) != 2 {
		t.Fatalf("Expected 2 group comparisons, got %d", len(rep.Groups))
	}

	g0 := rep.Groups[0]
	// Three of five simulated values are <= 3.
	if g0.Rank != 0.6 {
		t.Errorf("Expected rank 0.6, got %v", g0.Rank)
	}
	if g0.SimMean != 3 {
		t.Errorf("Expected simulated mean 3, got %v", g0.SimMean)
	}
	// Sample sd of 1..5 is sqrt(2.5); the empirical value sits at the mean.
	if math.Abs(g0.SimStdDev-math.Sqrt(2.5)) > 1e-12 {
		t.Errorf("Expected simulated sd sqrt(2.5), got %v", g0.SimStdDev)
	}
	if g0.ZScore != 0 {
		t.Errorf("Expected z-score 0 at the simulated mean, got %v", g0.ZScore)
	}
	if g0.DefinedReplicates != 5 {
		t.Errorf("Expected 5 defined replicates, got %d", g0.DefinedReplicates)
	}

	// Group 1 has zero simulated spread: rank defined, z-score not.
	g1 := rep.Groups[1]
	if g1.Rank != 1 {
		t.Errorf("Expected rank 1 for value at the constant, got %v", g1.Rank)
	}
	if !report.IsUndefined(g1.ZScore) {
		t.Errorf("Expected undefined z-score for zero spread, got %v", g1.ZScore)
	}
}

func TestEmpiricalComparatorExtremes(t *testing.T) {
	cmp, _ := NewEmpiricalComparator(nil)
	rep, err := cmp.Assess(testDistribution(), []float64{0.5, 100})
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}

	if rep.Groups[0].Rank != 0 {
		t.Errorf("Expected rank 0 below all simulated values, got %v", rep.Groups[0].Rank)
	}
	if rep.Groups[1].Rank != 1 {
		t.Errorf("Expected rank 1 above all simulated values, got %v", rep.Groups[1].Rank)
	}
}

func TestEmpiricalComparatorUndefined(t *testing.T) {
	cmp, _ := NewEmpiricalComparator(nil)

	// Undefined empirical statistic: positions become markers, no error.
	rep, err := cmp.Assess(testDistribution(), []float64{report.Undefined(), 10})
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}
	if !report.IsUndefined(rep.Groups[0].Rank) || !report.IsUndefined(rep.Groups[0].ZScore) {
		t.Error("Expected marker positions for undefined empirical statistic")
	}

	// All-undefined simulated group: same marker treatment.
	dist := report.SummaryDistribution{
		Statistic:  "sd",
		GroupCount: 1,
		Values:     [][]float64{{report.Undefined()}, {report.Undefined()}},
	}
	rep, err = cmp.Assess(dist, []float64{2})
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}
	if !report.IsUndefined(rep.Groups[0].Rank) {
		t.Error("Expected marker rank when no replicate is defined")
	}
	if rep.Groups[0].DefinedReplicates != 0 {
		t.Errorf("Expected 0 defined replicates, got %d", rep.Groups[0].DefinedReplicates)
	}
}

func TestEmpiricalComparatorShapeCheck(t *testing.T) {
	cmp, _ := NewEmpiricalComparator(nil)
	_, err := cmp.Assess(testDistribution(), []float64{1})
	if !core.IsConfigurationError(err) {
		t.Errorf("Expected group-count mismatch to fail, got %v", err)
	}
}

func TestEmpiricalComparatorIdempotence(t *testing.T) {
	cmp, _ := NewEmpiricalComparator(nil)
	empirical := []float64{2.5, 10}

	a, err := cmp.Assess(testDistribution(), empirical)
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}
	b, err := cmp.Assess(testDistribution(), empirical)
	if err != nil {
		t.Fatalf("Assess failed: %v", err)
	}
	for g := range a.Groups {
		if a.Groups[g].Rank != b.Groups[g].Rank || a.Groups[g].SimMean != b.Groups[g].SimMean {
			t.Fatalf("Group %d differs across identical assessments", g)
		}
	}
}
