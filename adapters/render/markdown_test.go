package render

import (
	"strings"
	"testing"

	"github.com/willpearse/bayesianflows/domain/report"
)

func TestRenderRecovery(t *testing.T) {
	rep := report.RecoveryReport{
		DrawCount:         1000,
		GroupCoverageRate: 0.95,
		Parameters: []report.ParameterRecovery{
			{
				Name:          "mu_slope",
				Truth:         -0.5,
				PointEstimate: -0.48,
				Error:         0.02,
				AbsError:      0.02,
				Covered:       true,
				Quantiles: []report.QuantileValue{
					{Prob: 0.025, Value: -0.7},
					{Prob: 0.975, Value: -0.3},
				},
			},
		},
	}

	md, err := NewMarkdownRenderer().RenderRecovery(rep)
	if err != nil {
		t.Fatalf("RenderRecovery failed: %v", err)
	}

	out := string(md)
	for _, want := range []string{"# Parameter recovery", "mu_slope", "0.95", "| parameter |"} {
		if !strings.Contains(out, want) {
			t.Errorf("Rendered recovery missing %q:\n%s", want, out)
		}
	}
}

func TestRenderComparisonUndefinedCells(t *testing.T) {
	rep := report.ComparisonReport{
		Statistic: "sd",
		Groups: []report.GroupComparison{
			{GroupID: 0, Empirical: 2.5, SimMean: 2.4, SimStdDev: 0.3, Rank: 0.62, ZScore: 0.33, DefinedReplicates: 1000},
			{GroupID: 1, Empirical: report.Undefined(), SimMean: report.Undefined(),
				SimStdDev: report.Undefined(), Rank: report.Undefined(), ZScore: report.Undefined()},
		},
	}

	md, err := NewMarkdownRenderer().RenderComparison(rep)
	if err != nil {
		t.Fatalf("RenderComparison failed: %v", err)
	}

	out := string(md)
	if !strings.Contains(out, "Posterior predictive check: sd") {
		t.Errorf("Rendered comparison missing title:\n%s", out)
	}
	// Marker values render as a word, never as NaN.
	if !strings.Contains(out, "undefined") {
		t.Errorf("Expected undefined cells rendered explicitly:\n%s", out)
	}
	if strings.Contains(out, "NaN") {
		t.Errorf("Raw NaN leaked into the report:\n%s", out)
	}
}

func TestToHTML(t *testing.T) {
	md := []byte("# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	html := string(ToHTML(md))

	if !strings.Contains(html, "<h1") {
		t.Errorf("Expected a heading in HTML output:\n%s", html)
	}
	if !strings.Contains(html, "<table") {
		t.Errorf("Expected the table extension active:\n%s", html)
	}
}
