package render

import (
	"bytes"
	"fmt"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/willpearse/bayesianflows/domain/report"
)

// MarkdownRenderer renders reports as markdown tables. It is a pure
// consumer of the core's structured output; nothing upstream knows or
// cares how reports are displayed.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates the renderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// RenderRecovery renders a recovery report.
func (r *MarkdownRenderer) RenderRecovery(rep report.RecoveryReport) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# Parameter recovery\n\n")
	fmt.Fprintf(&buf, "Draws: %d. Per-group coverage rate: %.3f.\n\n", rep.DrawCount, rep.GroupCoverageRate)

	buf.WriteString("| parameter | truth | estimate | error | interval | covered |\n")
	buf.WriteString("|---|---|---|---|---|---|\n")
	for _, p := range rep.Parameters {
		lower, upper := intervalBounds(p.Quantiles)
		fmt.Fprintf(&buf, "| %s | %.4g | %.4g | %+.4g | [%.4g, %.4g] | %v |\n",
			p.Name, p.Truth, p.PointEstimate, p.Error, lower, upper, p.Covered)
	}
	return buf.Bytes(), nil
}

// RenderComparison renders a posterior predictive comparison report.
func (r *MarkdownRenderer) RenderComparison(rep report.ComparisonReport) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Posterior predictive check: %s\n\n", rep.Statistic)

	buf.WriteString("| group | empirical | sim mean | sim sd | rank | z | replicates |\n")
	buf.WriteString("|---|---|---|---|---|---|---|\n")
	for _, g := range rep.Groups {
		fmt.Fprintf(&buf, "| %d | %s | %s | %s | %s | %s | %d |\n",
			g.GroupID, cell(g.Empirical), cell(g.SimMean), cell(g.SimStdDev),
			cell(g.Rank), cell(g.ZScore), g.DefinedReplicates)
	}
	return buf.Bytes(), nil
}

// ToHTML converts rendered markdown into a standalone HTML fragment.
func ToHTML(md []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	return markdown.Render(p.Parse(md), renderer)
}

func cell(v float64) string {
	if report.IsUndefined(v) {
		return "undefined"
	}
	return fmt.Sprintf("%.4g", v)
}

func intervalBounds(qs []report.QuantileValue) (float64, float64) {
	if len(qs) == 0 {
		return report.Undefined(), report.Undefined()
	}
	return qs[0].Value, qs[len(qs)-1].Value
}
