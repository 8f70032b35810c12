package ports

import (
	"github.com/willpearse/bayesianflows/domain/report"
)

// Renderer is the rendering sink: it consumes the core's structured
// reports and produces display output. The core makes no assumption
// about how reports are displayed.
type Renderer interface {
	RenderRecovery(rep report.RecoveryReport) ([]byte, error)
	RenderComparison(rep report.ComparisonReport) ([]byte, error)
}
