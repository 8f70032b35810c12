package ports

import (
	"context"

	"github.com/willpearse/bayesianflows/domain/core"
	"github.com/willpearse/bayesianflows/domain/model"
)

// FlowRecord is one ingested row before group ids are assigned.
type FlowRecord struct {
	Site core.SiteKey
	Year float64
	Flow float64
}

// DatasetReader loads observational records from an external source and
// assembles them into a Dataset. The site-label to dense group-id mapping
// is the reader's responsibility and must be stable across reads of the
// same source.
type DatasetReader interface {
	Read(ctx context.Context, source string, changepoint float64) (model.Dataset, error)
}
