package ports

import (
	"context"

	"github.com/willpearse/bayesianflows/domain/core"
)

// RunRecord is a stored validation run: the structured report payload
// plus enough metadata to list and replay it.
type RunRecord struct {
	ID          core.RunID     `json:"id" db:"id"`
	Kind        core.RunKind   `json:"kind" db:"kind"`
	Fingerprint core.Hash      `json:"fingerprint" db:"fingerprint"`
	Payload     []byte         `json:"payload" db:"payload"`
	CreatedAt   core.Timestamp `json:"created_at" db:"created_at"`
}

// RunRepository persists validation runs for later inspection.
type RunRepository interface {
	Save(ctx context.Context, rec RunRecord) error
	Get(ctx context.Context, id core.RunID) (RunRecord, error)
	List(ctx context.Context, limit int) ([]RunRecord, error)
}
