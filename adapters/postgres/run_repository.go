package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/willpearse/bayesianflows/domain/core"
	apperrors "github.com/willpearse/bayesianflows/internal/errors"
	"github.com/willpearse/bayesianflows/ports"
)

// RunRepositoryImpl implements RunRepository for PostgreSQL
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new PostgreSQL run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

// Migrate creates the runs table if it does not exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS validation_runs (
			id          TEXT PRIMARY KEY,
			kind        TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			payload     JSONB NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return apperrors.Database(err, "create validation_runs table")
	}
	return nil
}

// Save stores one validation run.
func (r *RunRepositoryImpl) Save(ctx context.Context, rec ports.RunRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO validation_runs (id, kind, fingerprint, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.ID.String(), string(rec.Kind), rec.Fingerprint.String(), rec.Payload, rec.CreatedAt.Time())
	if err != nil {
		return apperrors.Database(err, "insert validation run")
	}
	return nil
}

// Get retrieves a run by id.
func (r *RunRepositoryImpl) Get(ctx context.Context, id core.RunID) (ports.RunRecord, error) {
	var row struct {
		ID          string    `db:"id"`
		Kind        string    `db:"kind"`
		Fingerprint string    `db:"fingerprint"`
		Payload     []byte    `db:"payload"`
		CreatedAt   time.Time `db:"created_at"`
	}
	err := r.db.GetContext(ctx, &row, `
		SELECT id, kind, fingerprint, payload, created_at
		FROM validation_runs
		WHERE id = $1
	`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return ports.RunRecord{}, core.ErrRunNotFound
	}
	if err != nil {
		return ports.RunRecord{}, apperrors.Database(err, "select validation run")
	}
	return ports.RunRecord{
		ID:          core.RunID(row.ID),
		Kind:        core.RunKind(row.Kind),
		Fingerprint: core.Hash(row.Fingerprint),
		Payload:     row.Payload,
		CreatedAt:   core.NewTimestamp(row.CreatedAt),
	}, nil
}

// List returns the most recent runs, newest first.
func (r *RunRepositoryImpl) List(ctx context.Context, limit int) ([]ports.RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, fingerprint, payload, created_at
		FROM validation_runs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, apperrors.Database(err, "list validation runs")
	}
	defer rows.Close()

	var out []ports.RunRecord
	for rows.Next() {
		var (
			id, kind, fingerprint string
			payload               []byte
			createdAt             time.Time
		)
		if err := rows.Scan(&id, &kind, &fingerprint, &payload, &createdAt); err != nil {
			return nil, apperrors.Database(err, "scan validation run")
		}
		out = append(out, ports.RunRecord{
			ID:          core.RunID(id),
			Kind:        core.RunKind(kind),
			Fingerprint: core.Hash(fingerprint),
			Payload:     payload,
			CreatedAt:   core.NewTimestamp(createdAt),
		})
	}
	return out, rows.Err()
}
