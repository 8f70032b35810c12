package app

import (
	"context"
	"encoding/json"

	"github.com/willpearse/bayesianflows/domain/core"
	"github.com/willpearse/bayesianflows/ports"
)

// SaveCalibration persists a calibration result as a run record.
func SaveCalibration(ctx context.Context, repo ports.RunRepository, result *CalibrationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return repo.Save(ctx, ports.RunRecord{
		ID:          result.RunID,
		Kind:        core.RunCalibration,
		Fingerprint: result.Fingerprint,
		Payload:     payload,
		CreatedAt:   core.Now(),
	})
}

// SaveCheck persists a posterior predictive check result as a run record.
func SaveCheck(ctx context.Context, repo ports.RunRepository, result *CheckResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return repo.Save(ctx, ports.RunRecord{
		ID:          result.RunID,
		Kind:        core.RunCheck,
		Fingerprint: result.Fingerprint,
		Payload:     payload,
		CreatedAt:   core.Now(),
	})
}
