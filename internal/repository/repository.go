package repository

import (
	"context"

	"github.com/truelectro/image-resampler/internal/models"
)

// Repository records batch-run summaries for later inspection. Recording is
// best effort; the driver logs failures and moves on.
type Repository interface {
	RecordRun(ctx context.Context, run *models.BatchRun) error
	ListRuns(ctx context.Context, batchID string) ([]models.BatchRun, error)
}

// Noop is used when no database is configured.
type Noop struct{}

func (Noop) RecordRun(context.Context, *models.BatchRun) error { return nil }

func (Noop) ListRuns(context.Context, string) ([]models.BatchRun, error) { return nil, nil }
