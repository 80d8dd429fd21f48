package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/truelectro/image-resampler/internal/models"
)

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, dsn string) (*PostgresRepo, error) {
	if err := Migrate(dsn); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresRepo{pool: pool}, nil
}

func (r *PostgresRepo) RecordRun(ctx context.Context, run *models.BatchRun) error {
	query := `
		INSERT INTO batch_runs (batch_id, trace_id, format, total, finished, failed, skipped, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		run.BatchID,
		run.TraceID,
		run.Format,
		run.Total,
		run.Finished,
		run.Failed,
		run.Skipped,
		run.StartedAt,
		run.CompletedAt,
	)
	return err
}

func (r *PostgresRepo) ListRuns(ctx context.Context, batchID string) ([]models.BatchRun, error) {
	query := `
		SELECT batch_id, trace_id, format, total, finished, failed, skipped, started_at, completed_at
		FROM batch_runs
		WHERE batch_id = $1
		ORDER BY started_at
	`

	rows, err := r.pool.Query(ctx, query, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.BatchRun
	for rows.Next() {
		var run models.BatchRun
		if err := rows.Scan(
			&run.BatchID,
			&run.TraceID,
			&run.Format,
			&run.Total,
			&run.Finished,
			&run.Failed,
			&run.Skipped,
			&run.StartedAt,
			&run.CompletedAt,
		); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}
