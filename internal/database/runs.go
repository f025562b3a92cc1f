package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type SyncRun struct {
	ID         uuid.UUID  `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     string     `json:"status"`
	Attempts   int        `json:"attempts"`
	RowsSynced int        `json:"rows_synced"`
	Artifact   string     `json:"artifact,omitempty"`
	Error      string     `json:"error,omitempty"`
}

func (s *Store) CreateRun(ctx context.Context, run *SyncRun) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sync_runs (id, started_at, status)
		VALUES ($1, $2, $3)
	`, run.ID, run.StartedAt, run.Status)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}
	return nil
}

func (s *Store) FinishRun(ctx context.Context, run *SyncRun) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE sync_runs
		SET finished_at = $2, status = $3, attempts = $4, rows_synced = $5, artifact = $6, error = $7
		WHERE id = $1
	`, run.ID, run.FinishedAt, run.Status, run.Attempts, run.RowsSynced, run.Artifact, run.Error)
	if err != nil {
		return fmt.Errorf("failed to update sync run: %w", err)
	}
	return nil
}

func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*SyncRun, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, started_at, finished_at, status, attempts, rows_synced, artifact, error
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*SyncRun
	for rows.Next() {
		run := &SyncRun{}
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Status,
			&run.Attempts, &run.RowsSynced, &run.Artifact, &run.Error); err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
