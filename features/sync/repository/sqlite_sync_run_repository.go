package repository

import (
	"context"
	"database/sql"
	"fmt"
)

type SQLiteSyncRunRepository struct {
	db *sql.DB
}

func NewSQLiteSyncRunRepository(db *sql.DB) *SQLiteSyncRunRepository {
	return &SQLiteSyncRunRepository{db: db}
}

func (r *SQLiteSyncRunRepository) InsertRun(ctx context.Context, run *SyncRun) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_runs
			(id, operation, started_at, duration_ms, is_cancelled,
			 accounts_total, succeeded, failed, cancelled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Operation, run.StartedAt, run.DurationMS, run.IsCancelled,
		run.AccountsTotal, run.Succeeded, run.Failed, run.Cancelled)
	if err != nil {
		return fmt.Errorf("failed to insert sync run %s: %w", run.ID, err)
	}
	return nil
}

func (r *SQLiteSyncRunRepository) GetRunByID(ctx context.Context, id string) (*SyncRun, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, operation, started_at, duration_ms, is_cancelled,
		       accounts_total, succeeded, failed, cancelled
		FROM sync_runs WHERE id = ?`, id)

	run := &SyncRun{}
	err := row.Scan(&run.ID, &run.Operation, &run.StartedAt, &run.DurationMS,
		&run.IsCancelled, &run.AccountsTotal, &run.Succeeded, &run.Failed, &run.Cancelled)
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (r *SQLiteSyncRunRepository) ListRuns(ctx context.Context, limit int) ([]*SyncRun, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, operation, started_at, duration_ms, is_cancelled,
		       accounts_total, succeeded, failed, cancelled
		FROM sync_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*SyncRun
	for rows.Next() {
		run := &SyncRun{}
		if err := rows.Scan(&run.ID, &run.Operation, &run.StartedAt, &run.DurationMS,
			&run.IsCancelled, &run.AccountsTotal, &run.Succeeded, &run.Failed, &run.Cancelled); err != nil {
			return nil, fmt.Errorf("failed to scan sync run row: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
