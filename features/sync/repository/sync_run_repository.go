package repository

import (
	"context"
	"time"
)

// SyncRun is the persisted summary of one finished bulk session.
type SyncRun struct {
	ID            string    `json:"id"`
	Operation     string    `json:"operation"`
	StartedAt     time.Time `json:"started_at"`
	DurationMS    int64     `json:"duration_ms"`
	IsCancelled   bool      `json:"is_cancelled"`
	AccountsTotal int       `json:"accounts_total"`
	Succeeded     int       `json:"succeeded"`
	Failed        int       `json:"failed"`
	Cancelled     int       `json:"cancelled"`
}

type SyncRunRepository interface {
	InsertRun(ctx context.Context, run *SyncRun) error
	GetRunByID(ctx context.Context, id string) (*SyncRun, error)
	ListRuns(ctx context.Context, limit int) ([]*SyncRun, error)
}
