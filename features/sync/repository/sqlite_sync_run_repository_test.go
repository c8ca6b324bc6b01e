package repository

import (
	"context"
	"testing"
	"time"

	"adaudit/internal/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunRepository(t *testing.T) *SQLiteSyncRunRepository {
	t.Helper()
	conn, err := db.GetDB(db.WithTesting(true))
	require.NoError(t, err)
	return NewSQLiteSyncRunRepository(conn)
}

func newTestRun(startedAt time.Time) *SyncRun {
	return &SyncRun{
		ID:            uuid.New().String(),
		Operation:     "sync",
		StartedAt:     startedAt,
		DurationMS:    4200,
		AccountsTotal: 3,
		Succeeded:     2,
		Failed:        1,
	}
}

func TestSyncRunRepository_InsertAndGet(t *testing.T) {
	repo := newTestRunRepository(t)
	ctx := context.Background()

	run := newTestRun(time.Now().UTC().Truncate(time.Second))
	run.IsCancelled = true
	run.Cancelled = 1
	require.NoError(t, repo.InsertRun(ctx, run))

	got, err := repo.GetRunByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Operation, got.Operation)
	assert.Equal(t, run.DurationMS, got.DurationMS)
	assert.True(t, got.IsCancelled)
	assert.Equal(t, run.AccountsTotal, got.AccountsTotal)
	assert.Equal(t, run.Succeeded, got.Succeeded)
	assert.Equal(t, run.Failed, got.Failed)
	assert.Equal(t, run.Cancelled, got.Cancelled)
}

func TestSyncRunRepository_ListRunsMostRecentFirst(t *testing.T) {
	repo := newTestRunRepository(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	older := newTestRun(base.Add(-time.Hour))
	newer := newTestRun(base)
	require.NoError(t, repo.InsertRun(ctx, older))
	require.NoError(t, repo.InsertRun(ctx, newer))

	runs, err := repo.ListRuns(ctx, 100)
	require.NoError(t, err)

	var ids []string
	for _, run := range runs {
		if run.ID == older.ID || run.ID == newer.ID {
			ids = append(ids, run.ID)
		}
	}
	require.Len(t, ids, 2)
	assert.Equal(t, newer.ID, ids[0])
	assert.Equal(t, older.ID, ids[1])
}

func TestSyncRunRepository_ListRespectsLimit(t *testing.T) {
	repo := newTestRunRepository(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.InsertRun(ctx, newTestRun(base.Add(time.Duration(i)*time.Minute))))
	}

	runs, err := repo.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
