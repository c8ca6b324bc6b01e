package reports

import (
	"testing"
	"time"

	syncfeature "adaudit/features/sync"
	"adaudit/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, useBloom bool) *ReportStore {
	t.Helper()
	store, err := NewReportStore(&config.CacheSettings{
		InMemory:  true,
		UseBloom:  useBloom,
		ReportTTL: time.Hour,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleReport(id string) *syncfeature.BulkSession {
	return &syncfeature.BulkSession{
		ID:        id,
		Operation: syncfeature.OpSync,
		Accounts: []syncfeature.AccountResult{
			{
				ID:     "acc-1",
				Name:   "Account A",
				Status: syncfeature.AccountSuccess,
				Counts: syncfeature.Counts{Campaigns: 3, AdSets: 9, Creatives: 27},
			},
		},
		IsComplete:      true,
		StartTime:       time.Now().UTC().Truncate(time.Second),
		TotalDurationMS: 1234,
	}
}

func TestReportStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t, true)

	report := sampleReport("sess-1")
	require.NoError(t, store.Save(report))

	got, err := store.Get("sess-1")
	require.NoError(t, err)
	assert.Equal(t, report.ID, got.ID)
	assert.Equal(t, report.Operation, got.Operation)
	assert.Equal(t, report.Accounts[0].Counts, got.Accounts[0].Counts)
	assert.Equal(t, report.TotalDurationMS, got.TotalDurationMS)
}

func TestReportStore_UnknownSessionShortCircuitsViaBloom(t *testing.T) {
	store := newTestStore(t, true)
	require.NoError(t, store.Save(sampleReport("sess-1")))

	_, err := store.Get("never-stored")
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestReportStore_WorksWithoutBloomFilter(t *testing.T) {
	store := newTestStore(t, false)
	require.NoError(t, store.Save(sampleReport("sess-2")))

	got, err := store.Get("sess-2")
	require.NoError(t, err)
	assert.Equal(t, "sess-2", got.ID)

	_, err = store.Get("missing")
	assert.ErrorIs(t, err, ErrReportNotFound)
}
