package audit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	syncfeature "adaudit/features/sync"
	"adaudit/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_OnlySuccessfulAccountsAreDispatched(t *testing.T) {
	var mu sync.Mutex
	var received []auditRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/audits", r.URL.Path)
		var req auditRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		received = append(received, req)
		mu.Unlock()
	}))
	defer server.Close()

	dispatcher := NewDispatcher(&config.AuditConfig{
		BaseURL:        server.URL,
		MaxWorkers:     2,
		RequestTimeout: 5 * time.Second,
	})

	report := &syncfeature.BulkSession{
		ID: "sess-1",
		Accounts: []syncfeature.AccountResult{
			{ID: "a", Status: syncfeature.AccountSuccess, Counts: syncfeature.Counts{Creatives: 5}},
			{ID: "b", Status: syncfeature.AccountError},
			{ID: "c", Status: syncfeature.AccountCancelled},
			{ID: "d", Status: syncfeature.AccountSuccess, Counts: syncfeature.Counts{Creatives: 8}},
		},
	}

	dispatcher.DispatchSession(report)
	dispatcher.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 2)

	ids := map[string]syncfeature.Counts{}
	for _, req := range received {
		assert.Equal(t, "sess-1", req.SessionID)
		ids[req.AccountID] = req.Counts
	}
	assert.Equal(t, syncfeature.Counts{Creatives: 5}, ids["a"])
	assert.Equal(t, syncfeature.Counts{Creatives: 8}, ids["d"])
}

func TestDispatcher_EngineErrorDoesNotPanic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	dispatcher := NewDispatcher(&config.AuditConfig{
		BaseURL:        server.URL,
		MaxWorkers:     1,
		RequestTimeout: 5 * time.Second,
	})

	dispatcher.DispatchSession(&syncfeature.BulkSession{
		ID:       "sess-err",
		Accounts: []syncfeature.AccountResult{{ID: "a", Status: syncfeature.AccountSuccess}},
	})
	dispatcher.Stop()
}
