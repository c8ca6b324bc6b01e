package sync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"adaudit/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenClient(baseURL string) *TokenClient {
	return NewTokenClient(&config.SyncServiceConfig{
		BaseURL:      baseURL,
		TokenTimeout: 2 * time.Second,
	})
}

func TestTokenClient_RequestsOperationScopedToken(t *testing.T) {
	var gotPath, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":"tok-abc"}`))
	}))
	defer server.Close()

	client := newTokenClient(server.URL)
	token, err := client.Request(context.Background(), OpSync, "acc-42")
	require.NoError(t, err)

	assert.Equal(t, "tok-abc", token)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/accounts/acc-42/sync-token", gotPath)
}

func TestTokenClient_RedownloadUsesItsOwnEndpoint(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"token":"tok"}`))
	}))
	defer server.Close()

	_, err := newTokenClient(server.URL).Request(context.Background(), OpRedownload, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "/api/accounts/acc-1/redownload-token", gotPath)
}

func TestTokenClient_EmptyTokenIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token":""}`))
	}))
	defer server.Close()

	_, err := newTokenClient(server.URL).Request(context.Background(), OpSync, "acc-1")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestTokenClient_NonSuccessStatusIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "token expired", http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTokenClient(server.URL).Request(context.Background(), OpSync, "acc-1")
	require.Error(t, err)
	assert.ErrorContains(t, err, "401")
}
