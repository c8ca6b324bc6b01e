package sync

import (
	"adaudit/internal/config"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var ErrNoToken = errors.New("sync service returned no token")

type tokenResponse struct {
	Token string `json:"token"`
}

// TokenClient requests one-time stream tokens from the sync service. A token
// failure is fatal for the session; no stream is ever opened without one.
type TokenClient struct {
	baseURL string
	http    *http.Client
}

func NewTokenClient(cfg *config.SyncServiceConfig) *TokenClient {
	return &TokenClient{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.TokenTimeout},
	}
}

func (c *TokenClient) Request(ctx context.Context, op Operation, accountID string) (string, error) {
	url := c.baseURL + op.TokenPath(accountID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader([]byte("{}")))
	if err != nil {
		return "", fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting %s token for account %s: %w", op, accountID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if tr.Token == "" {
		return "", ErrNoToken
	}

	return tr.Token, nil
}
