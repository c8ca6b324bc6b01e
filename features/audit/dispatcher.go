package audit

import (
	"adaudit/features/sync"
	"adaudit/internal/collector"
	"adaudit/internal/config"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/alitto/pond/v2"
	"github.com/rs/zerolog/log"
)

// auditRequest is what the external AI audit engine receives per account
// after a successful sync. The analysis itself is the engine's business.
type auditRequest struct {
	AccountID string      `json:"account_id"`
	SessionID string      `json:"session_id"`
	Counts    sync.Counts `json:"counts"`
}

// Dispatcher fans audit requests out to the audit engine on a bounded worker
// pool. Only accounts that reached success are dispatched; errored and
// cancelled accounts have nothing new to audit.
type Dispatcher struct {
	pool    pond.Pool
	baseURL string
	http    *http.Client
}

func NewDispatcher(cfg *config.AuditConfig) *Dispatcher {
	return &Dispatcher{
		pool:    pond.NewPool(cfg.MaxWorkers),
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// DispatchSession submits one audit request per successful account. Returns
// immediately; requests run on the pool.
func (d *Dispatcher) DispatchSession(report *sync.BulkSession) {
	for _, account := range report.Accounts {
		if account.Status != sync.AccountSuccess {
			continue
		}

		req := auditRequest{
			AccountID: account.ID,
			SessionID: report.ID,
			Counts:    account.Counts,
		}
		d.pool.Submit(func() {
			if err := d.post(req); err != nil {
				log.Error().Err(err).
					Str("account_id", req.AccountID).
					Str("session_id", req.SessionID).
					Msg("audit dispatch failed")
				d.record("error")
				return
			}
			d.record("ok")
		})
	}
}

func (d *Dispatcher) post(req auditRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling audit request: %w", err)
	}

	resp, err := d.http.Post(d.baseURL+"/api/audits", "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("posting audit request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("audit engine returned %d", resp.StatusCode)
	}
	return nil
}

func (d *Dispatcher) record(result string) {
	if mc, err := collector.GetMetricsCollector(); err == nil {
		mc.RecordAuditDispatch(result)
	}
}

// Stop waits for queued audit requests to drain.
func (d *Dispatcher) Stop() {
	d.pool.StopAndWait()
}
