package sync

import (
	"adaudit/features/accounts"
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

var (
	ErrSyncAlreadyRunning = errors.New("a bulk sync is already running")
	ErrSessionNotFound    = errors.New("sync session not found")
)

// SessionStatus is what status queries return: the bulk report plus the
// in-flight account's step detail.
type SessionStatus struct {
	Session   *BulkSession `json:"session"`
	Steps     []Step       `json:"steps"`
	Aggregate Aggregate    `json:"aggregate"`
}

// Manager owns the one-bulk-run-at-a-time guard, the live controller and a
// bounded in-memory history of finished sessions. It is the explicit
// state-holder for what the dashboard treats as "is a sync active".
type Manager struct {
	mu         sync.RWMutex
	isRunning  atomic.Bool
	current    *BulkController
	history    []*BulkSession
	maxHistory int

	run        SessionRunner
	onFinished func(*BulkSession)
}

type ManagerOption func(*Manager)

// WithFinishedHook registers a callback invoked with the finalized session
// after every bulk run (report caching, audit dispatch, history rows).
func WithFinishedHook(hook func(*BulkSession)) ManagerOption {
	return func(m *Manager) {
		m.onFinished = hook
	}
}

func NewManager(run SessionRunner, opts ...ManagerOption) *Manager {
	m := &Manager{
		run:        run,
		maxHistory: 100,
		history:    make([]*BulkSession, 0, 100),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TryStart launches a bulk run in the background and returns its session ID.
// Only one run may be active, whether triggered by the API, the scheduler or
// the CLI.
func (m *Manager) TryStart(ctx context.Context, op Operation, accts []accounts.Account) (string, error) {
	if m.isRunning.Load() {
		return "", ErrSyncAlreadyRunning
	}

	m.mu.Lock()
	if m.isRunning.Load() {
		m.mu.Unlock()
		return "", ErrSyncAlreadyRunning
	}

	controller := NewBulkController(op, accts, m.run, NewCancelBridge())
	m.current = controller
	m.isRunning.Store(true)
	m.mu.Unlock()

	log.Info().
		Str("session_id", controller.ID()).
		Str("operation", string(op)).
		Int("accounts", len(accts)).
		Msg("bulk sync started")

	// The run outlives the caller: an API request's context dies the moment
	// the handler responds, while the run keeps going in the background.
	// Stopping a run goes through the cancellation bridge instead.
	runCtx := context.WithoutCancel(ctx)

	go func() {
		report := controller.Run(runCtx)
		m.finish(report)
	}()

	return controller.ID(), nil
}

// RunBlocking drives a bulk run on the calling goroutine, for the CLI.
func (m *Manager) RunBlocking(ctx context.Context, op Operation, accts []accounts.Account) (*BulkSession, error) {
	if m.isRunning.Load() {
		return nil, ErrSyncAlreadyRunning
	}

	m.mu.Lock()
	if m.isRunning.Load() {
		m.mu.Unlock()
		return nil, ErrSyncAlreadyRunning
	}
	controller := NewBulkController(op, accts, m.run, NewCancelBridge())
	m.current = controller
	m.isRunning.Store(true)
	m.mu.Unlock()

	report := controller.Run(ctx)
	m.finish(report)
	return report, nil
}

func (m *Manager) finish(report *BulkSession) {
	m.mu.Lock()
	m.history = append(m.history, report)
	if len(m.history) > m.maxHistory {
		m.history = m.history[len(m.history)-m.maxHistory:]
	}
	m.current = nil
	m.isRunning.Store(false)
	m.mu.Unlock()

	log.Info().
		Str("session_id", report.ID).
		Bool("cancelled", report.IsCancelled).
		Int64("total_duration_ms", report.TotalDurationMS).
		Msg("bulk sync finished")

	if m.onFinished != nil {
		m.onFinished(report)
	}
}

func (m *Manager) IsRunning() bool {
	return m.isRunning.Load()
}

// Cancel requests cancellation of the session with the given ID.
func (m *Manager) Cancel(sessionID string) error {
	m.mu.RLock()
	current := m.current
	m.mu.RUnlock()

	if current == nil || current.ID() != sessionID {
		return ErrSessionNotFound
	}

	current.Bridge().RequestCancel()
	log.Info().Str("session_id", sessionID).Msg("bulk sync cancellation requested")
	return nil
}

// Status returns the live snapshot for a session, or its finished report
// from history.
func (m *Manager) Status(sessionID string) (*SessionStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current != nil && m.current.ID() == sessionID {
		steps, agg := m.current.CurrentSteps()
		return &SessionStatus{
			Session:   m.current.Snapshot(),
			Steps:     steps,
			Aggregate: agg,
		}, nil
	}

	for i := len(m.history) - 1; i >= 0; i-- {
		if m.history[i].ID == sessionID {
			return &SessionStatus{Session: m.history[i]}, nil
		}
	}

	return nil, ErrSessionNotFound
}

// Recent returns up to limit finished or running sessions, most recent first.
func (m *Manager) Recent(limit int) []*BulkSession {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*BulkSession
	if m.current != nil {
		result = append(result, m.current.Snapshot())
	}
	for i := len(m.history) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, m.history[i])
	}
	return result
}
