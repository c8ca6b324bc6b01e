package sync

import (
	"adaudit/features/accounts"
	"adaudit/internal/collector"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type AccountStatus string

const (
	AccountPending   AccountStatus = "pending"
	AccountSyncing   AccountStatus = "syncing"
	AccountSuccess   AccountStatus = "success"
	AccountError     AccountStatus = "error"
	AccountCancelled AccountStatus = "cancelled"
)

// AccountResult is one account's entry in a bulk run. Counts populate only
// on success, Error only on error, DurationMS on any terminal state.
type AccountResult struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Status     AccountStatus `json:"status"`
	Counts     Counts        `json:"counts"`
	DurationMS int64         `json:"duration_ms"`
	Error      string        `json:"error,omitempty"`
}

// BulkSession is the aggregate report for one bulk run. Created fresh per
// run, never persisted by the controller itself.
type BulkSession struct {
	ID              string          `json:"id"`
	Operation       Operation       `json:"operation"`
	Accounts        []AccountResult `json:"accounts"`
	CurrentIndex    int             `json:"current_index"`
	IsComplete      bool            `json:"is_complete"`
	IsCancelled     bool            `json:"is_cancelled"`
	StartTime       time.Time       `json:"start_time"`
	TotalDurationMS int64           `json:"total_duration_ms"`
}

// SessionRunner runs one account's streamed session against the given
// cancellation bridge. Injected so the bulk loop can be exercised without a
// live sync service.
type SessionRunner func(ctx context.Context, op Operation, accountID string, tracker *StepTracker, bridge *CancelBridge) (Outcome, error)

// BulkController drives one streamed session per account, strictly
// sequentially. The audited ad-platform APIs rate-limit per app; serializing
// avoids throttling and keeps progress legible. One account's failure never
// stops the loop; only cancellation does.
type BulkController struct {
	mu      sync.RWMutex
	session BulkSession
	tracker *StepTracker

	run    SessionRunner
	bridge *CancelBridge
}

func NewBulkController(op Operation, accts []accounts.Account, run SessionRunner, bridge *CancelBridge) *BulkController {
	results := make([]AccountResult, 0, len(accts))
	for _, a := range accts {
		results = append(results, AccountResult{
			ID:     a.ID,
			Name:   a.Name,
			Status: AccountPending,
		})
	}

	return &BulkController{
		session: BulkSession{
			ID:        uuid.New().String(),
			Operation: op,
			Accounts:  results,
		},
		tracker: NewStepTracker(op.StepNames()...),
		run:     run,
		bridge:  bridge,
	}
}

func (c *BulkController) ID() string {
	return c.session.ID
}

func (c *BulkController) Bridge() *CancelBridge {
	return c.bridge
}

// Run processes every account in order and returns the finalized session.
func (c *BulkController) Run(ctx context.Context) *BulkSession {
	sessionStart := time.Now()

	c.mu.Lock()
	c.session.StartTime = sessionStart
	total := len(c.session.Accounts)
	op := c.session.Operation
	c.mu.Unlock()

	if mc, err := collector.GetMetricsCollector(); err == nil {
		mc.RecordBulkRunStarted(string(op))
	}

	for i := 0; i < total; i++ {
		if c.bridge.IsCancelled() {
			c.markRemainingCancelled(i)
			break
		}

		c.beginAccount(i)
		accountStart := time.Now()

		// Each account gets a fresh tracker so stale step state from the
		// previous account never bleeds into this one's progress.
		tracker := NewStepTracker(op.StepNames()...)
		c.mu.Lock()
		c.tracker = tracker
		accountID := c.session.Accounts[i].ID
		c.mu.Unlock()

		outcome, err := c.run(ctx, op, accountID, tracker, c.bridge)
		duration := time.Since(accountStart)

		if c.bridge.IsCancelled() || errors.Is(err, ErrCancelled) {
			// Cancellation intent overrides a race-won success: nothing
			// after the user clicked cancel counts as completed.
			c.finishAccount(i, AccountCancelled, Counts{}, duration, "")
			c.markRemainingCancelled(i + 1)
			c.recordAccountMetrics(op, AccountCancelled, duration, Outcome{}, tracker)
			break
		}

		switch {
		case err != nil:
			c.finishAccount(i, AccountError, Counts{}, duration, err.Error())
			c.recordAccountMetrics(op, AccountError, duration, Outcome{}, tracker)
			log.Error().Err(err).
				Str("account_id", accountID).
				Str("operation", string(op)).
				Dur("duration", duration).
				Msg("account sync failed")
		default:
			c.finishAccount(i, AccountSuccess, outcome.Counts, duration, "")
			c.recordAccountMetrics(op, AccountSuccess, duration, outcome, tracker)
			log.Info().
				Str("account_id", accountID).
				Str("operation", string(op)).
				Dur("duration", duration).
				Int("campaigns", outcome.Counts.Campaigns).
				Int("ad_sets", outcome.Counts.AdSets).
				Int("creatives", outcome.Counts.Creatives).
				Msg("account sync finished")
		}
	}

	c.mu.Lock()
	c.session.TotalDurationMS = time.Since(sessionStart).Milliseconds()
	c.session.IsComplete = true
	c.session.IsCancelled = c.bridge.IsCancelled()
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	if snapshot.IsCancelled {
		if mc, err := collector.GetMetricsCollector(); err == nil {
			mc.RecordBulkRunCancelled(string(op))
		}
	}

	return snapshot
}

// Snapshot returns a copy of the session safe to hand to other goroutines.
func (c *BulkController) Snapshot() *BulkSession {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// CurrentSteps returns the step list of the account being processed.
func (c *BulkController) CurrentSteps() ([]Step, Aggregate) {
	c.mu.RLock()
	tracker := c.tracker
	c.mu.RUnlock()
	return tracker.Steps(), tracker.Aggregate()
}

func (c *BulkController) snapshotLocked() *BulkSession {
	out := c.session
	out.Accounts = make([]AccountResult, len(c.session.Accounts))
	copy(out.Accounts, c.session.Accounts)
	return &out
}

func (c *BulkController) beginAccount(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.CurrentIndex = i
	c.session.Accounts[i].Status = AccountSyncing
}

func (c *BulkController) finishAccount(i int, status AccountStatus, counts Counts, duration time.Duration, errMsg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.Accounts[i].Status = status
	c.session.Accounts[i].Counts = counts
	c.session.Accounts[i].DurationMS = duration.Milliseconds()
	c.session.Accounts[i].Error = errMsg
}

// markRemainingCancelled sweeps accounts[from:] that never reached a
// terminal state into cancelled. Entries already terminal are left alone.
func (c *BulkController) markRemainingCancelled(from int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := from; i < len(c.session.Accounts); i++ {
		switch c.session.Accounts[i].Status {
		case AccountSuccess, AccountError, AccountCancelled:
		default:
			c.session.Accounts[i].Status = AccountCancelled
		}
	}
}

func (c *BulkController) recordAccountMetrics(op Operation, status AccountStatus, duration time.Duration, outcome Outcome, tracker *StepTracker) {
	mc, err := collector.GetMetricsCollector()
	if err != nil {
		return
	}
	mc.RecordAccountSync(string(op), string(status), duration)
	if status == AccountSuccess {
		for _, step := range tracker.Steps() {
			if step.Name != "" && step.Count > 0 {
				mc.AddItemsSynced(step.Name, step.Count)
			}
		}
	}
}
