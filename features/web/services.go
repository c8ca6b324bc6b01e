package web

import (
	"context"
	"fmt"

	accountrepo "adaudit/features/accounts/repository"
	"adaudit/features/audit"
	"adaudit/features/reports"
	syncfeature "adaudit/features/sync"
	syncrepo "adaudit/features/sync/repository"
	"adaudit/internal/config"
	"adaudit/internal/db"

	"github.com/rs/zerolog/log"
)

// Services wires the orchestration graph: the session runner against the
// external sync service, the bulk manager, and everything a finished run
// fans out to (report cache, run history, audit dispatch).
type Services struct {
	AccountRepository accountrepo.AccountRepository
	SyncRunRepository syncrepo.SyncRunRepository
	SyncManager       *syncfeature.Manager
	ReportStore       *reports.ReportStore
	AuditDispatcher   *audit.Dispatcher
}

func NewServices() (*Services, error) {
	cfg := config.GetConfig()

	dbConn, err := db.GetDB()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	reportStore, err := reports.NewReportStore(&cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize report store: %w", err)
	}

	svcs := &Services{
		AccountRepository: accountrepo.NewSQLiteAccountRepository(dbConn),
		SyncRunRepository: syncrepo.NewSQLiteSyncRunRepository(dbConn),
		ReportStore:       reportStore,
	}

	if cfg.Audit.Enabled {
		svcs.AuditDispatcher = audit.NewDispatcher(&cfg.Audit)
	}

	tokens := syncfeature.NewTokenClient(&cfg.SyncService)
	streams := syncfeature.NewSSEOpener(&cfg.SyncService)

	runner := func(ctx context.Context, op syncfeature.Operation, accountID string, tracker *syncfeature.StepTracker, bridge *syncfeature.CancelBridge) (syncfeature.Outcome, error) {
		session := syncfeature.NewSession(tokens, streams, bridge,
			syncfeature.WithGraceWindow(cfg.SyncService.GraceWindow))
		return session.Run(ctx, op, accountID, tracker)
	}

	svcs.SyncManager = syncfeature.NewManager(runner,
		syncfeature.WithFinishedHook(svcs.onBulkFinished))

	return svcs, nil
}

// onBulkFinished runs after every bulk session: cache the report, persist
// the run summary, hand successful accounts to the audit engine.
func (s *Services) onBulkFinished(report *syncfeature.BulkSession) {
	if err := s.ReportStore.Save(report); err != nil {
		log.Error().Err(err).Str("session_id", report.ID).Msg("failed to cache bulk report")
	}

	run := summarize(report)
	if err := s.SyncRunRepository.InsertRun(context.Background(), run); err != nil {
		log.Error().Err(err).Str("session_id", report.ID).Msg("failed to persist sync run")
	}

	if s.AuditDispatcher != nil && !report.IsCancelled {
		s.AuditDispatcher.DispatchSession(report)
	}
}

func summarize(report *syncfeature.BulkSession) *syncrepo.SyncRun {
	run := &syncrepo.SyncRun{
		ID:            report.ID,
		Operation:     string(report.Operation),
		StartedAt:     report.StartTime,
		DurationMS:    report.TotalDurationMS,
		IsCancelled:   report.IsCancelled,
		AccountsTotal: len(report.Accounts),
	}
	for _, account := range report.Accounts {
		switch account.Status {
		case syncfeature.AccountSuccess:
			run.Succeeded++
		case syncfeature.AccountError:
			run.Failed++
		case syncfeature.AccountCancelled:
			run.Cancelled++
		}
	}
	return run
}
