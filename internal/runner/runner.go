package runner

import (
	"context"
	"errors"
	"sync"
	"time"

	accountrepo "adaudit/features/accounts/repository"
	syncfeature "adaudit/features/sync"
	"adaudit/internal/config"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

var (
	ErrFailedToCreateScheduler = errors.New("failed to create scheduler")
	ErrFailedToCreateJob       = errors.New("failed to create job")
)

var (
	globalRunner *Runner
	once         sync.Once
)

// Runner schedules periodic bulk syncs of all registered accounts. Singleton
// job mode plus the manager's own guard keep runs from overlapping.
type Runner struct {
	scheduler gocron.Scheduler
	manager   *syncfeature.Manager
	accounts  accountrepo.AccountRepository
}

func InitializeRunner(manager *syncfeature.Manager, accounts accountrepo.AccountRepository) (*Runner, error) {
	var initErr error
	once.Do(func() {
		scheduler, err := gocron.NewScheduler(
			gocron.WithLocation(time.UTC),
			gocron.WithGlobalJobOptions(
				gocron.WithSingletonMode(gocron.LimitModeReschedule),
			),
		)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create scheduler")
			initErr = ErrFailedToCreateScheduler
			return
		}

		r := &Runner{
			scheduler: scheduler,
			manager:   manager,
			accounts:  accounts,
		}

		cfg := config.GetConfig().Scheduler
		if cfg.Enabled {
			job, err := scheduler.NewJob(
				gocron.CronJob(cfg.CronSchedule, true),
				gocron.NewTask(r.runScheduledSync),
				gocron.WithName("bulk_sync"),
				gocron.WithTags("sync"),
			)
			if err != nil {
				log.Error().Err(err).Str("cron", cfg.CronSchedule).Msg("Failed to schedule bulk sync job")
				initErr = ErrFailedToCreateJob
				return
			}
			if nextRun, err := job.NextRun(); err == nil {
				log.Info().
					Str("cron", cfg.CronSchedule).
					Time("next_run", nextRun).
					Msg("Bulk sync job scheduled")
			}
		}

		scheduler.Start()
		globalRunner = r
	})

	return globalRunner, initErr
}

func GetRunner() *Runner {
	return globalRunner
}

// RunSyncNow kicks off a bulk sync of every registered account immediately.
func (r *Runner) RunSyncNow() {
	r.runScheduledSync()
}

func (r *Runner) runScheduledSync() {
	ctx := context.Background()

	accts, err := r.accounts.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Scheduled sync could not list accounts")
		return
	}
	if len(accts) == 0 {
		log.Debug().Msg("Scheduled sync skipped, no accounts registered")
		return
	}

	sessionID, err := r.manager.TryStart(ctx, syncfeature.OpSync, accts)
	if err != nil {
		if errors.Is(err, syncfeature.ErrSyncAlreadyRunning) {
			log.Warn().Msg("Scheduled sync skipped, another bulk sync is running")
			return
		}
		log.Error().Err(err).Msg("Scheduled sync failed to start")
		return
	}

	log.Info().Str("session_id", sessionID).Int("accounts", len(accts)).Msg("Scheduled bulk sync started")
}

func ShutdownRunner(ctx context.Context) {
	if globalRunner == nil {
		return
	}
	if err := globalRunner.scheduler.Shutdown(); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown scheduler")
	}
}
