package cmd

import (
	"adaudit/features/web"
	"adaudit/internal/config"
	"adaudit/internal/runner"
	"adaudit/internal/telemetry"

	"github.com/ory/graceful"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

// WebServer is the CLI command that starts the web API server.
var WebServer = &cli.Command{
	Name:    "serve",
	Aliases: []string{"s"},
	Usage:   "Start web API server",
	Action:  serve,
}

func serve(c *cli.Context) (err error) {
	if err := config.InitConfig(); err != nil {
		log.Error().Err(err).Msg("Failed to load config")
		return err
	}
	cfg := config.GetConfig()

	telemetryShutdown, err := telemetry.InitTelemetry(c.Context, "adaudit", c.App.Version)
	if err != nil {
		log.Warn().Err(err).Msg("Telemetry disabled")
	} else {
		defer telemetryShutdown(c.Context)
	}

	app, err := web.NewApplication(&cfg.Server)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create web application")
		return err
	}

	svcs := app.GetServices()
	defer svcs.ReportStore.Close()
	if svcs.AuditDispatcher != nil {
		defer svcs.AuditDispatcher.Stop()
	}

	if _runner, err := runner.InitializeRunner(svcs.SyncManager, svcs.AccountRepository); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler runner")
	} else if cfg.Scheduler.RunAtStartup {
		log.Info().Msg("Running bulk sync at startup")
		_runner.RunSyncNow()
	}
	defer runner.ShutdownRunner(c.Context)

	server := graceful.WithDefaults(app.Echo.Server)
	log.Info().Msgf("Starting server on %s", server.Addr)

	if err = graceful.Graceful(server.ListenAndServe, server.Shutdown); err != nil {
		log.Error().Err(err).Msg("Failed to start server")
		return err
	}

	log.Info().Msg("Server stopped gracefully.")
	return nil
}
