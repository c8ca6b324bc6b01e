package syncapi

import (
	accountrepo "adaudit/features/accounts/repository"
	"adaudit/features/reports"
	syncfeature "adaudit/features/sync"
	syncrepo "adaudit/features/sync/repository"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

func MapSyncRoutes(e *echo.Echo, manager *syncfeature.Manager, accounts accountrepo.AccountRepository, reportStore *reports.ReportStore, runs syncrepo.SyncRunRepository) error {
	handler := NewSyncHandler(manager, accounts, reportStore, runs)

	g := e.Group("/sync")
	g.POST("/bulk", handler.StartBulkSync)
	g.GET("/bulk", handler.ListSessions)
	g.GET("/bulk/:sessionID", handler.GetSessionStatus)
	g.POST("/bulk/:sessionID/cancel", handler.CancelSession)
	g.GET("/runs", handler.ListRuns)

	log.Info().
		Str("start bulk sync", "/sync/bulk").
		Str("session status", "/sync/bulk/:sessionID").
		Str("cancel session", "/sync/bulk/:sessionID/cancel").
		Str("run history", "/sync/runs").
		Msg("Sync routes mapped successfully.")

	return nil
}
