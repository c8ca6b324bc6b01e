package web

import (
	"adaudit/features/web/handlers/account"
	"adaudit/features/web/handlers/health"
	"adaudit/features/web/handlers/syncapi"

	"github.com/labstack/echo/v4"
)

func (app *Application) ConfigureRoutes() error {
	e := app.Echo

	app.MapHome()

	if err := syncapi.MapSyncRoutes(e, app.services.SyncManager, app.services.AccountRepository, app.services.ReportStore, app.services.SyncRunRepository); err != nil {
		return err
	}

	if err := account.MapAccountRoutes(e, app.services.AccountRepository); err != nil {
		return err
	}

	health.MapHealth(e, *app.config)

	return nil
}

func (app *Application) MapHome() {
	e := app.Echo

	e.GET("/", func(c echo.Context) error {
		return c.String(200, "Welcome to ADAUDIT Service")
	})
}
