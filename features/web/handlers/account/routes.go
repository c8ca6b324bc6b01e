package account

import (
	accountrepo "adaudit/features/accounts/repository"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

func MapAccountRoutes(e *echo.Echo, repo accountrepo.AccountRepository) error {
	handler := NewAccountHandler(repo)

	g := e.Group("/accounts")
	g.GET("", handler.ListAccounts)
	g.POST("", handler.ConnectAccount)
	g.GET("/:accountID", handler.GetAccount)
	g.DELETE("/:accountID", handler.DisconnectAccount)

	log.Info().
		Str("list accounts", "/accounts").
		Str("connect account", "/accounts [POST]").
		Msg("Account routes mapped successfully.")

	return nil
}
