package account

import (
	"errors"
	"net/http"
	"time"

	"adaudit/features/accounts"
	accountrepo "adaudit/features/accounts/repository"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type ConnectAccountInput struct {
	Name       string `json:"name" validate:"required"`
	Platform   string `json:"platform" validate:"required,oneof=meta google"`
	ExternalID string `json:"external_id" validate:"required"`
}

type AccountHandler struct {
	repo accountrepo.AccountRepository
}

func NewAccountHandler(repo accountrepo.AccountRepository) *AccountHandler {
	return &AccountHandler{repo: repo}
}

func (h *AccountHandler) ListAccounts(c echo.Context) error {
	accts, err := h.repo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"error": "Failed to list accounts", "details": err.Error()})
	}
	if accts == nil {
		accts = []accounts.Account{}
	}
	return c.JSON(http.StatusOK, accts)
}

func (h *AccountHandler) GetAccount(c echo.Context) error {
	id := c.Param("accountID")
	acct, err := h.repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, accountrepo.ErrAccountNotFound) {
			return c.JSON(http.StatusNotFound, map[string]interface{}{"error": "Account not found", "account_id": id})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"error": "Failed to get account", "details": err.Error()})
	}
	return c.JSON(http.StatusOK, acct)
}

// ConnectAccount registers an account whose OAuth handshake already happened
// upstream; only the resulting identity lands here.
func (h *AccountHandler) ConnectAccount(c echo.Context) error {
	req := &ConnectAccountInput{}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"error": "Invalid request body", "details": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"error": "Invalid request", "details": err.Error()})
	}

	acct := accounts.Account{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Platform:    accounts.Platform(req.Platform),
		ExternalID:  req.ExternalID,
		ConnectedAt: time.Now().UTC(),
	}

	if err := h.repo.Save(c.Request().Context(), acct); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"error": "Failed to save account", "details": err.Error()})
	}

	return c.JSON(http.StatusCreated, acct)
}

func (h *AccountHandler) DisconnectAccount(c echo.Context) error {
	id := c.Param("accountID")
	if err := h.repo.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, accountrepo.ErrAccountNotFound) {
			return c.JSON(http.StatusNotFound, map[string]interface{}{"error": "Account not found", "account_id": id})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"error": "Failed to delete account", "details": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}
