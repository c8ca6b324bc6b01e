package syncapi

import (
	"errors"
	"net/http"

	accountrepo "adaudit/features/accounts/repository"
	"adaudit/features/reports"
	syncfeature "adaudit/features/sync"
	syncrepo "adaudit/features/sync/repository"

	"github.com/labstack/echo/v4"
)

type BulkSyncInput struct {
	Operation  string   `json:"operation" validate:"omitempty,oneof=sync redownload purge"`
	AccountIDs []string `json:"account_ids"`
}

type SyncHandler struct {
	manager  *syncfeature.Manager
	accounts accountrepo.AccountRepository
	reports  *reports.ReportStore
	runs     syncrepo.SyncRunRepository
}

func NewSyncHandler(manager *syncfeature.Manager, accounts accountrepo.AccountRepository, reportStore *reports.ReportStore, runs syncrepo.SyncRunRepository) *SyncHandler {
	return &SyncHandler{
		manager:  manager,
		accounts: accounts,
		reports:  reportStore,
		runs:     runs,
	}
}

// StartBulkSync kicks off a bulk run over all registered accounts, or a
// subset when account_ids is given. Order of processing is registry order.
func (h *SyncHandler) StartBulkSync(c echo.Context) error {
	req := &BulkSyncInput{}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"error": "Invalid request body", "details": err.Error()})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"error": "Invalid request", "details": err.Error()})
	}

	op := syncfeature.OpSync
	if req.Operation != "" {
		op = syncfeature.Operation(req.Operation)
	}

	accts, err := h.accounts.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"error": "Failed to list accounts", "details": err.Error()})
	}

	if len(req.AccountIDs) > 0 {
		wanted := make(map[string]bool, len(req.AccountIDs))
		for _, id := range req.AccountIDs {
			wanted[id] = true
		}
		filtered := accts[:0]
		for _, a := range accts {
			if wanted[a.ID] {
				filtered = append(filtered, a)
			}
		}
		accts = filtered
	}

	if len(accts) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"error": "No matching accounts to sync"})
	}

	sessionID, err := h.manager.TryStart(c.Request().Context(), op, accts)
	if err != nil {
		if errors.Is(err, syncfeature.ErrSyncAlreadyRunning) {
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"error":   "Sync Conflict",
				"message": "Another bulk sync is already running. Please wait for it to complete.",
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"error": "Failed to start sync", "details": err.Error()})
	}

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"session_id": sessionID,
		"message":    "Bulk sync started. Use session_id to check status.",
	})
}

// GetSessionStatus serves live sessions from the manager and finished ones
// from the report cache.
func (h *SyncHandler) GetSessionStatus(c echo.Context) error {
	sessionID := c.Param("sessionID")
	if sessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"error": "sessionID is required"})
	}

	status, err := h.manager.Status(sessionID)
	if err == nil {
		return c.JSON(http.StatusOK, status)
	}

	report, err := h.reports.Get(sessionID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]interface{}{"error": "Session not found", "session_id": sessionID})
	}
	return c.JSON(http.StatusOK, &syncfeature.SessionStatus{Session: report})
}

// CancelSession flips the cancellation bridge for the running session.
func (h *SyncHandler) CancelSession(c echo.Context) error {
	sessionID := c.Param("sessionID")
	if sessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"error": "sessionID is required"})
	}

	if err := h.manager.Cancel(sessionID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]interface{}{"error": "No running session with that ID", "session_id": sessionID})
	}

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"session_id": sessionID,
		"message":    "Cancellation requested. Remaining accounts will be marked cancelled.",
	})
}

// ListSessions returns recent in-memory sessions.
func (h *SyncHandler) ListSessions(c echo.Context) error {
	return c.JSON(http.StatusOK, h.manager.Recent(20))
}

// ListRuns returns the persisted history of finished runs.
func (h *SyncHandler) ListRuns(c echo.Context) error {
	runs, err := h.runs.ListRuns(c.Request().Context(), 50)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"error": "Failed to list sync runs", "details": err.Error()})
	}
	return c.JSON(http.StatusOK, runs)
}
