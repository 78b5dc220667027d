// Package handlers exposes the engine's queries and mutations over
// HTTP. The handlers are a thin collaborator: all semantics live in the
// engine, and this layer only decodes payloads, maps error kinds to
// status codes and encodes results.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/budget-engine/internal/api/middleware"
	"github.com/dvloznov/budget-engine/internal/engine"
	"github.com/dvloznov/budget-engine/internal/export"
	"github.com/dvloznov/budget-engine/internal/ledger"
)

// Handler serves the engine over HTTP. Reads go straight to the store
// (snapshots); every mutation goes through the engine.
type Handler struct {
	eng   *engine.Engine
	store ledger.Store
	log   zerolog.Logger
}

// New creates a handler over an engine and its store.
func New(eng *engine.Engine, store ledger.Store, log zerolog.Logger) *Handler {
	return &Handler{eng: eng, store: store, log: log}
}

// writeEngineError maps engine error kinds to HTTP statuses:
// validation failures 422 with every message, missing references 404,
// invariant violations 409, anything else 500.
func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	var verr *ledger.ValidationError
	switch {
	case errors.As(err, &verr):
		middleware.WriteValidationError(w, verr.Errors)
	case errors.Is(err, ledger.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrInvariant):
		middleware.WriteError(w, http.StatusConflict, err.Error())
	default:
		h.log.Error().Err(err).Msg("engine operation failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// ListAccounts handles GET /api/accounts
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.store.ListAccounts(r.Context())
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

// CreateAccount handles POST /api/accounts
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var a ledger.Account
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.eng.CreateAccount(r.Context(), &a)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, created)
}

// DeleteAccount handles DELETE /api/accounts/{id}
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.eng.DeleteAccount(r.Context(), id); err != nil {
		h.writeEngineError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// AccountBalance handles GET /api/accounts/{id}/balance
func (h *Handler) AccountBalance(w http.ResponseWriter, r *http.Request, id string) {
	balance, err := h.eng.AccountBalance(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"account_id": id,
		"balance":    balance,
	})
}

// CreateTransaction handles POST /api/transactions
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var tx ledger.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.eng.CreateTransaction(r.Context(), &tx)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, result)
}

// DeleteTransaction handles DELETE /api/transactions/{id}
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request, id string) {
	result, err := h.eng.DeleteTransaction(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, result)
}

// CheckTransaction handles POST /api/transactions/check - the
// warn-before-you-spend query. Nothing is recorded.
func (h *Handler) CheckTransaction(w http.ResponseWriter, r *http.Request) {
	var tx ledger.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	alert, err := h.eng.CheckTransaction(r.Context(), &tx)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"would_trigger": alert != nil,
		"alert":         alert,
	})
}

// CreateBudget handles POST /api/budgets
func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	var b ledger.Budget
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.eng.CreateBudget(r.Context(), &b)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, created)
}

// BudgetProgress handles GET /api/budgets/progress
func (h *Handler) BudgetProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.eng.AllBudgetProgress(r.Context())
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"progress": progress,
		"count":    len(progress),
	})
}

// RollBudgets handles POST /api/budgets/roll - the explicit rollover
// pass for expired budgets.
func (h *Handler) RollBudgets(w http.ResponseWriter, r *http.Request) {
	successors, err := h.eng.RollExpiredBudgets(r.Context())
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"rolled":     len(successors),
		"successors": successors,
	})
}

// Alerts handles GET /api/alerts
func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	current, err := h.eng.Alerts(r.Context())
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": current,
		"count":  len(current),
	})
}

// CreateGoal handles POST /api/goals
func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var g ledger.Goal
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.eng.CreateGoal(r.Context(), &g)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, created)
}

// Contribute handles POST /api/goals/{id}/contribute
func (h *Handler) Contribute(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	goal, err := h.eng.Contribute(r.Context(), id, req.Amount)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, goal)
}

// GoalSummary handles GET /api/goals/{id}/summary
func (h *Handler) GoalSummary(w http.ResponseWriter, r *http.Request, id string) {
	summary, err := h.eng.GoalSummary(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, summary)
}

// BudgetReport handles GET /api/reports/budget?format=csv|json
func (h *Handler) BudgetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	budgets, err := h.store.ListBudgets(ctx, ledger.BudgetFilter{})
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	progress, err := h.eng.AllBudgetProgress(ctx)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	period := r.URL.Query().Get("period")
	if period == "" {
		period = "current"
	}
	report := export.BuildBudgetReport(period, budgets, progress)

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="budget-report.csv"`)
		if err := report.WriteCSV(w); err != nil {
			h.log.Error().Err(err).Msg("Failed to write CSV report")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := report.WriteJSON(w); err != nil {
		h.log.Error().Err(err).Msg("Failed to write JSON report")
	}
}
