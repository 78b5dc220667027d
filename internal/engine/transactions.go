package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/budget-engine/internal/alerts"
	"github.com/dvloznov/budget-engine/internal/ledger"
)

// TransactionUpdate is a partial transaction payload. Nil fields are
// left unchanged.
type TransactionUpdate struct {
	AccountID   *string
	Date        *time.Time
	Amount      *decimal.Decimal
	Description *string
	Category    *string
	Type        *ledger.TransactionType
	Tags        *[]string
}

// CreateTransaction validates the payload, verifies the referenced
// account exists, records the transaction and runs the scoped
// recomputation pass. All checks run before the first write, so a
// rejected create leaves every derived value untouched.
func (e *Engine) CreateTransaction(ctx context.Context, tx *ledger.Transaction) (*MutationResult, error) {
	if err := ledger.ValidateTransaction(tx).Err(); err != nil {
		return nil, err
	}
	if _, err := e.store.GetAccount(ctx, tx.AccountID); err != nil {
		return nil, fmt.Errorf("CreateTransaction: %w", err)
	}

	now := e.now()
	tx.ID = uuid.NewString()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	if err := e.store.SaveTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("CreateTransaction: save: %w", err)
	}

	result, err := e.recomputeAfterTransaction(ctx, tx.AccountID, tx.Category, tx.Date)
	if err != nil {
		return nil, fmt.Errorf("CreateTransaction: %w", err)
	}

	e.log.Info().
		Str("transaction_id", tx.ID).
		Str("account_id", tx.AccountID).
		Str("category", tx.Category).
		Str("amount", tx.Amount.String()).
		Int("alerts", len(result)).
		Msg("transaction recorded")

	return &MutationResult{Transaction: tx, Alerts: result}, nil
}

// UpdateTransaction applies a partial update and recomputes derived
// state for everything the old and new versions touch: both accounts if
// the transaction moved, and the budgets matching either version.
func (e *Engine) UpdateTransaction(ctx context.Context, id string, upd TransactionUpdate) (*MutationResult, error) {
	old, err := e.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}

	tx := *old
	if upd.AccountID != nil {
		tx.AccountID = *upd.AccountID
	}
	if upd.Date != nil {
		tx.Date = *upd.Date
	}
	if upd.Amount != nil {
		tx.Amount = *upd.Amount
	}
	if upd.Description != nil {
		tx.Description = *upd.Description
	}
	if upd.Category != nil {
		tx.Category = *upd.Category
	}
	if upd.Type != nil {
		tx.Type = *upd.Type
	}
	if upd.Tags != nil {
		tx.Tags = *upd.Tags
	}

	if err := ledger.ValidateTransaction(&tx).Err(); err != nil {
		return nil, err
	}
	if tx.AccountID != old.AccountID {
		if _, err := e.store.GetAccount(ctx, tx.AccountID); err != nil {
			return nil, fmt.Errorf("UpdateTransaction: %w", err)
		}
	}

	tx.UpdatedAt = e.now()
	if err := e.store.SaveTransaction(ctx, &tx); err != nil {
		return nil, fmt.Errorf("UpdateTransaction: save: %w", err)
	}

	// The old version's account and budgets are stale too.
	if old.AccountID != tx.AccountID {
		if err := e.refreshBalance(ctx, old.AccountID); err != nil {
			return nil, fmt.Errorf("UpdateTransaction: %w", err)
		}
	}
	oldTouched, err := e.touchedBudgets(ctx, old.Category, old.Date)
	if err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}

	raised, err := e.recomputeAfterTransaction(ctx, tx.AccountID, tx.Category, tx.Date)
	if err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}

	extra, err := e.budgetAlerts(ctx, excludeBudgets(oldTouched, raised))
	if err != nil {
		return nil, fmt.Errorf("UpdateTransaction: %w", err)
	}
	raised = append(raised, extra...)

	return &MutationResult{Transaction: &tx, Alerts: raised}, nil
}

// DeleteTransaction removes a transaction and recomputes the owning
// account's balance and any budget the transaction counted against.
func (e *Engine) DeleteTransaction(ctx context.Context, id string) (*MutationResult, error) {
	tx, err := e.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("DeleteTransaction: %w", err)
	}

	if err := e.store.DeleteTransaction(ctx, id); err != nil {
		return nil, fmt.Errorf("DeleteTransaction: %w", err)
	}

	raised, err := e.recomputeAfterTransaction(ctx, tx.AccountID, tx.Category, tx.Date)
	if err != nil {
		return nil, fmt.Errorf("DeleteTransaction: %w", err)
	}

	e.log.Info().Str("transaction_id", id).Msg("transaction deleted")
	return &MutationResult{Transaction: tx, Alerts: raised}, nil
}

// recomputeAfterTransaction is the dependency-ordered recompute pass:
// account balance, then progress and alerts for the touched budgets.
func (e *Engine) recomputeAfterTransaction(ctx context.Context, accountID, category string, date time.Time) ([]alerts.Alert, error) {
	if err := e.refreshBalance(ctx, accountID); err != nil {
		return nil, err
	}

	touched, err := e.touchedBudgets(ctx, category, date)
	if err != nil {
		return nil, err
	}
	return e.budgetAlerts(ctx, touched)
}

// excludeBudgets drops budgets that already produced an alert in the
// given set, so one evaluation pass yields at most one alert per budget.
func excludeBudgets(budgets []*ledger.Budget, raised []alerts.Alert) []*ledger.Budget {
	seen := make(map[string]bool, len(raised))
	for _, a := range raised {
		seen[a.EntityID] = true
	}

	var out []*ledger.Budget
	for _, b := range budgets {
		if !seen[b.ID] {
			out = append(out, b)
		}
	}
	return out
}
