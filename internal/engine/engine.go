// Package engine orchestrates mutations over the entity collections.
// It is the single writer: every create, update and delete runs through
// it, and each transaction mutation triggers exactly the downstream
// recomputations it affects, in dependency order - the owning account's
// balance first, then progress for the active budgets whose category
// and window the transaction touches, then alerts for those budgets.
// Goal progress is driven by explicit contributions, never by
// transaction mutations.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/budget-engine/internal/alerts"
	"github.com/dvloznov/budget-engine/internal/ledger"
)

// Engine wires the store to the derivation, alert and rollover logic.
// It holds no entity state of its own; the current snapshot is always
// read from the store, so independent engines over separate stores do
// not interfere.
type Engine struct {
	store ledger.Store
	log   zerolog.Logger
	now   func() time.Time
}

// New creates an engine over a store. A nil store is a programmer
// error and panics.
func New(store ledger.Store, log zerolog.Logger) *Engine {
	if store == nil {
		panic("engine: nil store")
	}
	return &Engine{
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// MutationResult is returned by transaction mutations: the stored
// record plus the alerts raised by the recomputation pass.
type MutationResult struct {
	Transaction *ledger.Transaction `json:"transaction"`
	Alerts      []alerts.Alert      `json:"alerts,omitempty"`
}

// touchedBudgets returns the active budgets affected by a transaction
// with the given category and date: exact category match, window
// containing the date. Unrelated budgets are never recomputed.
func (e *Engine) touchedBudgets(ctx context.Context, category string, date time.Time) ([]*ledger.Budget, error) {
	budgets, err := e.store.ListBudgets(ctx, ledger.BudgetFilter{Category: category, ActiveOnly: true})
	if err != nil {
		return nil, err
	}

	var touched []*ledger.Budget
	for _, b := range budgets {
		if b.InWindow(date) {
			touched = append(touched, b)
		}
	}
	return touched, nil
}

// budgetAlerts runs one alert evaluation pass over the given budgets,
// scoping each spend recomputation to the budget's category and window.
func (e *Engine) budgetAlerts(ctx context.Context, budgets []*ledger.Budget) ([]alerts.Alert, error) {
	var out []alerts.Alert
	for _, b := range budgets {
		txs, err := e.store.ListTransactions(ctx, ledger.TransactionFilter{
			Category: b.Category,
			Type:     ledger.TransactionExpense,
			From:     b.StartDate,
			To:       b.EndDate,
		})
		if err != nil {
			return nil, err
		}
		if a := alerts.EvaluateBudgets([]*ledger.Budget{b}, txs); len(a) > 0 {
			out = append(out, a...)
		}
	}
	return out, nil
}
