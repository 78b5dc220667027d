package engine

import (
	"context"
	"fmt"

	"github.com/dvloznov/budget-engine/internal/alerts"
	"github.com/dvloznov/budget-engine/internal/derive"
	"github.com/dvloznov/budget-engine/internal/ledger"
)

// BudgetProgress derives the current progress for one budget, scoping
// the transaction scan to the budget's category and window.
func (e *Engine) BudgetProgress(ctx context.Context, budgetID string) (derive.BudgetProgress, error) {
	b, err := e.store.GetBudget(ctx, budgetID)
	if err != nil {
		return derive.BudgetProgress{}, fmt.Errorf("BudgetProgress: %w", err)
	}

	txs, err := e.budgetTransactions(ctx, b)
	if err != nil {
		return derive.BudgetProgress{}, fmt.Errorf("BudgetProgress: %w", err)
	}
	return derive.ComputeBudgetProgress(b, txs), nil
}

// AllBudgetProgress derives progress for every budget.
func (e *Engine) AllBudgetProgress(ctx context.Context) ([]derive.BudgetProgress, error) {
	budgets, err := e.store.ListBudgets(ctx, ledger.BudgetFilter{})
	if err != nil {
		return nil, fmt.Errorf("AllBudgetProgress: list: %w", err)
	}

	out := make([]derive.BudgetProgress, 0, len(budgets))
	for _, b := range budgets {
		txs, err := e.budgetTransactions(ctx, b)
		if err != nil {
			return nil, fmt.Errorf("AllBudgetProgress: %w", err)
		}
		out = append(out, derive.ComputeBudgetProgress(b, txs))
	}
	return out, nil
}

// GoalSummary derives the progress summary for one goal.
func (e *Engine) GoalSummary(ctx context.Context, goalID string) (derive.GoalSummary, error) {
	g, err := e.store.GetGoal(ctx, goalID)
	if err != nil {
		return derive.GoalSummary{}, fmt.Errorf("GoalSummary: %w", err)
	}
	return derive.ComputeGoalSummary(g, e.now()), nil
}

// Alerts runs a full evaluation pass: every active budget plus every
// goal nearing its deadline. One alert per entity per pass; the caller
// owns any dismissal set.
func (e *Engine) Alerts(ctx context.Context) ([]alerts.Alert, error) {
	budgets, err := e.store.ListBudgets(ctx, ledger.BudgetFilter{ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("Alerts: list budgets: %w", err)
	}

	out, err := e.budgetAlerts(ctx, budgets)
	if err != nil {
		return nil, fmt.Errorf("Alerts: %w", err)
	}

	goals, err := e.store.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("Alerts: list goals: %w", err)
	}
	now := e.now()
	for _, g := range goals {
		if a := alerts.EvaluateGoal(g, derive.ComputeGoalSummary(g, now)); a != nil {
			out = append(out, *a)
		}
	}

	return out, nil
}

// CheckTransaction reports the alert a candidate expense would raise if
// committed, without recording it. Returns nil when no active budget
// matches or the projected consumption stays below the warning
// threshold.
func (e *Engine) CheckTransaction(ctx context.Context, candidate *ledger.Transaction) (*alerts.Alert, error) {
	if err := ledger.ValidateTransaction(candidate).Err(); err != nil {
		return nil, err
	}

	touched, err := e.touchedBudgets(ctx, candidate.Category, candidate.Date)
	if err != nil {
		return nil, fmt.Errorf("CheckTransaction: %w", err)
	}

	for _, b := range touched {
		txs, err := e.budgetTransactions(ctx, b)
		if err != nil {
			return nil, fmt.Errorf("CheckTransaction: %w", err)
		}
		if a := alerts.WouldTrigger(b, txs, candidate.Amount, candidate.Date); a != nil {
			return a, nil
		}
	}
	return nil, nil
}

// budgetTransactions lists the expense transactions inside a budget's
// category and window.
func (e *Engine) budgetTransactions(ctx context.Context, b *ledger.Budget) ([]*ledger.Transaction, error) {
	return e.store.ListTransactions(ctx, ledger.TransactionFilter{
		Category: b.Category,
		Type:     ledger.TransactionExpense,
		From:     b.StartDate,
		To:       b.EndDate,
	})
}
