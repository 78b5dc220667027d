package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/budget-engine/internal/ledger"
	"github.com/dvloznov/budget-engine/internal/rollover"
)

// BudgetUpdate is a partial budget payload. Nil fields are left
// unchanged.
type BudgetUpdate struct {
	Category  *string
	Limit     *decimal.Decimal
	Period    *ledger.Period
	StartDate *time.Time
	EndDate   *time.Time
	IsActive  *bool
}

// CreateBudget validates and stores a new active budget. The end date
// is derived from the start date and period unless explicitly provided.
// A second active budget for the same category is rejected.
func (e *Engine) CreateBudget(ctx context.Context, b *ledger.Budget) (*ledger.Budget, error) {
	if b.EndDate.IsZero() && !b.StartDate.IsZero() {
		b.EndDate = ledger.PeriodEnd(b.StartDate, b.Period)
	}
	if err := ledger.ValidateBudget(b).Err(); err != nil {
		return nil, err
	}

	if err := e.checkActiveUnique(ctx, b.Category, ""); err != nil {
		return nil, fmt.Errorf("CreateBudget: %w", err)
	}

	now := e.now()
	b.ID = uuid.NewString()
	b.IsActive = true
	b.CreatedAt = now
	b.UpdatedAt = now

	if err := e.store.SaveBudget(ctx, b); err != nil {
		return nil, fmt.Errorf("CreateBudget: save: %w", err)
	}

	e.log.Info().
		Str("budget_id", b.ID).
		Str("category", b.Category).
		Str("limit", b.Limit.String()).
		Msg("budget created")
	return b, nil
}

// UpdateBudget applies a partial update and re-validates. Re-activating
// a budget or changing its category re-checks the one-active-per-
// category rule.
func (e *Engine) UpdateBudget(ctx context.Context, id string, upd BudgetUpdate) (*ledger.Budget, error) {
	b, err := e.store.GetBudget(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("UpdateBudget: %w", err)
	}

	if upd.Category != nil {
		b.Category = *upd.Category
	}
	if upd.Limit != nil {
		b.Limit = *upd.Limit
	}
	if upd.Period != nil {
		b.Period = *upd.Period
	}
	if upd.StartDate != nil {
		b.StartDate = *upd.StartDate
	}
	if upd.EndDate != nil {
		b.EndDate = *upd.EndDate
	} else if upd.Period != nil || upd.StartDate != nil {
		b.EndDate = ledger.PeriodEnd(b.StartDate, b.Period)
	}
	if upd.IsActive != nil {
		b.IsActive = *upd.IsActive
	}

	if err := ledger.ValidateBudget(b).Err(); err != nil {
		return nil, err
	}
	if b.IsActive {
		if err := e.checkActiveUnique(ctx, b.Category, b.ID); err != nil {
			return nil, fmt.Errorf("UpdateBudget: %w", err)
		}
	}

	b.UpdatedAt = e.now()
	if err := e.store.SaveBudget(ctx, b); err != nil {
		return nil, fmt.Errorf("UpdateBudget: save: %w", err)
	}
	return b, nil
}

// DeleteBudget removes a budget. Its transactions are untouched; a
// budget never owns transactions.
func (e *Engine) DeleteBudget(ctx context.Context, id string) error {
	if err := e.store.DeleteBudget(ctx, id); err != nil {
		return fmt.Errorf("DeleteBudget: %w", err)
	}
	return nil
}

// RollExpiredBudgets runs an explicit rollover pass: every active
// budget whose window has closed gets its next-period successor. The
// pass is idempotent - budgets that already rolled are skipped, so no
// budget ever gets two successors. Returns the successors created.
func (e *Engine) RollExpiredBudgets(ctx context.Context) ([]*ledger.Budget, error) {
	now := e.now()

	budgets, err := e.store.ListBudgets(ctx, ledger.BudgetFilter{})
	if err != nil {
		return nil, fmt.Errorf("RollExpiredBudgets: list: %w", err)
	}

	var successors []*ledger.Budget
	for _, b := range budgets {
		if rollover.Classify(b, now) != rollover.StateExpired {
			continue
		}

		// A successor is a new active budget, so it is subject to the
		// one-active-per-category rule like any other create. A manually
		// created replacement blocks the roll until it is deactivated.
		if err := e.checkActiveUnique(ctx, b.Category, b.ID); err != nil {
			if errors.Is(err, ledger.ErrInvariant) {
				e.log.Warn().
					Str("budget_id", b.ID).
					Str("category", b.Category).
					Msg("rollover skipped, category already has an active budget")
				continue
			}
			return successors, fmt.Errorf("RollExpiredBudgets: %w", err)
		}

		succ, err := rollover.Roll(b, now)
		if err != nil {
			return successors, fmt.Errorf("RollExpiredBudgets: budget %s: %w", b.ID, err)
		}

		if err := e.store.SaveBudget(ctx, succ); err != nil {
			return successors, fmt.Errorf("RollExpiredBudgets: save successor: %w", err)
		}
		if err := e.store.SaveBudget(ctx, b); err != nil {
			return successors, fmt.Errorf("RollExpiredBudgets: save predecessor: %w", err)
		}

		e.log.Info().
			Str("budget_id", b.ID).
			Str("successor_id", succ.ID).
			Str("category", b.Category).
			Msg("budget rolled into next period")
		successors = append(successors, succ)
	}

	return successors, nil
}

// checkActiveUnique rejects a second active budget for a category.
// exceptID exempts the budget being updated from its own check.
func (e *Engine) checkActiveUnique(ctx context.Context, category, exceptID string) error {
	existing, err := e.store.ListBudgets(ctx, ledger.BudgetFilter{Category: category, ActiveOnly: true})
	if err != nil {
		return err
	}
	for _, b := range existing {
		if b.ID != exceptID {
			return fmt.Errorf("active budget already exists for category %q: %w", category, ledger.ErrInvariant)
		}
	}
	return nil
}
