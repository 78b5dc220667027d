package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/budget-engine/internal/ledger"
)

// GoalUpdate is a partial goal payload. Nil fields are left unchanged.
// CurrentAmount is deliberately absent: contributions go through
// Contribute so the completion flip happens in the same operation.
type GoalUpdate struct {
	Name         *string
	Description  *string
	TargetAmount *decimal.Decimal
	TargetDate   *time.Time
	AccountID    *string
}

// CreateGoal validates and stores a new goal. A goal created at or past
// its target is completed immediately.
func (e *Engine) CreateGoal(ctx context.Context, g *ledger.Goal) (*ledger.Goal, error) {
	now := e.now()

	// Completion is derived before validation so the target-date-in-
	// future rule exempts a goal that already meets its target.
	g.IsCompleted = g.Achieved()
	if err := ledger.ValidateGoal(g, now).Err(); err != nil {
		return nil, err
	}
	if g.AccountID != "" {
		if _, err := e.store.GetAccount(ctx, g.AccountID); err != nil {
			return nil, fmt.Errorf("CreateGoal: %w", err)
		}
	}

	g.ID = uuid.NewString()
	g.CreatedAt = now
	g.UpdatedAt = now

	if err := e.store.SaveGoal(ctx, g); err != nil {
		return nil, fmt.Errorf("CreateGoal: save: %w", err)
	}

	e.log.Info().Str("goal_id", g.ID).Str("name", g.Name).Msg("goal created")
	return g, nil
}

// UpdateGoal applies a partial update. Lowering the target below the
// current amount flips the goal to completed in the same operation.
func (e *Engine) UpdateGoal(ctx context.Context, id string, upd GoalUpdate) (*ledger.Goal, error) {
	g, err := e.store.GetGoal(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("UpdateGoal: %w", err)
	}

	if upd.Name != nil {
		g.Name = *upd.Name
	}
	if upd.Description != nil {
		g.Description = *upd.Description
	}
	if upd.TargetAmount != nil {
		g.TargetAmount = *upd.TargetAmount
	}
	if upd.TargetDate != nil {
		g.TargetDate = *upd.TargetDate
	}
	if upd.AccountID != nil {
		g.AccountID = *upd.AccountID
	}

	g.IsCompleted = g.Achieved()
	if err := ledger.ValidateGoal(g, e.now()).Err(); err != nil {
		return nil, err
	}

	g.UpdatedAt = e.now()
	if err := e.store.SaveGoal(ctx, g); err != nil {
		return nil, fmt.Errorf("UpdateGoal: save: %w", err)
	}
	return g, nil
}

// DeleteGoal removes a goal.
func (e *Engine) DeleteGoal(ctx context.Context, id string) error {
	if err := e.store.DeleteGoal(ctx, id); err != nil {
		return fmt.Errorf("DeleteGoal: %w", err)
	}
	return nil
}

// Contribute adds a non-negative amount to a goal's current total.
// Reaching the target flips IsCompleted in the same operation. There is
// no withdrawal: contributions only ever grow the total.
func (e *Engine) Contribute(ctx context.Context, goalID string, amount decimal.Decimal) (*ledger.Goal, error) {
	if amount.IsNegative() {
		return nil, &ledger.ValidationError{Errors: []string{"contribution cannot be negative"}}
	}

	g, err := e.store.GetGoal(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("Contribute: %w", err)
	}

	g.CurrentAmount = g.CurrentAmount.Add(amount)
	g.IsCompleted = g.Achieved()

	// The full goal validator also enforces the target-date rule, which
	// must not block late contributions; only the overshoot cap applies.
	if err := ledger.ValidateGoalAmounts(g).Err(); err != nil {
		return nil, err
	}

	g.UpdatedAt = e.now()
	if err := e.store.SaveGoal(ctx, g); err != nil {
		return nil, fmt.Errorf("Contribute: save: %w", err)
	}

	e.log.Info().
		Str("goal_id", g.ID).
		Str("amount", amount.String()).
		Bool("completed", g.IsCompleted).
		Msg("goal contribution recorded")
	return g, nil
}
