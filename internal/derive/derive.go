// Package derive holds the pure derivation functions: account balance,
// budget progress and goal progress. Nothing here touches a store or
// mutates its inputs; the engine feeds these functions entity snapshots
// and persists or reports whatever they return.
package derive

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/budget-engine/internal/ledger"
)

// BudgetStatus summarizes how much of a budget has been consumed.
type BudgetStatus string

const (
	StatusSafe     BudgetStatus = "safe"
	StatusWarning  BudgetStatus = "warning"
	StatusDanger   BudgetStatus = "danger"
	StatusInactive BudgetStatus = "inactive"
)

var (
	hundred          = decimal.NewFromInt(100)
	warningThreshold = decimal.NewFromInt(80)
)

// BudgetProgress is the derived state of one budget. It is recomputed
// from the transaction log on demand and never persisted.
type BudgetProgress struct {
	BudgetID string          `json:"budget_id"`
	Category string          `json:"category"`
	Spent    decimal.Decimal `json:"spent"`
	// Remaining is max(0, limit - spent).
	Remaining decimal.Decimal `json:"remaining"`
	// Percentage is capped at 100 for display.
	Percentage decimal.Decimal `json:"percentage"`
	// RawPercentage is uncapped; 125% stays distinguishable from 100%.
	// Alert severity is decided on this value.
	RawPercentage decimal.Decimal `json:"raw_percentage"`
	Status        BudgetStatus    `json:"status"`
}

// GoalSummary is the derived state of one savings goal.
type GoalSummary struct {
	GoalID string `json:"goal_id"`
	// Percentage is the uncapped progress ratio.
	Percentage decimal.Decimal `json:"percentage"`
	// Remaining is max(0, target - current).
	Remaining     decimal.Decimal `json:"remaining"`
	Achieved      bool            `json:"achieved"`
	DaysRemaining int             `json:"days_remaining"`
	// RequiredDailyContribution is zero once the goal is achieved. When
	// the target date has passed, it equals the full remaining amount,
	// signalling "immediately due".
	RequiredDailyContribution decimal.Decimal `json:"required_daily_contribution"`
	// ProjectedCompletion extrapolates linearly from the goal's creation
	// date and its contribution rate so far. It is nil when the goal has
	// made zero progress: no rate exists, so no projection is available.
	ProjectedCompletion *time.Time `json:"projected_completion,omitempty"`
	HasProjection       bool       `json:"has_projection"`
}

// AccountBalance computes initial balance plus the signed sum of the
// account's transactions. Summation is commutative, so insertion order
// never changes the result. Transactions on other accounts are skipped.
func AccountBalance(a *ledger.Account, txs []*ledger.Transaction) decimal.Decimal {
	balance := a.InitialBalance
	for _, tx := range txs {
		if tx.AccountID != a.ID {
			continue
		}
		balance = balance.Add(tx.Amount)
	}
	return balance
}

// ComputeBudgetProgress sums the absolute amounts of expense
// transactions that match the budget's category exactly and fall inside
// its window, inclusive of both endpoints.
func ComputeBudgetProgress(b *ledger.Budget, txs []*ledger.Transaction) BudgetProgress {
	spent := decimal.Zero
	for _, tx := range txs {
		if b.Matches(tx) {
			spent = spent.Add(tx.Amount.Abs())
		}
	}
	return progressFromSpent(b, spent)
}

// ProgressWithCandidate derives progress as if the candidate amount had
// already been spent, without recording anything. Used for the
// warn-before-you-spend check.
func ProgressWithCandidate(b *ledger.Budget, txs []*ledger.Transaction, candidate decimal.Decimal) BudgetProgress {
	base := ComputeBudgetProgress(b, txs)
	return progressFromSpent(b, base.Spent.Add(candidate.Abs()))
}

func progressFromSpent(b *ledger.Budget, spent decimal.Decimal) BudgetProgress {
	p := BudgetProgress{
		BudgetID: b.ID,
		Category: b.Category,
		Spent:    spent,
		Status:   StatusSafe,
	}

	p.Remaining = b.Limit.Sub(spent)
	if p.Remaining.IsNegative() {
		p.Remaining = decimal.Zero
	}

	if b.Limit.IsPositive() {
		p.RawPercentage = spent.Div(b.Limit).Mul(hundred)
	} else {
		p.RawPercentage = decimal.Zero
	}

	p.Percentage = p.RawPercentage
	if p.Percentage.GreaterThan(hundred) {
		p.Percentage = hundred
	}

	switch {
	case !b.IsActive:
		p.Status = StatusInactive
	case p.RawPercentage.GreaterThanOrEqual(hundred):
		p.Status = StatusDanger
	case p.RawPercentage.GreaterThanOrEqual(warningThreshold):
		p.Status = StatusWarning
	}

	return p
}

// ComputeGoalSummary derives a goal's progress and projections at the
// given instant.
func ComputeGoalSummary(g *ledger.Goal, now time.Time) GoalSummary {
	s := GoalSummary{
		GoalID:   g.ID,
		Achieved: g.Achieved(),
	}

	if g.TargetAmount.IsPositive() {
		s.Percentage = g.CurrentAmount.Div(g.TargetAmount).Mul(hundred)
	}

	s.Remaining = g.TargetAmount.Sub(g.CurrentAmount)
	if s.Remaining.IsNegative() {
		s.Remaining = decimal.Zero
	}

	s.DaysRemaining = daysUntil(now, g.TargetDate)

	if s.Achieved {
		s.RequiredDailyContribution = decimal.Zero
	} else {
		days := s.DaysRemaining
		if days <= 0 {
			days = 1
		}
		s.RequiredDailyContribution = s.Remaining.Div(decimal.NewFromInt(int64(days)))
	}

	if proj, ok := projectCompletion(g, now); ok {
		s.ProjectedCompletion = &proj
		s.HasProjection = true
	}

	return s
}

// daysUntil is the number of whole or partial days from now until the
// target, rounded up, floored at zero.
func daysUntil(now, target time.Time) int {
	d := target.Sub(now)
	if d <= 0 {
		return 0
	}
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// projectCompletion extrapolates when the goal reaches its target from
// the average contribution rate since creation. A goal with zero
// progress has no rate; ok is false and callers must treat the
// projection as unavailable rather than substituting a far-future date.
func projectCompletion(g *ledger.Goal, now time.Time) (time.Time, bool) {
	if !g.CurrentAmount.IsPositive() {
		return time.Time{}, false
	}
	if g.Achieved() {
		return now, true
	}

	elapsed := now.Sub(g.CreatedAt)
	if elapsed < 24*time.Hour {
		elapsed = 24 * time.Hour
	}
	elapsedDays := decimal.NewFromFloat(elapsed.Hours() / 24)

	ratePerDay := g.CurrentAmount.Div(elapsedDays)
	remaining := g.TargetAmount.Sub(g.CurrentAmount)
	daysToGo := remaining.Div(ratePerDay)

	hours := daysToGo.Mul(decimal.NewFromInt(24)).InexactFloat64()
	return now.Add(time.Duration(hours * float64(time.Hour))), true
}
