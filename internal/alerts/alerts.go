// Package alerts turns derived budget and goal state into user-facing
// alerts. Severity is decided on the uncapped consumption ratio. The
// engine produces at most one alert per entity per evaluation pass;
// dismissal bookkeeping belongs to the caller and is keyed by entity id.
package alerts

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/budget-engine/internal/derive"
	"github.com/dvloznov/budget-engine/internal/ledger"
)

// Severity grades an alert.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

var (
	hundred          = decimal.NewFromInt(100)
	warningThreshold = decimal.NewFromInt(80)
)

// goalDeadlineWindow is how close to its target date an unfinished goal
// must be before a deadline warning is raised.
const goalDeadlineWindow = 7

// Alert is a derived record, never persisted. Re-evaluating produces a
// fresh set; duplicates cannot accumulate.
type Alert struct {
	EntityID   string          `json:"entity_id"`
	Category   string          `json:"category"`
	Severity   Severity        `json:"severity"`
	Message    string          `json:"message"`
	Percentage decimal.Decimal `json:"percentage"`
}

// EvaluateBudget converts budget progress into an alert, or nil when
// consumption is below the warning threshold.
//
// Thresholds on the raw ratio: below 80% no alert, 80% up to but not
// including 100% warning, 100% and above danger.
func EvaluateBudget(p derive.BudgetProgress) *Alert {
	raw := p.RawPercentage

	switch {
	case raw.GreaterThanOrEqual(hundred):
		return &Alert{
			EntityID:   p.BudgetID,
			Category:   p.Category,
			Severity:   SeverityDanger,
			Message:    fmt.Sprintf("budget for %q is exceeded: spent %s of the limit", p.Category, p.Spent.StringFixed(2)),
			Percentage: raw,
		}
	case raw.GreaterThanOrEqual(warningThreshold):
		return &Alert{
			EntityID:   p.BudgetID,
			Category:   p.Category,
			Severity:   SeverityWarning,
			Message:    fmt.Sprintf("budget for %q is %s%% used", p.Category, raw.StringFixed(1)),
			Percentage: raw,
		}
	default:
		return nil
	}
}

// EvaluateGoal raises a deadline warning for a goal that is within a
// week of its target date and not yet achieved.
func EvaluateGoal(g *ledger.Goal, summary derive.GoalSummary) *Alert {
	if summary.Achieved || g.IsCompleted {
		return nil
	}
	if summary.DaysRemaining > goalDeadlineWindow {
		return nil
	}
	return &Alert{
		EntityID:   g.ID,
		Category:   g.Name,
		Severity:   SeverityWarning,
		Message:    fmt.Sprintf("goal %q is %d days from its target date at %s%% progress", g.Name, summary.DaysRemaining, summary.Percentage.StringFixed(1)),
		Percentage: summary.Percentage,
	}
}

// EvaluateBudgets runs one evaluation pass over a set of budgets,
// producing at most one alert per budget.
func EvaluateBudgets(budgets []*ledger.Budget, txs []*ledger.Transaction) []Alert {
	var out []Alert
	for _, b := range budgets {
		p := derive.ComputeBudgetProgress(b, txs)
		if a := EvaluateBudget(p); a != nil {
			out = append(out, *a)
		}
	}
	return out
}

// WouldTrigger reports the alert a candidate expense would raise if it
// were committed, using the pre-commit spent total plus the candidate's
// absolute amount. No derived state is mutated; the transaction is not
// recorded. Returns nil when the candidate falls outside the budget's
// window or leaves consumption below the warning threshold.
func WouldTrigger(b *ledger.Budget, txs []*ledger.Transaction, candidate decimal.Decimal, date time.Time) *Alert {
	if !b.InWindow(date) {
		return nil
	}
	p := derive.ProgressWithCandidate(b, txs, candidate)
	return EvaluateBudget(p)
}
