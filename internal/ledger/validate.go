package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Field length caps and numeric bounds enforced by the validators.
const (
	MaxAccountNameLen     = 100
	MaxBudgetCategoryLen  = 50
	MaxGoalNameLen        = 100
	MaxGoalDescriptionLen = 500
)

var (
	maxBudgetLimit = decimal.NewFromInt(1_000_000)
	maxGoalTarget  = decimal.NewFromInt(10_000_000)

	// A goal's current amount may overshoot its target by at most 10%.
	goalOvershootFactor = decimal.RequireFromString("1.1")
)

// endDateTolerance is how far a budget's end date may drift from the
// period-derived end date before validation rejects it.
const endDateTolerance = 24 * time.Hour

// ValidateAccount checks an account payload. All rules run; every
// failing message is collected. It never panics and never returns an
// error value.
//
// Balance-sign rules are advisory at creation/edit time only: a savings
// account can still go negative later through backdated transactions,
// which the engine does not forbid retroactively.
func ValidateAccount(a *Account) ValidationResult {
	res := validResult()

	if a.Name == "" {
		res.fail("name is required")
	} else if len(a.Name) > MaxAccountNameLen {
		res.fail("name exceeds %d characters", MaxAccountNameLen)
	}

	switch a.Type {
	case AccountChecking, AccountSavings, AccountCredit, AccountInvestment:
	case "":
		res.fail("type is required")
	default:
		res.fail("unknown account type %q", a.Type)
	}

	if a.Currency == "" {
		res.fail("currency is required")
	} else if !SupportedCurrency(a.Currency) {
		res.fail("unsupported currency %q", a.Currency)
	}

	switch a.Type {
	case AccountSavings, AccountInvestment:
		if a.InitialBalance.IsNegative() {
			res.fail("%s account cannot be created with a negative balance", a.Type)
		}
	case AccountCredit:
		if a.InitialBalance.IsPositive() {
			res.fail("credit account cannot be created with a positive balance")
		}
	}

	return res
}

// ValidateTransaction checks a transaction payload. The referenced
// account's existence is checked by the engine, not here.
func ValidateTransaction(t *Transaction) ValidationResult {
	res := validResult()

	if t.AccountID == "" {
		res.fail("account_id is required")
	}
	if t.Date.IsZero() {
		res.fail("date is required")
	}
	if t.Description == "" {
		res.fail("description is required")
	}

	switch t.Type {
	case TransactionIncome, TransactionExpense:
	case "":
		res.fail("type is required")
	default:
		res.fail("unknown transaction type %q", t.Type)
	}

	// Type and amount sign carry redundant information. The signed
	// amount stays authoritative for arithmetic and type for filtering,
	// but a disagreement is flagged instead of silently picked apart.
	if t.Type == TransactionIncome && t.Amount.IsNegative() {
		res.fail("income transaction has a negative amount")
	}

	return res
}

// ValidateBudget checks a budget payload, including the period-derived
// end date within a one-day tolerance.
func ValidateBudget(b *Budget) ValidationResult {
	res := validResult()

	if b.Category == "" {
		res.fail("category is required")
	} else if len(b.Category) > MaxBudgetCategoryLen {
		res.fail("category exceeds %d characters", MaxBudgetCategoryLen)
	}

	if !b.Limit.IsPositive() {
		res.fail("limit must be positive")
	} else if b.Limit.GreaterThan(maxBudgetLimit) {
		res.fail("limit exceeds %s", maxBudgetLimit.String())
	}

	switch b.Period {
	case PeriodWeekly, PeriodMonthly:
	case "":
		res.fail("period is required")
	default:
		res.fail("unknown period %q", b.Period)
	}

	if b.StartDate.IsZero() {
		res.fail("start_date is required")
		return res
	}

	if !b.EndDate.IsZero() {
		if !b.EndDate.After(b.StartDate) {
			res.fail("end_date must be after start_date")
		}
		if b.Period == PeriodWeekly || b.Period == PeriodMonthly {
			derived := PeriodEnd(b.StartDate, b.Period)
			drift := b.EndDate.Sub(derived)
			if drift < 0 {
				drift = -drift
			}
			if drift > endDateTolerance {
				res.fail("end_date %s does not match the %s period (expected %s)",
					b.EndDate.Format("2006-01-02"), b.Period, derived.Format("2006-01-02"))
			}
		}
	}

	return res
}

// ValidateGoal checks a goal payload. now is the clock used for the
// target-date-in-future rule.
func ValidateGoal(g *Goal, now time.Time) ValidationResult {
	res := validResult()

	if g.Name == "" {
		res.fail("name is required")
	} else if len(g.Name) > MaxGoalNameLen {
		res.fail("name exceeds %d characters", MaxGoalNameLen)
	}

	if len(g.Description) > MaxGoalDescriptionLen {
		res.fail("description exceeds %d characters", MaxGoalDescriptionLen)
	}

	amounts := ValidateGoalAmounts(g)
	if !amounts.Valid {
		res.Valid = false
		res.Errors = append(res.Errors, amounts.Errors...)
	}

	if g.TargetDate.IsZero() {
		res.fail("target_date is required")
	} else if !g.IsCompleted && !g.TargetDate.After(now) {
		res.fail("target_date must be in the future")
	}

	return res
}

// ValidateGoalAmounts checks only the numeric rules of a goal payload.
// It is the subset applied to contributions, where the target-date rule
// must not reject a late but otherwise valid deposit.
func ValidateGoalAmounts(g *Goal) ValidationResult {
	res := validResult()

	if !g.TargetAmount.IsPositive() {
		res.fail("target_amount must be positive")
	} else if g.TargetAmount.GreaterThan(maxGoalTarget) {
		res.fail("target_amount exceeds %s", maxGoalTarget.String())
	}

	if g.CurrentAmount.IsNegative() {
		res.fail("current_amount cannot be negative")
	} else if g.TargetAmount.IsPositive() &&
		g.CurrentAmount.GreaterThan(g.TargetAmount.Mul(goalOvershootFactor)) {
		res.fail("current_amount exceeds target_amount by more than 10%%")
	}

	return res
}

// PeriodEnd derives the inclusive end of a budget window from its start
// date: six days later for weekly, the day before the same date next
// month for monthly. The result is truncated to day start.
func PeriodEnd(start time.Time, period Period) time.Time {
	day := DayStart(start)
	switch period {
	case PeriodWeekly:
		return day.AddDate(0, 0, 6)
	case PeriodMonthly:
		return day.AddDate(0, 1, 0).AddDate(0, 0, -1)
	default:
		return day
	}
}

// DayStart truncates a time to midnight in its own location.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
