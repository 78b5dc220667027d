package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account for validation and reporting.
type AccountType string

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountCredit     AccountType = "credit"
	AccountInvestment AccountType = "investment"
)

// TransactionType tags a transaction for categorical filtering.
// The signed Amount remains the source of truth for arithmetic;
// Type is only consulted when filtering (e.g. budget spend).
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// Period is the length of a budget window.
type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// Account holds money and owns transactions.
//
// Balance is a derived cache: InitialBalance plus the signed sum of the
// account's transactions. It is refreshed by the engine after every
// transaction mutation and must never be edited directly in steady state.
type Account struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Type           AccountType     `json:"type"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	Balance        decimal.Decimal `json:"balance"`
	Currency       string          `json:"currency"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Transaction is one signed movement of money on an account.
type Transaction struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Type        TransactionType `json:"type"`
	Tags        []string        `json:"tags,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Budget caps expense spending for one category over one period window.
// It owns no transactions; spent amounts are always recomputed from the
// transaction log by category and date window.
type Budget struct {
	ID        string          `json:"id"`
	Category  string          `json:"category"`
	Limit     decimal.Decimal `json:"limit"`
	Period    Period          `json:"period"`
	StartDate time.Time       `json:"start_date"`
	EndDate   time.Time       `json:"end_date"`
	IsActive  bool            `json:"is_active"`

	// SuccessorID is set once the budget has been rolled into its
	// next-period successor. A rolled budget is terminal.
	SuccessorID string `json:"successor_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Goal is a savings target funded by explicit contributions,
// independent of the transaction log.
type Goal struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	TargetDate    time.Time       `json:"target_date"`
	AccountID     string          `json:"account_id"`
	IsCompleted   bool            `json:"is_completed"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Achieved reports whether the goal has reached its target.
func (g *Goal) Achieved() bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// InWindow reports whether a date falls inside the budget's window,
// inclusive of both endpoints. The window bounds are day-start instants,
// so the date is truncated to its day before comparing; a transaction
// stamped at noon on the end date still counts.
func (b *Budget) InWindow(date time.Time) bool {
	day := DayStart(date)
	return !day.Before(b.StartDate) && !day.After(b.EndDate)
}

// Matches reports whether an expense transaction counts against this
// budget: exact category string match, expense type, date in window.
func (b *Budget) Matches(tx *Transaction) bool {
	return tx.Category == b.Category && tx.Type == TransactionExpense && b.InWindow(tx.Date)
}
