package ledger

import (
	"context"
	"time"
)

// Store holds the four entity collections. The engine is the single
// writer; readers receive copies and must route every mutation through
// the engine's operations so derived caches stay consistent.
//
// This abstraction allows different backing implementations (in-memory,
// database-backed) without touching the derivation code.
type Store interface {
	// SaveAccount inserts or replaces an account.
	SaveAccount(ctx context.Context, a *Account) error
	// GetAccount retrieves an account by id.
	GetAccount(ctx context.Context, id string) (*Account, error)
	// ListAccounts retrieves all accounts.
	ListAccounts(ctx context.Context) ([]*Account, error)
	// DeleteAccount removes an account and every transaction on it.
	DeleteAccount(ctx context.Context, id string) error

	// SaveTransaction inserts or replaces a transaction.
	SaveTransaction(ctx context.Context, t *Transaction) error
	// GetTransaction retrieves a transaction by id.
	GetTransaction(ctx context.Context, id string) (*Transaction, error)
	// ListTransactions retrieves transactions matching the filter.
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]*Transaction, error)
	// DeleteTransaction removes a transaction.
	DeleteTransaction(ctx context.Context, id string) error

	// SaveBudget inserts or replaces a budget.
	SaveBudget(ctx context.Context, b *Budget) error
	// GetBudget retrieves a budget by id.
	GetBudget(ctx context.Context, id string) (*Budget, error)
	// ListBudgets retrieves budgets matching the filter.
	ListBudgets(ctx context.Context, filter BudgetFilter) ([]*Budget, error)
	// DeleteBudget removes a budget.
	DeleteBudget(ctx context.Context, id string) error

	// SaveGoal inserts or replaces a goal.
	SaveGoal(ctx context.Context, g *Goal) error
	// GetGoal retrieves a goal by id.
	GetGoal(ctx context.Context, id string) (*Goal, error)
	// ListGoals retrieves all goals.
	ListGoals(ctx context.Context) ([]*Goal, error)
	// DeleteGoal removes a goal.
	DeleteGoal(ctx context.Context, id string) error
}

// TransactionFilter narrows a transaction listing. Zero-valued fields
// are ignored. From and To are inclusive day bounds.
type TransactionFilter struct {
	AccountID string
	Category  string
	Type      TransactionType
	From      time.Time
	To        time.Time
}

// Match reports whether a transaction passes the filter.
func (f TransactionFilter) Match(t *Transaction) bool {
	if f.AccountID != "" && t.AccountID != f.AccountID {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	day := DayStart(t.Date)
	if !f.From.IsZero() && day.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && day.After(f.To) {
		return false
	}
	return true
}

// BudgetFilter narrows a budget listing. Zero-valued fields are ignored.
type BudgetFilter struct {
	Category   string
	ActiveOnly bool
}

// Match reports whether a budget passes the filter.
func (f BudgetFilter) Match(b *Budget) bool {
	if f.Category != "" && b.Category != f.Category {
		return false
	}
	if f.ActiveOnly && !b.IsActive {
		return false
	}
	return true
}
