package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/budget-engine/internal/ledger"
)

// Store is an in-memory implementation of ledger.Store.
// It keeps each entity collection in a map and is safe for concurrent
// use. Data is lost on restart - persistence is an external concern.
type Store struct {
	mu           sync.RWMutex
	accounts     map[string]*ledger.Account
	transactions map[string]*ledger.Transaction
	budgets      map[string]*ledger.Budget
	goals        map[string]*ledger.Goal
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		accounts:     make(map[string]*ledger.Account),
		transactions: make(map[string]*ledger.Transaction),
		budgets:      make(map[string]*ledger.Budget),
		goals:        make(map[string]*ledger.Goal),
	}
}

// SaveAccount implements the Store interface.
func (s *Store) SaveAccount(ctx context.Context, a *ledger.Account) error {
	if a.ID == "" {
		return fmt.Errorf("account ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *a
	s.accounts[a.ID] = &cp
	return nil
}

// GetAccount implements the Store interface.
// The returned account is a copy; mutating it does not affect the store.
func (s *Store) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.accounts[id]
	if !exists {
		return nil, fmt.Errorf("account %s: %w", id, ledger.ErrNotFound)
	}

	cp := *a
	return &cp, nil
}

// ListAccounts implements the Store interface.
func (s *Store) ListAccounts(ctx context.Context) ([]*ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*ledger.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		cp := *a
		result = append(result, &cp)
	}
	return result, nil
}

// DeleteAccount implements the Store interface.
// Deleting an account also removes every transaction on it.
func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[id]; !exists {
		return fmt.Errorf("account %s: %w", id, ledger.ErrNotFound)
	}
	delete(s.accounts, id)

	for txID, tx := range s.transactions {
		if tx.AccountID == id {
			delete(s.transactions, txID)
		}
	}
	return nil
}

// SaveTransaction implements the Store interface.
func (s *Store) SaveTransaction(ctx context.Context, t *ledger.Transaction) error {
	if t.ID == "" {
		return fmt.Errorf("transaction ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions[t.ID] = copyTransaction(t)
	return nil
}

// GetTransaction implements the Store interface.
func (s *Store) GetTransaction(ctx context.Context, id string) (*ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.transactions[id]
	if !exists {
		return nil, fmt.Errorf("transaction %s: %w", id, ledger.ErrNotFound)
	}
	return copyTransaction(t), nil
}

// ListTransactions implements the Store interface.
func (s *Store) ListTransactions(ctx context.Context, filter ledger.TransactionFilter) ([]*ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*ledger.Transaction
	for _, t := range s.transactions {
		if !filter.Match(t) {
			continue
		}
		result = append(result, copyTransaction(t))
	}
	return result, nil
}

// DeleteTransaction implements the Store interface.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.transactions[id]; !exists {
		return fmt.Errorf("transaction %s: %w", id, ledger.ErrNotFound)
	}
	delete(s.transactions, id)
	return nil
}

// SaveBudget implements the Store interface.
func (s *Store) SaveBudget(ctx context.Context, b *ledger.Budget) error {
	if b.ID == "" {
		return fmt.Errorf("budget ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *b
	s.budgets[b.ID] = &cp
	return nil
}

// GetBudget implements the Store interface.
func (s *Store) GetBudget(ctx context.Context, id string) (*ledger.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, exists := s.budgets[id]
	if !exists {
		return nil, fmt.Errorf("budget %s: %w", id, ledger.ErrNotFound)
	}

	cp := *b
	return &cp, nil
}

// ListBudgets implements the Store interface.
func (s *Store) ListBudgets(ctx context.Context, filter ledger.BudgetFilter) ([]*ledger.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*ledger.Budget
	for _, b := range s.budgets {
		if !filter.Match(b) {
			continue
		}
		cp := *b
		result = append(result, &cp)
	}
	return result, nil
}

// DeleteBudget implements the Store interface.
func (s *Store) DeleteBudget(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.budgets[id]; !exists {
		return fmt.Errorf("budget %s: %w", id, ledger.ErrNotFound)
	}
	delete(s.budgets, id)
	return nil
}

// SaveGoal implements the Store interface.
func (s *Store) SaveGoal(ctx context.Context, g *ledger.Goal) error {
	if g.ID == "" {
		return fmt.Errorf("goal ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *g
	s.goals[g.ID] = &cp
	return nil
}

// GetGoal implements the Store interface.
func (s *Store) GetGoal(ctx context.Context, id string) (*ledger.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, exists := s.goals[id]
	if !exists {
		return nil, fmt.Errorf("goal %s: %w", id, ledger.ErrNotFound)
	}

	cp := *g
	return &cp, nil
}

// ListGoals implements the Store interface.
func (s *Store) ListGoals(ctx context.Context) ([]*ledger.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*ledger.Goal, 0, len(s.goals))
	for _, g := range s.goals {
		cp := *g
		result = append(result, &cp)
	}
	return result, nil
}

// DeleteGoal implements the Store interface.
func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.goals[id]; !exists {
		return fmt.Errorf("goal %s: %w", id, ledger.ErrNotFound)
	}
	delete(s.goals, id)
	return nil
}

// copyTransaction clones a transaction including its tags slice, so
// callers cannot alias stored state.
func copyTransaction(t *ledger.Transaction) *ledger.Transaction {
	cp := *t
	if t.Tags != nil {
		cp.Tags = append([]string(nil), t.Tags...)
	}
	return &cp
}

// Ensure Store implements the ledger.Store interface.
var _ ledger.Store = (*Store)(nil)
