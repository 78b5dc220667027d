package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/budget-engine/internal/derive"
	"github.com/dvloznov/budget-engine/internal/ledger"
)

// AccountUpdate is a partial account payload. Nil fields are left
// unchanged. Setting InitialBalance is the only direct balance edit the
// engine allows; everything else flows through transactions.
type AccountUpdate struct {
	Name           *string
	Type           *ledger.AccountType
	InitialBalance *decimal.Decimal
	Currency       *string
}

// CreateAccount validates and stores a new account. The derived balance
// starts equal to the initial balance.
func (e *Engine) CreateAccount(ctx context.Context, a *ledger.Account) (*ledger.Account, error) {
	if err := ledger.ValidateAccount(a).Err(); err != nil {
		return nil, err
	}

	now := e.now()
	a.ID = uuid.NewString()
	a.Balance = a.InitialBalance
	a.CreatedAt = now
	a.UpdatedAt = now

	if err := e.store.SaveAccount(ctx, a); err != nil {
		return nil, fmt.Errorf("CreateAccount: save: %w", err)
	}

	e.log.Info().Str("account_id", a.ID).Str("name", a.Name).Msg("account created")
	return a, nil
}

// UpdateAccount applies a partial update, re-validates the result and
// refreshes the derived balance.
func (e *Engine) UpdateAccount(ctx context.Context, id string, upd AccountUpdate) (*ledger.Account, error) {
	a, err := e.store.GetAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("UpdateAccount: %w", err)
	}

	if upd.Name != nil {
		a.Name = *upd.Name
	}
	if upd.Type != nil {
		a.Type = *upd.Type
	}
	if upd.InitialBalance != nil {
		a.InitialBalance = *upd.InitialBalance
	}
	if upd.Currency != nil {
		a.Currency = *upd.Currency
	}

	if err := ledger.ValidateAccount(a).Err(); err != nil {
		return nil, err
	}

	balance, err := e.deriveBalance(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("UpdateAccount: %w", err)
	}
	a.Balance = balance
	a.UpdatedAt = e.now()

	if err := e.store.SaveAccount(ctx, a); err != nil {
		return nil, fmt.Errorf("UpdateAccount: save: %w", err)
	}
	return a, nil
}

// DeleteAccount removes an account together with its transactions.
func (e *Engine) DeleteAccount(ctx context.Context, id string) error {
	if err := e.store.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("DeleteAccount: %w", err)
	}
	e.log.Info().Str("account_id", id).Msg("account deleted with its transactions")
	return nil
}

// AccountBalance returns the derived balance for one account.
func (e *Engine) AccountBalance(ctx context.Context, id string) (decimal.Decimal, error) {
	a, err := e.store.GetAccount(ctx, id)
	if err != nil {
		return decimal.Zero, fmt.Errorf("AccountBalance: %w", err)
	}
	return e.deriveBalance(ctx, a)
}

// deriveBalance recomputes initial balance plus signed transaction sum.
func (e *Engine) deriveBalance(ctx context.Context, a *ledger.Account) (decimal.Decimal, error) {
	txs, err := e.store.ListTransactions(ctx, ledger.TransactionFilter{AccountID: a.ID})
	if err != nil {
		return decimal.Zero, fmt.Errorf("deriveBalance: list transactions: %w", err)
	}
	return derive.AccountBalance(a, txs), nil
}

// refreshBalance recomputes and persists the derived balance cache for
// the given account.
func (e *Engine) refreshBalance(ctx context.Context, accountID string) error {
	a, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return fmt.Errorf("refreshBalance: %w", err)
	}

	balance, err := e.deriveBalance(ctx, a)
	if err != nil {
		return fmt.Errorf("refreshBalance: %w", err)
	}

	a.Balance = balance
	a.UpdatedAt = e.now()
	if err := e.store.SaveAccount(ctx, a); err != nil {
		return fmt.Errorf("refreshBalance: save: %w", err)
	}
	return nil
}
