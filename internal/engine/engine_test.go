package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/budget-engine/internal/alerts"
	"github.com/dvloznov/budget-engine/internal/derive"
	"github.com/dvloznov/budget-engine/internal/ledger"
	"github.com/dvloznov/budget-engine/internal/ledger/inmemory"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// newTestEngine pins the engine clock so period and deadline rules are
// deterministic.
func newTestEngine(now time.Time) (*Engine, *inmemory.Store) {
	store := inmemory.NewStore()
	eng := New(store, zerolog.Nop())
	eng.now = func() time.Time { return now }
	return eng, store
}

func mustCreateAccount(t *testing.T, eng *Engine, initial int64) *ledger.Account {
	t.Helper()
	acct, err := eng.CreateAccount(context.Background(), &ledger.Account{
		Name:           "Checking",
		Type:           ledger.AccountChecking,
		InitialBalance: decimal.NewFromInt(initial),
		Currency:       "USD",
	})
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	return acct
}

func mustCreateBudget(t *testing.T, eng *Engine, category string, limit int64, start time.Time) *ledger.Budget {
	t.Helper()
	b, err := eng.CreateBudget(context.Background(), &ledger.Budget{
		Category:  category,
		Limit:     decimal.NewFromInt(limit),
		Period:    ledger.PeriodMonthly,
		StartDate: start,
	})
	if err != nil {
		t.Fatalf("CreateBudget failed: %v", err)
	}
	return b
}

func spend(t *testing.T, eng *Engine, accountID, category string, amount int64, on time.Time) *MutationResult {
	t.Helper()
	result, err := eng.CreateTransaction(context.Background(), &ledger.Transaction{
		AccountID:   accountID,
		Date:        on,
		Amount:      decimal.NewFromInt(amount),
		Description: "test spend",
		Category:    category,
		Type:        ledger.TransactionExpense,
	})
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	return result
}

func TestEngine_FoodBudgetScenario(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(date(2024, 1, 20))

	acct := mustCreateAccount(t, eng, 2000)
	budget := mustCreateBudget(t, eng, "Food", 500, date(2024, 1, 1))

	// -50 and -75 => spent 125, 25%, safe, no alert.
	spend(t, eng, acct.ID, "Food", -50, date(2024, 1, 5))
	result := spend(t, eng, acct.ID, "Food", -75, date(2024, 1, 10))
	if len(result.Alerts) != 0 {
		t.Fatalf("expected no alerts at 25%%, got %+v", result.Alerts)
	}

	p, err := eng.BudgetProgress(ctx, budget.ID)
	if err != nil {
		t.Fatalf("BudgetProgress failed: %v", err)
	}
	if !p.Spent.Equal(decimal.NewFromInt(125)) || !p.Remaining.Equal(decimal.NewFromInt(375)) {
		t.Errorf("progress = spent %s remaining %s, want 125/375", p.Spent, p.Remaining)
	}
	if p.Status != derive.StatusSafe {
		t.Errorf("Status = %s, want safe", p.Status)
	}

	// A further -300 => 425 spent, 85%, exactly one warning alert.
	result = spend(t, eng, acct.ID, "Food", -300, date(2024, 1, 15))
	if len(result.Alerts) != 1 {
		t.Fatalf("expected one alert at 85%%, got %d", len(result.Alerts))
	}
	if result.Alerts[0].Severity != alerts.SeverityWarning {
		t.Errorf("Severity = %s, want warning", result.Alerts[0].Severity)
	}

	// A further -400 => 825 spent, 165%, danger, message says exceeded.
	result = spend(t, eng, acct.ID, "Food", -400, date(2024, 1, 18))
	if len(result.Alerts) != 1 {
		t.Fatalf("expected one alert at 165%%, got %d", len(result.Alerts))
	}
	alert := result.Alerts[0]
	if alert.Severity != alerts.SeverityDanger {
		t.Errorf("Severity = %s, want danger", alert.Severity)
	}
	if !strings.Contains(alert.Message, "exceeded") {
		t.Errorf("danger message %q should say the budget is exceeded", alert.Message)
	}
	if !alert.Percentage.Equal(decimal.NewFromInt(165)) {
		t.Errorf("alert Percentage = %s, want 165", alert.Percentage)
	}

	// Dependency order: the account balance reflects every spend.
	balance, err := eng.AccountBalance(ctx, acct.ID)
	if err != nil {
		t.Fatalf("AccountBalance failed: %v", err)
	}
	if want := decimal.NewFromInt(1175); !balance.Equal(want) {
		t.Errorf("balance = %s, want %s", balance, want)
	}
}

func TestEngine_SecondActiveBudgetRejected(t *testing.T) {
	eng, _ := newTestEngine(date(2024, 1, 20))
	mustCreateBudget(t, eng, "Food", 500, date(2024, 1, 1))

	_, err := eng.CreateBudget(context.Background(), &ledger.Budget{
		Category:  "Food",
		Limit:     decimal.NewFromInt(300),
		Period:    ledger.PeriodMonthly,
		StartDate: date(2024, 1, 1),
	})
	if !errors.Is(err, ledger.ErrInvariant) {
		t.Errorf("second active budget error = %v, want ErrInvariant", err)
	}

	// A different category is fine.
	if _, err := eng.CreateBudget(context.Background(), &ledger.Budget{
		Category:  "Rent",
		Limit:     decimal.NewFromInt(900),
		Period:    ledger.PeriodMonthly,
		StartDate: date(2024, 1, 1),
	}); err != nil {
		t.Errorf("budget for a new category failed: %v", err)
	}
}

func TestEngine_ValidationAbortsBeforeAnyWrite(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(date(2024, 1, 20))
	acct := mustCreateAccount(t, eng, 1000)

	// Structurally fine but invalid payload: no description, bad type.
	_, err := eng.CreateTransaction(ctx, &ledger.Transaction{
		AccountID: acct.ID,
		Date:      date(2024, 1, 5),
		Amount:    decimal.NewFromInt(-50),
		Type:      "transfer",
	})

	var verr *ledger.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ledger.ValidationError", err)
	}
	if len(verr.Errors) != 2 {
		t.Errorf("got %d validation errors %v, want 2 (all rules reported)", len(verr.Errors), verr.Errors)
	}

	txs, err := store.ListTransactions(ctx, ledger.TransactionFilter{})
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("rejected create stored %d transactions, want 0", len(txs))
	}

	balance, err := eng.AccountBalance(ctx, acct.ID)
	if err != nil {
		t.Fatalf("AccountBalance failed: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("balance drifted to %s after a rejected create", balance)
	}
}

func TestEngine_MissingAccountLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(date(2024, 1, 20))

	_, err := eng.CreateTransaction(ctx, &ledger.Transaction{
		AccountID:   "ghost",
		Date:        date(2024, 1, 5),
		Amount:      decimal.NewFromInt(-50),
		Description: "orphan",
		Type:        ledger.TransactionExpense,
	})
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}

	txs, err := store.ListTransactions(ctx, ledger.TransactionFilter{})
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("stored %d transactions for a missing account, want 0", len(txs))
	}
}

func TestEngine_GoalCompletionAutoFlip(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(date(2024, 1, 1))

	goal, err := eng.CreateGoal(ctx, &ledger.Goal{
		Name:         "Laptop",
		TargetAmount: decimal.NewFromInt(1000),
		TargetDate:   date(2024, 6, 1),
	})
	if err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}

	// One unit below the target stays incomplete.
	g, err := eng.Contribute(ctx, goal.ID, decimal.NewFromInt(999))
	if err != nil {
		t.Fatalf("Contribute failed: %v", err)
	}
	if g.IsCompleted {
		t.Error("goal completed at 999 of 1000")
	}

	// Reaching the target flips completion in the same operation.
	g, err = eng.Contribute(ctx, goal.ID, decimal.NewFromInt(1))
	if err != nil {
		t.Fatalf("Contribute failed: %v", err)
	}
	if !g.IsCompleted {
		t.Error("goal not completed at exactly the target")
	}
}

func TestEngine_ContributionRules(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(date(2024, 1, 1))

	goal, err := eng.CreateGoal(ctx, &ledger.Goal{
		Name:         "Fund",
		TargetAmount: decimal.NewFromInt(1000),
		TargetDate:   date(2024, 6, 1),
	})
	if err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}

	var verr *ledger.ValidationError
	if _, err := eng.Contribute(ctx, goal.ID, decimal.NewFromInt(-5)); !errors.As(err, &verr) {
		t.Errorf("negative contribution error = %v, want validation error", err)
	}

	// Overshooting the 110% cap is rejected and nothing is saved.
	if _, err := eng.Contribute(ctx, goal.ID, decimal.NewFromInt(1200)); !errors.As(err, &verr) {
		t.Errorf("overshoot error = %v, want validation error", err)
	}
	g, err := eng.store.GetGoal(ctx, goal.ID)
	if err != nil {
		t.Fatalf("GetGoal failed: %v", err)
	}
	if !g.CurrentAmount.Equal(decimal.Zero) {
		t.Errorf("rejected contribution changed CurrentAmount to %s", g.CurrentAmount)
	}

	// A late contribution is still allowed after the target date.
	late, _ := newTestEngine(date(2024, 7, 1))
	if err := late.store.SaveGoal(ctx, g); err != nil {
		t.Fatalf("SaveGoal failed: %v", err)
	}
	if _, err := late.Contribute(ctx, g.ID, decimal.NewFromInt(100)); err != nil {
		t.Errorf("late contribution failed: %v", err)
	}
}

func TestEngine_GoalIndependentOfTransactions(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(date(2024, 1, 20))

	acct := mustCreateAccount(t, eng, 1000)
	goal, err := eng.CreateGoal(ctx, &ledger.Goal{
		Name:         "Fund",
		TargetAmount: decimal.NewFromInt(1000),
		TargetDate:   date(2024, 6, 1),
		AccountID:    acct.ID,
	})
	if err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}

	spend(t, eng, acct.ID, "Food", -500, date(2024, 1, 10))

	s, err := eng.GoalSummary(ctx, goal.ID)
	if err != nil {
		t.Fatalf("GoalSummary failed: %v", err)
	}
	if !s.Percentage.Equal(decimal.Zero) {
		t.Errorf("goal progress %s moved on a transaction mutation, want 0", s.Percentage)
	}
}

func TestEngine_RollExpiredBudgets(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(date(2024, 2, 5))

	// Seed an expired January budget directly; the create path would
	// also work, but this keeps the window explicit.
	pred := &ledger.Budget{
		ID:        "b-jan",
		Category:  "Food",
		Limit:     decimal.NewFromInt(500),
		Period:    ledger.PeriodMonthly,
		StartDate: date(2024, 1, 1),
		EndDate:   date(2024, 1, 31),
		IsActive:  true,
	}
	if err := store.SaveBudget(ctx, pred); err != nil {
		t.Fatalf("SaveBudget failed: %v", err)
	}

	successors, err := eng.RollExpiredBudgets(ctx)
	if err != nil {
		t.Fatalf("RollExpiredBudgets failed: %v", err)
	}
	if len(successors) != 1 {
		t.Fatalf("rolled %d budgets, want 1", len(successors))
	}
	succ := successors[0]
	if !succ.StartDate.Equal(date(2024, 2, 1)) || !succ.EndDate.Equal(date(2024, 2, 29)) {
		t.Errorf("successor window = [%s, %s], want February", succ.StartDate, succ.EndDate)
	}

	// The pass is idempotent: a second run creates nothing new.
	again, err := eng.RollExpiredBudgets(ctx)
	if err != nil {
		t.Fatalf("second RollExpiredBudgets failed: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second pass rolled %d budgets, want 0", len(again))
	}

	all, err := store.ListBudgets(ctx, ledger.BudgetFilter{})
	if err != nil {
		t.Fatalf("ListBudgets failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("store holds %d budgets, want predecessor plus one successor", len(all))
	}

	rolled, err := store.GetBudget(ctx, "b-jan")
	if err != nil {
		t.Fatalf("GetBudget failed: %v", err)
	}
	if rolled.IsActive || rolled.SuccessorID != succ.ID {
		t.Error("predecessor must be deactivated and point at its successor")
	}
}

func TestEngine_CheckTransactionDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(date(2024, 1, 20))

	acct := mustCreateAccount(t, eng, 1000)
	mustCreateBudget(t, eng, "Food", 500, date(2024, 1, 1))
	spend(t, eng, acct.ID, "Food", -300, date(2024, 1, 5))

	alert, err := eng.CheckTransaction(ctx, &ledger.Transaction{
		AccountID:   acct.ID,
		Date:        date(2024, 1, 10),
		Amount:      decimal.NewFromInt(-150),
		Description: "candidate",
		Category:    "Food",
		Type:        ledger.TransactionExpense,
	})
	if err != nil {
		t.Fatalf("CheckTransaction failed: %v", err)
	}
	if alert == nil || alert.Severity != alerts.SeverityWarning {
		t.Fatalf("alert = %+v, want a warning", alert)
	}

	txs, err := store.ListTransactions(ctx, ledger.TransactionFilter{})
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(txs) != 1 {
		t.Errorf("candidate check stored a transaction: %d total, want 1", len(txs))
	}
}

func TestEngine_UpdateTransactionRecomputesBothSides(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(date(2024, 1, 20))

	acct := mustCreateAccount(t, eng, 1000)
	budget := mustCreateBudget(t, eng, "Food", 500, date(2024, 1, 1))
	result := spend(t, eng, acct.ID, "Food", -200, date(2024, 1, 5))

	newCategory := "Rent"
	newAmount := decimal.NewFromInt(-100)
	if _, err := eng.UpdateTransaction(ctx, result.Transaction.ID, TransactionUpdate{
		Category: &newCategory,
		Amount:   &newAmount,
	}); err != nil {
		t.Fatalf("UpdateTransaction failed: %v", err)
	}

	// The Food budget no longer sees the spend.
	p, err := eng.BudgetProgress(ctx, budget.ID)
	if err != nil {
		t.Fatalf("BudgetProgress failed: %v", err)
	}
	if !p.Spent.Equal(decimal.Zero) {
		t.Errorf("Food spent = %s after recategorization, want 0", p.Spent)
	}

	balance, err := eng.AccountBalance(ctx, acct.ID)
	if err != nil {
		t.Fatalf("AccountBalance failed: %v", err)
	}
	if want := decimal.NewFromInt(900); !balance.Equal(want) {
		t.Errorf("balance = %s, want %s", balance, want)
	}
}

func TestEngine_DeleteTransactionRestoresDerivedState(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(date(2024, 1, 20))

	acct := mustCreateAccount(t, eng, 1000)
	budget := mustCreateBudget(t, eng, "Food", 500, date(2024, 1, 1))
	result := spend(t, eng, acct.ID, "Food", -450, date(2024, 1, 5))

	if _, err := eng.DeleteTransaction(ctx, result.Transaction.ID); err != nil {
		t.Fatalf("DeleteTransaction failed: %v", err)
	}

	p, err := eng.BudgetProgress(ctx, budget.ID)
	if err != nil {
		t.Fatalf("BudgetProgress failed: %v", err)
	}
	if !p.Spent.Equal(decimal.Zero) {
		t.Errorf("spent = %s after delete, want 0", p.Spent)
	}

	balance, err := eng.AccountBalance(ctx, acct.ID)
	if err != nil {
		t.Fatalf("AccountBalance failed: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("balance = %s after delete, want 1000", balance)
	}
}

func TestEngine_DeleteAccountCascades(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(date(2024, 1, 20))

	acct := mustCreateAccount(t, eng, 1000)
	spend(t, eng, acct.ID, "Food", -50, date(2024, 1, 5))

	if err := eng.DeleteAccount(ctx, acct.ID); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}

	txs, err := store.ListTransactions(ctx, ledger.TransactionFilter{})
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("account deletion left %d transactions behind", len(txs))
	}

	if _, err := eng.AccountBalance(ctx, acct.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("AccountBalance after delete = %v, want ErrNotFound", err)
	}
}

func TestEngine_UnrelatedBudgetsUntouched(t *testing.T) {
	eng, _ := newTestEngine(date(2024, 1, 20))

	acct := mustCreateAccount(t, eng, 2000)
	mustCreateBudget(t, eng, "Food", 500, date(2024, 1, 1))
	rent := mustCreateBudget(t, eng, "Rent", 1000, date(2024, 1, 1))

	// Pushing Food to danger must not raise anything for Rent.
	result := spend(t, eng, acct.ID, "Food", -600, date(2024, 1, 5))
	for _, a := range result.Alerts {
		if a.EntityID == rent.ID {
			t.Errorf("unrelated budget %s was alerted: %+v", rent.ID, a)
		}
	}
	if len(result.Alerts) != 1 {
		t.Errorf("got %d alerts, want 1 for the Food budget only", len(result.Alerts))
	}
}

func TestEngine_EndDateSpendWithTimeOfDay(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(date(2024, 1, 20))

	acct := mustCreateAccount(t, eng, 1000)
	budget := mustCreateBudget(t, eng, "Food", 500, date(2024, 1, 1))

	// Real payloads carry full timestamps; noon on the end date still
	// falls inside the window.
	result := spend(t, eng, acct.ID, "Food", -450, date(2024, 1, 31).Add(12*time.Hour))
	if len(result.Alerts) != 1 || result.Alerts[0].Severity != alerts.SeverityWarning {
		t.Fatalf("alerts = %+v, want one warning for a 90%% spend", result.Alerts)
	}

	p, err := eng.BudgetProgress(ctx, budget.ID)
	if err != nil {
		t.Fatalf("BudgetProgress failed: %v", err)
	}
	if !p.Spent.Equal(decimal.NewFromInt(450)) {
		t.Errorf("Spent = %s, want 450 (end-date transaction with time-of-day counted)", p.Spent)
	}
}

func TestEngine_RollSkipsCategoryWithReplacement(t *testing.T) {
	ctx := context.Background()
	eng, store := newTestEngine(date(2024, 2, 5))

	// An expired January budget, plus a replacement the user already
	// created for February without rolling.
	pred := &ledger.Budget{
		ID:        "b-jan",
		Category:  "Food",
		Limit:     decimal.NewFromInt(500),
		Period:    ledger.PeriodMonthly,
		StartDate: date(2024, 1, 1),
		EndDate:   date(2024, 1, 31),
		IsActive:  true,
	}
	replacement := &ledger.Budget{
		ID:        "b-feb",
		Category:  "Food",
		Limit:     decimal.NewFromInt(600),
		Period:    ledger.PeriodMonthly,
		StartDate: date(2024, 2, 1),
		EndDate:   date(2024, 2, 29),
		IsActive:  true,
	}
	for _, b := range []*ledger.Budget{pred, replacement} {
		if err := store.SaveBudget(ctx, b); err != nil {
			t.Fatalf("SaveBudget failed: %v", err)
		}
	}

	successors, err := eng.RollExpiredBudgets(ctx)
	if err != nil {
		t.Fatalf("RollExpiredBudgets failed: %v", err)
	}
	if len(successors) != 0 {
		t.Fatalf("rolled %d budgets, want 0 while a replacement is active", len(successors))
	}

	// Exactly one active Food budget survives the pass.
	active, err := store.ListBudgets(ctx, ledger.BudgetFilter{Category: "Food", ActiveOnly: true})
	if err != nil {
		t.Fatalf("ListBudgets failed: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("active Food budgets = %d, want the untouched pair", len(active))
	}
	kept, err := store.GetBudget(ctx, "b-jan")
	if err != nil {
		t.Fatalf("GetBudget failed: %v", err)
	}
	if kept.SuccessorID != "" {
		t.Error("skipped budget must not gain a successor")
	}
}

func TestEngine_CreateGoalAlreadyAchieved(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(date(2024, 7, 1))

	// The target date is in the past but the goal is already met, so the
	// future-date rule does not apply and the goal arrives completed.
	g, err := eng.CreateGoal(ctx, &ledger.Goal{
		Name:          "Paid off",
		TargetAmount:  decimal.NewFromInt(1000),
		CurrentAmount: decimal.NewFromInt(1000),
		TargetDate:    date(2024, 6, 1),
	})
	if err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	if !g.IsCompleted {
		t.Error("achieved goal must be created completed")
	}

	// An unmet goal with a past target date is still rejected.
	var verr *ledger.ValidationError
	_, err = eng.CreateGoal(ctx, &ledger.Goal{
		Name:          "Too late",
		TargetAmount:  decimal.NewFromInt(1000),
		CurrentAmount: decimal.NewFromInt(400),
		TargetDate:    date(2024, 6, 1),
	})
	if !errors.As(err, &verr) {
		t.Errorf("error = %v, want validation error for past target date", err)
	}
}
