// Demo driver: seeds an account, a budget and a goal, records a few
// transactions and prints the derived state plus the export formats.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/budget-engine/internal/engine"
	"github.com/dvloznov/budget-engine/internal/export"
	"github.com/dvloznov/budget-engine/internal/ledger"
	"github.com/dvloznov/budget-engine/internal/ledger/inmemory"
	"github.com/dvloznov/budget-engine/internal/logger"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()
	ctx := context.Background()

	store := inmemory.NewStore()
	eng := engine.New(store, logger.WithComponent(log, "engine"))

	acct, err := eng.CreateAccount(ctx, &ledger.Account{
		Name:           "Everyday Checking",
		Type:           ledger.AccountChecking,
		InitialBalance: decimal.NewFromInt(2000),
		Currency:       "USD",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("create account")
	}

	monthStart := ledger.DayStart(time.Now().AddDate(0, 0, -10))
	budget, err := eng.CreateBudget(ctx, &ledger.Budget{
		Category:  "Food",
		Limit:     decimal.NewFromInt(500),
		Period:    ledger.PeriodMonthly,
		StartDate: monthStart,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("create budget")
	}

	goal, err := eng.CreateGoal(ctx, &ledger.Goal{
		Name:         "Emergency fund",
		TargetAmount: decimal.NewFromInt(10000),
		TargetDate:   time.Now().AddDate(0, 6, 0),
		AccountID:    acct.ID,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("create goal")
	}

	for _, amount := range []int64{-50, -75, -300} {
		result, err := eng.CreateTransaction(ctx, &ledger.Transaction{
			AccountID:   acct.ID,
			Date:        time.Now().AddDate(0, 0, -1),
			Amount:      decimal.NewFromInt(amount),
			Description: "Groceries",
			Category:    "Food",
			Type:        ledger.TransactionExpense,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("create transaction")
		}
		for _, a := range result.Alerts {
			fmt.Printf("ALERT [%s] %s\n", a.Severity, a.Message)
		}
	}

	if _, err := eng.Contribute(ctx, goal.ID, decimal.NewFromInt(2500)); err != nil {
		log.Fatal().Err(err).Msg("contribute")
	}

	balance, err := eng.AccountBalance(ctx, acct.ID)
	if err != nil {
		log.Fatal().Err(err).Msg("balance")
	}
	fmt.Printf("Balance for %s: %s %s\n", acct.Name, balance.StringFixed(2), acct.Currency)

	progress, err := eng.BudgetProgress(ctx, budget.ID)
	if err != nil {
		log.Fatal().Err(err).Msg("budget progress")
	}
	fmt.Printf("Budget %q: spent %s of %s (%s%%, %s)\n",
		budget.Category, progress.Spent.StringFixed(2), budget.Limit.StringFixed(2),
		progress.RawPercentage.StringFixed(1), progress.Status)

	summary, err := eng.GoalSummary(ctx, goal.ID)
	if err != nil {
		log.Fatal().Err(err).Msg("goal summary")
	}
	fmt.Printf("Goal %q: %s%% done, %d days left, %s/day needed\n",
		goal.Name, summary.Percentage.StringFixed(1), summary.DaysRemaining,
		summary.RequiredDailyContribution.StringFixed(2))
	if summary.HasProjection {
		fmt.Printf("Projected completion: %s\n", summary.ProjectedCompletion.Format("2006-01-02"))
	} else {
		fmt.Println("Projected completion: no projection available")
	}

	budgets, err := store.ListBudgets(ctx, ledger.BudgetFilter{})
	if err != nil {
		log.Fatal().Err(err).Msg("list budgets")
	}
	allProgress, err := eng.AllBudgetProgress(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("all budget progress")
	}

	report := export.BuildBudgetReport(monthStart.Format("2006-01"), budgets, allProgress)
	fmt.Println("\nCSV report:")
	if err := report.WriteCSV(os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("csv report")
	}
	fmt.Println("\nJSON report:")
	if err := report.WriteJSON(os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("json report")
	}
}
