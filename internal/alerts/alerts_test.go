package alerts

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/budget-engine/internal/derive"
	"github.com/dvloznov/budget-engine/internal/ledger"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// thresholdBudget has a limit of 100000 so integer spends produce exact
// three-decimal percentages for boundary checks.
func thresholdBudget() *ledger.Budget {
	return &ledger.Budget{
		ID:        "b1",
		Category:  "Food",
		Limit:     decimal.NewFromInt(100000),
		StartDate: date(2024, 1, 1),
		EndDate:   date(2024, 1, 31),
		IsActive:  true,
	}
}

func TestEvaluateBudget_ThresholdBoundaries(t *testing.T) {
	tests := []struct {
		name         string
		spent        int64
		wantSeverity Severity
		wantNone     bool
	}{
		{"79.999 percent raises nothing", 79999, "", true},
		{"80.000 percent is a warning", 80000, SeverityWarning, false},
		{"99.999 percent is still a warning", 99999, SeverityWarning, false},
		{"100.000 percent is danger", 100000, SeverityDanger, false},
		{"165 percent is danger", 165000, SeverityDanger, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := thresholdBudget()
			txs := []*ledger.Transaction{{
				Category: "Food",
				Type:     ledger.TransactionExpense,
				Amount:   decimal.NewFromInt(-tt.spent),
				Date:     date(2024, 1, 15),
			}}

			alert := EvaluateBudget(derive.ComputeBudgetProgress(b, txs))
			if tt.wantNone {
				if alert != nil {
					t.Fatalf("expected no alert, got %+v", alert)
				}
				return
			}
			if alert == nil {
				t.Fatal("expected an alert, got nil")
			}
			if alert.Severity != tt.wantSeverity {
				t.Errorf("Severity = %s, want %s", alert.Severity, tt.wantSeverity)
			}
			if alert.EntityID != "b1" || alert.Category != "Food" {
				t.Errorf("alert identity = %s/%s, want b1/Food", alert.EntityID, alert.Category)
			}
		})
	}
}

func TestEvaluateBudget_DangerMessageSaysExceeded(t *testing.T) {
	b := thresholdBudget()
	txs := []*ledger.Transaction{{
		Category: "Food",
		Type:     ledger.TransactionExpense,
		Amount:   decimal.NewFromInt(-165000),
		Date:     date(2024, 1, 15),
	}}

	alert := EvaluateBudget(derive.ComputeBudgetProgress(b, txs))
	if alert == nil {
		t.Fatal("expected an alert")
	}
	if !strings.Contains(alert.Message, "exceeded") {
		t.Errorf("danger message %q should state the budget is exceeded", alert.Message)
	}
	// Severity is decided on the raw ratio; 165% must survive in the alert.
	if !alert.Percentage.Equal(decimal.NewFromInt(165)) {
		t.Errorf("Percentage = %s, want uncapped 165", alert.Percentage)
	}
}

func TestEvaluateBudgets_OneAlertPerBudgetPerPass(t *testing.T) {
	b := thresholdBudget()
	txs := []*ledger.Transaction{{
		Category: "Food",
		Type:     ledger.TransactionExpense,
		Amount:   decimal.NewFromInt(-90000),
		Date:     date(2024, 1, 15),
	}}

	first := EvaluateBudgets([]*ledger.Budget{b}, txs)
	second := EvaluateBudgets([]*ledger.Budget{b}, txs)
	if len(first) != 1 || len(second) != 1 {
		t.Errorf("passes produced %d and %d alerts, want 1 and 1 (no accumulation)", len(first), len(second))
	}
}

func TestWouldTrigger(t *testing.T) {
	b := &ledger.Budget{
		ID:        "b1",
		Category:  "Food",
		Limit:     decimal.NewFromInt(500),
		StartDate: date(2024, 1, 1),
		EndDate:   date(2024, 1, 31),
		IsActive:  true,
	}
	txs := []*ledger.Transaction{{
		Category: "Food",
		Type:     ledger.TransactionExpense,
		Amount:   decimal.NewFromInt(-300),
		Date:     date(2024, 1, 5),
	}}

	tests := []struct {
		name      string
		candidate int64
		date      time.Time
		wantSev   Severity
		wantNone  bool
	}{
		{"small spend stays safe", -50, date(2024, 1, 10), "", true},
		{"pushes into warning", -150, date(2024, 1, 10), SeverityWarning, false},
		{"pushes past the limit", -250, date(2024, 1, 10), SeverityDanger, false},
		{"outside the window never triggers", -400, date(2024, 2, 10), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert := WouldTrigger(b, txs, decimal.NewFromInt(tt.candidate), tt.date)
			if tt.wantNone {
				if alert != nil {
					t.Fatalf("expected no alert, got %+v", alert)
				}
				return
			}
			if alert == nil {
				t.Fatal("expected an alert, got nil")
			}
			if alert.Severity != tt.wantSev {
				t.Errorf("Severity = %s, want %s", alert.Severity, tt.wantSev)
			}
		})
	}
}

func TestEvaluateGoal(t *testing.T) {
	now := date(2024, 1, 1)

	tests := []struct {
		name     string
		goal     ledger.Goal
		wantNone bool
	}{
		{
			name: "deadline within a week warns",
			goal: ledger.Goal{
				ID:            "g1",
				Name:          "Trip",
				TargetAmount:  decimal.NewFromInt(1000),
				CurrentAmount: decimal.NewFromInt(400),
				TargetDate:    now.AddDate(0, 0, 5),
				CreatedAt:     now.AddDate(0, 0, -30),
			},
		},
		{
			name: "distant deadline stays quiet",
			goal: ledger.Goal{
				ID:            "g2",
				Name:          "House",
				TargetAmount:  decimal.NewFromInt(1000),
				CurrentAmount: decimal.NewFromInt(400),
				TargetDate:    now.AddDate(0, 6, 0),
				CreatedAt:     now.AddDate(0, 0, -30),
			},
			wantNone: true,
		},
		{
			name: "achieved goal never warns",
			goal: ledger.Goal{
				ID:            "g3",
				Name:          "Done",
				TargetAmount:  decimal.NewFromInt(1000),
				CurrentAmount: decimal.NewFromInt(1000),
				TargetDate:    now.AddDate(0, 0, 2),
				CreatedAt:     now.AddDate(0, 0, -30),
			},
			wantNone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := derive.ComputeGoalSummary(&tt.goal, now)
			alert := EvaluateGoal(&tt.goal, summary)
			if tt.wantNone {
				if alert != nil {
					t.Fatalf("expected no alert, got %+v", alert)
				}
				return
			}
			if alert == nil {
				t.Fatal("expected an alert, got nil")
			}
			if alert.Severity != SeverityWarning {
				t.Errorf("Severity = %s, want warning", alert.Severity)
			}
		})
	}
}
