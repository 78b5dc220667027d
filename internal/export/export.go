// Package export encodes engine-computed reports as CSV and JSON. It
// owns the format contract only: fixed header rows for CSV and a
// {period, summary, breakdown[]} envelope for JSON. Both carry exactly
// the numeric totals the engine computed; nothing is re-derived here.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/budget-engine/internal/derive"
	"github.com/dvloznov/budget-engine/internal/ledger"
)

// budgetCSVHeader is the fixed header row for budget reports.
var budgetCSVHeader = []string{"Category", "Amount", "Percentage"}

// transactionCSVHeader is the fixed header row for transaction exports.
var transactionCSVHeader = []string{"Date", "Description", "Category", "Type", "Amount"}

// BudgetReport is the export envelope for budget progress.
type BudgetReport struct {
	Period    string        `json:"period"`
	Summary   ReportSummary `json:"summary"`
	Breakdown []BudgetRow   `json:"breakdown"`
}

// ReportSummary aggregates the breakdown rows.
type ReportSummary struct {
	TotalLimit     decimal.Decimal `json:"total_limit"`
	TotalSpent     decimal.Decimal `json:"total_spent"`
	TotalRemaining decimal.Decimal `json:"total_remaining"`
}

// BudgetRow is one category line in a budget report.
type BudgetRow struct {
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

// BuildBudgetReport assembles the envelope from budgets and their
// derived progress, matched by budget id.
func BuildBudgetReport(period string, budgets []*ledger.Budget, progress []derive.BudgetProgress) BudgetReport {
	limits := make(map[string]decimal.Decimal, len(budgets))
	for _, b := range budgets {
		limits[b.ID] = b.Limit
	}

	report := BudgetReport{
		Period:    period,
		Breakdown: make([]BudgetRow, 0, len(progress)),
	}
	for _, p := range progress {
		report.Summary.TotalLimit = report.Summary.TotalLimit.Add(limits[p.BudgetID])
		report.Summary.TotalSpent = report.Summary.TotalSpent.Add(p.Spent)
		report.Summary.TotalRemaining = report.Summary.TotalRemaining.Add(p.Remaining)

		report.Breakdown = append(report.Breakdown, BudgetRow{
			Category:   p.Category,
			Amount:     p.Spent,
			Percentage: p.RawPercentage,
		})
	}
	return report
}

// WriteCSV writes the report's breakdown with the fixed header row.
func (r BudgetReport) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(budgetCSVHeader); err != nil {
		return fmt.Errorf("WriteCSV: header: %w", err)
	}

	for _, row := range r.Breakdown {
		record := []string{
			row.Category,
			row.Amount.StringFixed(2),
			row.Percentage.StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("WriteCSV: row for %q: %w", row.Category, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the full envelope.
func (r BudgetReport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("WriteJSON: %w", err)
	}
	return nil
}

// WriteTransactionsCSV exports transactions with the fixed header row,
// dates as YYYY-MM-DD and signed amounts at two decimals.
func WriteTransactionsCSV(w io.Writer, txs []*ledger.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(transactionCSVHeader); err != nil {
		return fmt.Errorf("WriteTransactionsCSV: header: %w", err)
	}

	for _, tx := range txs {
		record := []string{
			tx.Date.Format("2006-01-02"),
			tx.Description,
			tx.Category,
			string(tx.Type),
			tx.Amount.StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("WriteTransactionsCSV: row %s: %w", tx.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
