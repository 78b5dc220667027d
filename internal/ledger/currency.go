package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// usdRates is the fixed currency lookup table: units of USD per one
// unit of the listed currency. There is no live conversion; this table
// is the whole multi-currency story.
var usdRates = map[string]decimal.Decimal{
	"USD": decimal.RequireFromString("1"),
	"EUR": decimal.RequireFromString("1.08"),
	"GBP": decimal.RequireFromString("1.27"),
	"JPY": decimal.RequireFromString("0.0067"),
	"CAD": decimal.RequireFromString("0.73"),
	"AUD": decimal.RequireFromString("0.66"),
	"CHF": decimal.RequireFromString("1.13"),
}

// SupportedCurrency reports whether the ISO-4217 code appears in the
// fixed rate table.
func SupportedCurrency(code string) bool {
	_, ok := usdRates[code]
	return ok
}

// ConvertCurrency converts an amount between two supported currencies
// through their fixed USD rates.
func ConvertCurrency(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	fromRate, ok := usdRates[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("ConvertCurrency: unsupported currency %q", from)
	}
	toRate, ok := usdRates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("ConvertCurrency: unsupported currency %q", to)
	}
	return amount.Mul(fromRate).Div(toRate), nil
}
