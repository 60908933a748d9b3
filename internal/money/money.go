// Package money holds the two-decimal fixed-point helpers shared by the ledger,
// the aggregation engine and the presentation layer.
package money

import (
	"fmt"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits every amount is kept at.
const Places = 2

// Normalize truncates d toward zero to two fractional digits. Rounding is
// never applied, so 99.999 becomes 99.99 and can not reach a 100.00 total.
func Normalize(d decimal.Decimal) decimal.Decimal {
	return d.Truncate(Places)
}

// Parse reads a user supplied amount such as "1250.5" or "1,250.50".
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero, fmt.Errorf("money: empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return Normalize(d), nil
}

// MustParse is Parse for literals in tests and seed data.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Sum adds the normalized amounts exactly.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(Normalize(a))
	}
	return total
}

// Format renders d for display in the given ISO currency, e.g. "$1,234.50".
// Unknown currencies fall back to a plain two-decimal string.
func Format(d decimal.Decimal, currency string) string {
	cur := gomoney.GetCurrency(strings.ToUpper(currency))
	if cur == nil {
		return Normalize(d).StringFixed(Places)
	}
	minor := Normalize(d).Shift(int32(cur.Fraction)).IntPart()
	return gomoney.New(minor, cur.Code).Display()
}

// KnownCurrency reports whether code is an ISO currency Format can display.
func KnownCurrency(code string) bool {
	return gomoney.GetCurrency(strings.ToUpper(code)) != nil
}
