package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/freelanceflow/freelanceflow/internal/money"
)

// Reconcile derives an invoice status from its total and the sum of its
// payments. Both inputs are compared as two-decimal money.
func Reconcile(total, paid decimal.Decimal) InvoiceStatus {
	total = money.Normalize(total)
	paid = money.Normalize(paid)
	switch {
	case !paid.IsPositive():
		return StatusUnpaid
	case paid.LessThan(total):
		return StatusPartiallyPaid
	default:
		return StatusPaid
	}
}

// Overpaid reports whether paid exceeds total after normalization.
func Overpaid(total, paid decimal.Decimal) bool {
	return money.Normalize(paid).GreaterThan(money.Normalize(total))
}

// SumPayments adds payment amounts exactly. Order does not matter.
func SumPayments(payments []Payment) decimal.Decimal {
	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(money.Normalize(p.Amount))
	}
	return paid
}
