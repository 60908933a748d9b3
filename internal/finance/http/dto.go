package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/freelanceflow/freelanceflow/internal/ledger"
	"github.com/freelanceflow/freelanceflow/internal/money"
)

const dateLayout = "2006-01-02"

type invoiceRequest struct {
	Total     string  `json:"total" validate:"required"`
	IssueDate string  `json:"issue_date" validate:"required,datetime=2006-01-02"`
	DueDate   string  `json:"due_date" validate:"required,datetime=2006-01-02"`
	Notes     string  `json:"notes" validate:"max=2000"`
	Status    *string `json:"status,omitempty" validate:"omitempty,oneof='Unpaid' 'Partially Paid' 'Paid'"`
}

type paymentRequest struct {
	Amount      string `json:"amount" validate:"required"`
	PaymentDate string `json:"payment_date" validate:"required,datetime=2006-01-02"`
	Method      string `json:"method" validate:"required"`
	Notes       string `json:"notes" validate:"max=2000"`
}

type invoiceFields struct {
	total      decimal.Decimal
	issue, due time.Time
}

func (req invoiceRequest) fields() (invoiceFields, error) {
	total, err := money.Parse(req.Total)
	if err != nil {
		return invoiceFields{}, &ledger.ValidationError{Field: "total", Reason: "is not a valid amount"}
	}
	issue, _ := time.Parse(dateLayout, req.IssueDate)
	due, _ := time.Parse(dateLayout, req.DueDate)
	return invoiceFields{total: total, issue: issue, due: due}, nil
}

func (req invoiceRequest) createInput() (ledger.CreateInvoiceInput, error) {
	f, err := req.fields()
	if err != nil {
		return ledger.CreateInvoiceInput{}, err
	}
	return ledger.CreateInvoiceInput{Total: f.total, IssueDate: f.issue, DueDate: f.due, Notes: req.Notes}, nil
}

func (req invoiceRequest) updateInput() (ledger.UpdateInvoiceInput, error) {
	f, err := req.fields()
	if err != nil {
		return ledger.UpdateInvoiceInput{}, err
	}
	input := ledger.UpdateInvoiceInput{Total: f.total, IssueDate: f.issue, DueDate: f.due, Notes: req.Notes}
	if req.Status != nil {
		status := ledger.InvoiceStatus(*req.Status)
		input.Status = &status
	}
	return input, nil
}

func (req paymentRequest) input() (ledger.PaymentInput, error) {
	amount, err := money.Parse(req.Amount)
	if err != nil {
		return ledger.PaymentInput{}, &ledger.ValidationError{Field: "amount", Reason: "is not a valid amount"}
	}
	paidOn, _ := time.Parse(dateLayout, req.PaymentDate)
	return ledger.PaymentInput{
		Amount:      amount,
		PaymentDate: paidOn,
		Method:      ledger.PaymentMethod(req.Method),
		Notes:       req.Notes,
	}, nil
}
