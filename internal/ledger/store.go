package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Directory is the read-only client/project lookup the ledger consumes.
type Directory interface {
	GetProject(ctx context.Context, id uuid.UUID) (Project, error)
}

// Store is the durable ledger. Reads run outside transactions; every
// mutation runs inside WithTx. Missing rows are reported with NotFound.
type Store interface {
	Directory

	WithTx(ctx context.Context, fn func(context.Context, Tx) error) error

	GetInvoice(ctx context.Context, id uuid.UUID) (Invoice, error)
	ListInvoicesByProject(ctx context.Context, projectID uuid.UUID) ([]Invoice, error)
	ListInvoicesByTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]InvoiceView, error)
	GetPayment(ctx context.Context, id uuid.UUID) (Payment, error)
	ListPaymentsByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]Payment, error)

	// ListPaidInvoiceIDs returns every invoice with at least one payment.
	ListPaidInvoiceIDs(ctx context.Context) ([]uuid.UUID, error)

	// Snapshot reads everything the tenant owns in one consistent view.
	Snapshot(ctx context.Context, tenantID uuid.UUID) (Snapshot, error)

	Close() error
}

// Tx is the mutation surface available inside a store transaction.
// LockInvoice must be the first call on an invoice: it takes the row lock
// and bumps the invoice version.
type Tx interface {
	GetProject(ctx context.Context, id uuid.UUID) (Project, error)

	InsertInvoice(ctx context.Context, inv Invoice) error
	LockInvoice(ctx context.Context, id uuid.UUID) (Invoice, error)
	UpdateInvoice(ctx context.Context, inv Invoice) error
	SetInvoiceStatus(ctx context.Context, id uuid.UUID, status InvoiceStatus, at time.Time) error
	DeleteInvoice(ctx context.Context, id uuid.UUID) (paymentsRemoved int, err error)

	GetPayment(ctx context.Context, id uuid.UUID) (Payment, error)
	InsertPayment(ctx context.Context, p Payment) error
	UpdatePayment(ctx context.Context, p Payment) error
	DeletePayment(ctx context.Context, id uuid.UUID) error

	// SumPayments returns the exact sum and count of the invoice's
	// current payments as seen by this transaction.
	SumPayments(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, int, error)
}
