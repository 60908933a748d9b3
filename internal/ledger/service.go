package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freelanceflow/freelanceflow/internal/money"
)

// Operation names reported to the Observer.
const (
	OpCreateInvoice = "create_invoice"
	OpUpdateInvoice = "update_invoice"
	OpDeleteInvoice = "delete_invoice"
	OpCreatePayment = "create_payment"
	OpUpdatePayment = "update_payment"
	OpDeletePayment = "delete_payment"
	OpReconcile     = "reconcile"
)

// Observer receives the outcome of every mutation. Implementations must be
// safe for concurrent use.
type Observer interface {
	MutationApplied(op string, err error)
	StatusChanged(from, to InvoiceStatus)
}

// Invalidator is told about every committed mutation of a tenant, typically
// to drop cached dashboards.
type Invalidator interface {
	Invalidate(ctx context.Context, tenantID uuid.UUID) error
}

// ServiceConfig tunes the ledger policy.
type ServiceConfig struct {
	AllowOverpayment bool
	Now              func() time.Time
	Logger           *slog.Logger
}

// Service applies invoice and payment mutations and keeps every invoice's
// status equal to Reconcile(total, sum of payments).
type Service struct {
	store       Store
	locks       *InvoiceLocks
	cfg         ServiceConfig
	observer    Observer
	invalidator Invalidator
}

// NewService builds a Service over store.
func NewService(store Store, cfg ServiceConfig) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{store: store, locks: NewInvoiceLocks(), cfg: cfg}
}

// SetObserver injects mutation instrumentation.
func (s *Service) SetObserver(o Observer) {
	s.observer = o
}

// SetInvalidator injects the post-commit cache invalidation hook.
func (s *Service) SetInvalidator(inv Invalidator) {
	s.invalidator = inv
}

// AllowsOverpayment reports the configured overpayment policy.
func (s *Service) AllowsOverpayment() bool {
	return s.cfg.AllowOverpayment
}

func (s *Service) now() time.Time {
	return s.cfg.Now().UTC()
}

// transition records a status change made inside a transaction.
type transition struct {
	from, to InvoiceStatus
}

func (t transition) changed() bool { return t.from != t.to }

// finish reports the outcome of op and, on success, fires the post-commit hooks.
func (s *Service) finish(ctx context.Context, op string, tenantID uuid.UUID, tr transition, err error) {
	if s.observer != nil {
		s.observer.MutationApplied(op, err)
		if err == nil && tr.changed() {
			s.observer.StatusChanged(tr.from, tr.to)
		}
	}
	if err != nil || s.invalidator == nil || tenantID == uuid.Nil {
		return
	}
	if invErr := s.invalidator.Invalidate(ctx, tenantID); invErr != nil {
		s.cfg.Logger.Warn("invalidate dashboard cache",
			slog.String("op", op), slog.String("tenant_id", tenantID.String()), slog.Any("error", invErr))
	}
}

// settle recomputes paid from the current payments and persists the derived
// status when it differs from the stored one.
func (s *Service) settle(ctx context.Context, tx Tx, inv Invoice) (transition, error) {
	paid, _, err := tx.SumPayments(ctx, inv.ID)
	if err != nil {
		return transition{}, err
	}
	status := Reconcile(inv.Total, paid)
	tr := transition{from: inv.Status, to: status}
	if !tr.changed() {
		return tr, nil
	}
	if err := tx.SetInvoiceStatus(ctx, inv.ID, status, s.now()); err != nil {
		return transition{}, err
	}
	return tr, nil
}

func (s *Service) checkOverpayment(inv Invoice, paid decimal.Decimal) error {
	if s.cfg.AllowOverpayment || !Overpaid(inv.Total, paid) {
		return nil
	}
	return &OverpaymentError{InvoiceID: inv.ID, Total: inv.Total, Paid: paid}
}

// --- Invoice Operations ---

func validateInvoiceFields(total decimal.Decimal, issue, due time.Time) error {
	if !money.Normalize(total).IsPositive() {
		return invalid("total", "must be positive")
	}
	if issue.IsZero() {
		return invalid("issue_date", "is required")
	}
	if due.IsZero() {
		return invalid("due_date", "is required")
	}
	if due.Before(issue) {
		return invalid("due_date", "must not be before issue date")
	}
	return nil
}

// CreateInvoice creates an Unpaid invoice without payments.
func (s *Service) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (inv Invoice, err error) {
	defer func() { s.finish(ctx, OpCreateInvoice, inv.TenantID, transition{}, err) }()

	if input.ProjectID == uuid.Nil {
		return Invoice{}, invalid("project_id", "is required")
	}
	if err := validateInvoiceFields(input.Total, input.IssueDate, input.DueDate); err != nil {
		return Invoice{}, err
	}
	now := s.now()
	candidate := Invoice{
		ID:        uuid.New(),
		ProjectID: input.ProjectID,
		Total:     money.Normalize(input.Total),
		IssueDate: input.IssueDate.UTC(),
		DueDate:   input.DueDate.UTC(),
		Status:    StatusUnpaid,
		Notes:     input.Notes,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		project, err := tx.GetProject(ctx, input.ProjectID)
		if err != nil {
			return err
		}
		candidate.TenantID = project.TenantID
		return tx.InsertInvoice(ctx, candidate)
	})
	if err != nil {
		return Invoice{}, persistence("create invoice", err)
	}
	return candidate, nil
}

// UpdateInvoice edits total, dates and notes. A total change re-derives the
// status; a status override is accepted only while no payments exist.
func (s *Service) UpdateInvoice(ctx context.Context, id uuid.UUID, input UpdateInvoiceInput) (inv Invoice, err error) {
	var tr transition
	defer func() { s.finish(ctx, OpUpdateInvoice, inv.TenantID, tr, err) }()

	if err := validateInvoiceFields(input.Total, input.IssueDate, input.DueDate); err != nil {
		return Invoice{}, err
	}
	if input.Status != nil && !input.Status.Valid() {
		return Invoice{}, invalid("status", "is not a known invoice status")
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	var updated Invoice
	err = s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		current, err := tx.LockInvoice(ctx, id)
		if err != nil {
			return err
		}
		paid, count, err := tx.SumPayments(ctx, id)
		if err != nil {
			return err
		}
		next := current
		next.Total = money.Normalize(input.Total)
		next.IssueDate = input.IssueDate.UTC()
		next.DueDate = input.DueDate.UTC()
		next.Notes = input.Notes
		next.UpdatedAt = s.now()

		if count == 0 {
			if input.Status != nil {
				next.Status = *input.Status
			}
		} else {
			if err := s.checkOverpayment(next, paid); err != nil {
				return err
			}
			derived := Reconcile(next.Total, paid)
			if input.Status != nil && *input.Status != derived {
				return invalid("status", "is derived from recorded payments")
			}
			next.Status = derived
		}
		if err := tx.UpdateInvoice(ctx, next); err != nil {
			return err
		}
		tr = transition{from: current.Status, to: next.Status}
		updated = next
		return nil
	})
	if err != nil {
		tr = transition{}
		return Invoice{}, persistence("update invoice", err)
	}
	return updated, nil
}

// DeleteInvoice removes the invoice together with its payments.
func (s *Service) DeleteInvoice(ctx context.Context, id uuid.UUID) (removed int, err error) {
	var tenantID uuid.UUID
	defer func() { s.finish(ctx, OpDeleteInvoice, tenantID, transition{}, err) }()

	unlock := s.locks.Lock(id)
	defer unlock()

	err = s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		inv, err := tx.LockInvoice(ctx, id)
		if err != nil {
			return err
		}
		tenantID = inv.TenantID
		removed, err = tx.DeleteInvoice(ctx, id)
		return err
	})
	if err != nil {
		return 0, persistence("delete invoice", err)
	}
	return removed, nil
}

// GetInvoice returns one invoice.
func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (Invoice, error) {
	inv, err := s.store.GetInvoice(ctx, id)
	if err != nil {
		return Invoice{}, persistence("get invoice", err)
	}
	return inv, nil
}

// GetProject resolves a project through the directory.
func (s *Service) GetProject(ctx context.Context, id uuid.UUID) (Project, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return Project{}, persistence("get project", err)
	}
	return p, nil
}

// ListInvoicesByProject returns the project's invoices, newest first.
func (s *Service) ListInvoicesByProject(ctx context.Context, projectID uuid.UUID) ([]Invoice, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	invoices, err := s.store.ListInvoicesByProject(ctx, projectID)
	if err != nil {
		return nil, persistence("list project invoices", err)
	}
	return invoices, nil
}

// ListInvoicesByTenant returns the tenant's invoices with project and client names.
func (s *Service) ListInvoicesByTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]InvoiceView, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalid("status", "is not a known invoice status")
	}
	views, err := s.store.ListInvoicesByTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, persistence("list tenant invoices", err)
	}
	return views, nil
}

// InvoiceBalance reports total, paid and remaining for an invoice. Status is
// derived from the same payment list so the figures always agree.
func (s *Service) InvoiceBalance(ctx context.Context, id uuid.UUID) (InvoiceBalance, []Payment, error) {
	inv, err := s.GetInvoice(ctx, id)
	if err != nil {
		return InvoiceBalance{}, nil, err
	}
	payments, err := s.store.ListPaymentsByInvoice(ctx, id)
	if err != nil {
		return InvoiceBalance{}, nil, persistence("list invoice payments", err)
	}
	paid := SumPayments(payments)
	status := inv.Status
	if len(payments) > 0 {
		status = Reconcile(inv.Total, paid)
	}
	return InvoiceBalance{
		InvoiceID:    inv.ID,
		Total:        inv.Total,
		Paid:         paid,
		Remaining:    inv.Total.Sub(paid),
		PaymentCount: len(payments),
		Status:       status,
	}, payments, nil
}

// --- Payment Operations ---

func validatePayment(input PaymentInput) (PaymentInput, error) {
	input.Amount = money.Normalize(input.Amount)
	if !input.Amount.IsPositive() {
		return input, invalid("amount", "must be positive")
	}
	if input.PaymentDate.IsZero() {
		return input, invalid("payment_date", "is required")
	}
	if !input.Method.Valid() {
		return input, invalid("method", "is not an accepted payment method")
	}
	input.PaymentDate = input.PaymentDate.UTC()
	return input, nil
}

// CreatePayment records a payment and re-derives the invoice status in the
// same transaction.
func (s *Service) CreatePayment(ctx context.Context, invoiceID uuid.UUID, input PaymentInput) (p Payment, err error) {
	var tr transition
	defer func() { s.finish(ctx, OpCreatePayment, p.TenantID, tr, err) }()

	input, err = validatePayment(input)
	if err != nil {
		return Payment{}, err
	}

	unlock := s.locks.Lock(invoiceID)
	defer unlock()

	var created Payment
	err = s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		inv, err := tx.LockInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		paid, _, err := tx.SumPayments(ctx, invoiceID)
		if err != nil {
			return err
		}
		if err := s.checkOverpayment(inv, paid.Add(input.Amount)); err != nil {
			return err
		}
		now := s.now()
		created = Payment{
			ID:          uuid.New(),
			InvoiceID:   invoiceID,
			TenantID:    inv.TenantID,
			Amount:      input.Amount,
			PaymentDate: input.PaymentDate,
			Method:      input.Method,
			Notes:       input.Notes,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.InsertPayment(ctx, created); err != nil {
			return err
		}
		tr, err = s.settle(ctx, tx, inv)
		return err
	})
	if err != nil {
		tr = transition{}
		return Payment{}, persistence("create payment", err)
	}
	return created, nil
}

// UpdatePayment replaces a payment's amount, date, method and notes.
func (s *Service) UpdatePayment(ctx context.Context, paymentID uuid.UUID, input PaymentInput) (p Payment, err error) {
	var tr transition
	defer func() { s.finish(ctx, OpUpdatePayment, p.TenantID, tr, err) }()

	input, err = validatePayment(input)
	if err != nil {
		return Payment{}, err
	}
	existing, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return Payment{}, persistence("get payment", err)
	}

	unlock := s.locks.Lock(existing.InvoiceID)
	defer unlock()

	var updated Payment
	err = s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		inv, err := tx.LockInvoice(ctx, existing.InvoiceID)
		if err != nil {
			return err
		}
		current, err := tx.GetPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		paid, _, err := tx.SumPayments(ctx, inv.ID)
		if err != nil {
			return err
		}
		projected := paid.Sub(current.Amount).Add(input.Amount)
		if projected.GreaterThan(paid) {
			if err := s.checkOverpayment(inv, projected); err != nil {
				return err
			}
		}
		updated = current
		updated.Amount = input.Amount
		updated.PaymentDate = input.PaymentDate
		updated.Method = input.Method
		updated.Notes = input.Notes
		updated.UpdatedAt = s.now()
		if err := tx.UpdatePayment(ctx, updated); err != nil {
			return err
		}
		tr, err = s.settle(ctx, tx, inv)
		return err
	})
	if err != nil {
		tr = transition{}
		return Payment{}, persistence("update payment", err)
	}
	return updated, nil
}

// DeletePayment removes a payment and re-derives the invoice status.
func (s *Service) DeletePayment(ctx context.Context, paymentID uuid.UUID) (err error) {
	var (
		tr       transition
		tenantID uuid.UUID
	)
	defer func() { s.finish(ctx, OpDeletePayment, tenantID, tr, err) }()

	existing, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return persistence("get payment", err)
	}

	unlock := s.locks.Lock(existing.InvoiceID)
	defer unlock()

	err = s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		inv, err := tx.LockInvoice(ctx, existing.InvoiceID)
		if err != nil {
			return err
		}
		if _, err := tx.GetPayment(ctx, paymentID); err != nil {
			return err
		}
		if err := tx.DeletePayment(ctx, paymentID); err != nil {
			return err
		}
		tenantID = inv.TenantID
		tr, err = s.settle(ctx, tx, inv)
		return err
	})
	if err != nil {
		tr = transition{}
		tenantID = uuid.Nil
		return persistence("delete payment", err)
	}
	return nil
}

// GetPayment returns one payment.
func (s *Service) GetPayment(ctx context.Context, id uuid.UUID) (Payment, error) {
	p, err := s.store.GetPayment(ctx, id)
	if err != nil {
		return Payment{}, persistence("get payment", err)
	}
	return p, nil
}

// ListPaymentsByInvoice returns the invoice's payments by payment date.
func (s *Service) ListPaymentsByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]Payment, error) {
	if _, err := s.GetInvoice(ctx, invoiceID); err != nil {
		return nil, err
	}
	payments, err := s.store.ListPaymentsByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, persistence("list invoice payments", err)
	}
	return payments, nil
}

// --- Reconciliation ---

// Drift describes an invoice whose stored status disagrees with its payments.
type Drift struct {
	InvoiceID uuid.UUID
	TenantID  uuid.UUID
	Total     decimal.Decimal
	Paid      decimal.Decimal
	Stored    InvoiceStatus
	Derived   InvoiceStatus
}

// CheckInvoice compares the stored status with the derived one without
// writing. Invoices without payments never drift.
func (s *Service) CheckInvoice(ctx context.Context, id uuid.UUID) (Drift, bool, error) {
	inv, err := s.GetInvoice(ctx, id)
	if err != nil {
		return Drift{}, false, err
	}
	payments, err := s.store.ListPaymentsByInvoice(ctx, id)
	if err != nil {
		return Drift{}, false, persistence("list invoice payments", err)
	}
	if len(payments) == 0 {
		return Drift{}, false, nil
	}
	paid := SumPayments(payments)
	d := Drift{
		InvoiceID: inv.ID,
		TenantID:  inv.TenantID,
		Total:     inv.Total,
		Paid:      paid,
		Stored:    inv.Status,
		Derived:   Reconcile(inv.Total, paid),
	}
	return d, d.Stored != d.Derived, nil
}

// Reconcile re-derives and persists one invoice's status under the invoice
// lock. It reports the drift it repaired, if any.
func (s *Service) Reconcile(ctx context.Context, id uuid.UUID) (d Drift, repaired bool, err error) {
	var tr transition
	defer func() { s.finish(ctx, OpReconcile, d.TenantID, tr, err) }()

	unlock := s.locks.Lock(id)
	defer unlock()

	err = s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		inv, err := tx.LockInvoice(ctx, id)
		if err != nil {
			return err
		}
		paid, count, err := tx.SumPayments(ctx, id)
		if err != nil {
			return err
		}
		if count == 0 {
			return nil
		}
		d = Drift{
			InvoiceID: inv.ID,
			TenantID:  inv.TenantID,
			Total:     inv.Total,
			Paid:      paid,
			Stored:    inv.Status,
			Derived:   Reconcile(inv.Total, paid),
		}
		tr, err = s.settle(ctx, tx, inv)
		return err
	})
	if err != nil {
		tr = transition{}
		return Drift{}, false, persistence("reconcile invoice", err)
	}
	if !tr.changed() {
		return Drift{}, false, nil
	}
	return d, true, nil
}

// ListPaidInvoiceIDs returns every invoice with at least one payment.
func (s *Service) ListPaidInvoiceIDs(ctx context.Context) ([]uuid.UUID, error) {
	ids, err := s.store.ListPaidInvoiceIDs(ctx)
	if err != nil {
		return nil, persistence("list paid invoices", err)
	}
	return ids, nil
}
