// Package finance is the query boundary used by the HTTP and CLI layers.
// Every call is scoped to the caller's tenant; entities of other tenants are
// reported as missing.
package finance

import (
	"context"

	"github.com/google/uuid"

	"github.com/freelanceflow/freelanceflow/internal/analytics"
	"github.com/freelanceflow/freelanceflow/internal/ledger"
)

// Dashboards computes tenant dashboards.
type Dashboards interface {
	Dashboard(ctx context.Context, tenantID uuid.UUID) (analytics.Dashboard, error)
}

// Facade translates tenant-scoped requests into ledger and analytics calls.
type Facade struct {
	ledger     *ledger.Service
	dashboards Dashboards
	present    presenter
}

// NewFacade builds a Facade. currency is the ISO code amounts are displayed in.
func NewFacade(svc *ledger.Service, dashboards Dashboards, currency string) *Facade {
	if currency == "" {
		currency = "USD"
	}
	return &Facade{ledger: svc, dashboards: dashboards, present: presenter{currency: currency}}
}

// Dashboard returns the tenant's dashboard.
func (f *Facade) Dashboard(ctx context.Context, tenantID uuid.UUID) (DashboardView, error) {
	d, err := f.dashboards.Dashboard(ctx, tenantID)
	if err != nil {
		return DashboardView{}, err
	}
	return f.present.dashboard(d), nil
}

// ListInvoices lists the tenant's invoices, optionally filtered by status.
func (f *Facade) ListInvoices(ctx context.Context, tenantID uuid.UUID, status string, limit int) ([]InvoiceView, error) {
	views, err := f.ledger.ListInvoicesByTenant(ctx, tenantID, ledger.InvoiceFilter{
		Status: ledger.InvoiceStatus(status),
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]InvoiceView, 0, len(views))
	for _, v := range views {
		out = append(out, f.present.invoiceView(v))
	}
	return out, nil
}

// ListProjectInvoices lists one project's invoices.
func (f *Facade) ListProjectInvoices(ctx context.Context, tenantID, projectID uuid.UUID) ([]InvoiceView, error) {
	project, err := f.ownedProject(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	invoices, err := f.ledger.ListInvoicesByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]InvoiceView, 0, len(invoices))
	for _, inv := range invoices {
		v := f.present.invoice(inv)
		v.ProjectName = project.Name
		v.ClientName = project.ClientName
		out = append(out, v)
	}
	return out, nil
}

// CreateInvoice creates an invoice under one of the tenant's projects.
func (f *Facade) CreateInvoice(ctx context.Context, tenantID uuid.UUID, input ledger.CreateInvoiceInput) (InvoiceView, error) {
	if _, err := f.ownedProject(ctx, tenantID, input.ProjectID); err != nil {
		return InvoiceView{}, err
	}
	inv, err := f.ledger.CreateInvoice(ctx, input)
	if err != nil {
		return InvoiceView{}, err
	}
	return f.present.invoice(inv), nil
}

// GetInvoice returns the invoice with its balance and payments.
func (f *Facade) GetInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (InvoiceDetail, error) {
	inv, err := f.ownedInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return InvoiceDetail{}, err
	}
	balance, payments, err := f.ledger.InvoiceBalance(ctx, invoiceID)
	if err != nil {
		return InvoiceDetail{}, err
	}
	return InvoiceDetail{
		Invoice:  f.present.invoice(inv),
		Balance:  f.present.balance(balance),
		Payments: f.present.payments(payments),
	}, nil
}

// UpdateInvoice edits an invoice.
func (f *Facade) UpdateInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID, input ledger.UpdateInvoiceInput) (InvoiceView, error) {
	if _, err := f.ownedInvoice(ctx, tenantID, invoiceID); err != nil {
		return InvoiceView{}, err
	}
	inv, err := f.ledger.UpdateInvoice(ctx, invoiceID, input)
	if err != nil {
		return InvoiceView{}, err
	}
	return f.present.invoice(inv), nil
}

// DeleteInvoice deletes an invoice and its payments.
func (f *Facade) DeleteInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (int, error) {
	if _, err := f.ownedInvoice(ctx, tenantID, invoiceID); err != nil {
		return 0, err
	}
	return f.ledger.DeleteInvoice(ctx, invoiceID)
}

// ListPayments lists an invoice's payments.
func (f *Facade) ListPayments(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]PaymentView, error) {
	if _, err := f.ownedInvoice(ctx, tenantID, invoiceID); err != nil {
		return nil, err
	}
	payments, err := f.ledger.ListPaymentsByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return f.present.payments(payments), nil
}

// CreatePayment records a payment against one of the tenant's invoices.
func (f *Facade) CreatePayment(ctx context.Context, tenantID, invoiceID uuid.UUID, input ledger.PaymentInput) (PaymentResult, error) {
	if _, err := f.ownedInvoice(ctx, tenantID, invoiceID); err != nil {
		return PaymentResult{}, err
	}
	p, err := f.ledger.CreatePayment(ctx, invoiceID, input)
	if err != nil {
		return PaymentResult{}, err
	}
	return f.paymentResult(ctx, p)
}

// GetPayment returns one payment.
func (f *Facade) GetPayment(ctx context.Context, tenantID, paymentID uuid.UUID) (PaymentView, error) {
	p, err := f.ownedPayment(ctx, tenantID, paymentID)
	if err != nil {
		return PaymentView{}, err
	}
	return f.present.payment(p), nil
}

// UpdatePayment edits a payment.
func (f *Facade) UpdatePayment(ctx context.Context, tenantID, paymentID uuid.UUID, input ledger.PaymentInput) (PaymentResult, error) {
	if _, err := f.ownedPayment(ctx, tenantID, paymentID); err != nil {
		return PaymentResult{}, err
	}
	p, err := f.ledger.UpdatePayment(ctx, paymentID, input)
	if err != nil {
		return PaymentResult{}, err
	}
	return f.paymentResult(ctx, p)
}

// DeletePayment removes a payment and returns the invoice balance after it.
func (f *Facade) DeletePayment(ctx context.Context, tenantID, paymentID uuid.UUID) (BalanceView, error) {
	p, err := f.ownedPayment(ctx, tenantID, paymentID)
	if err != nil {
		return BalanceView{}, err
	}
	if err := f.ledger.DeletePayment(ctx, paymentID); err != nil {
		return BalanceView{}, err
	}
	balance, _, err := f.ledger.InvoiceBalance(ctx, p.InvoiceID)
	if err != nil {
		return BalanceView{}, err
	}
	return f.present.balance(balance), nil
}

func (f *Facade) paymentResult(ctx context.Context, p ledger.Payment) (PaymentResult, error) {
	balance, _, err := f.ledger.InvoiceBalance(ctx, p.InvoiceID)
	if err != nil {
		return PaymentResult{}, err
	}
	return PaymentResult{Payment: f.present.payment(p), Balance: f.present.balance(balance)}, nil
}

func (f *Facade) ownedProject(ctx context.Context, tenantID, projectID uuid.UUID) (ledger.Project, error) {
	p, err := f.ledger.GetProject(ctx, projectID)
	if err != nil {
		return ledger.Project{}, err
	}
	if p.TenantID != tenantID {
		return ledger.Project{}, ledger.NotFound("project", projectID)
	}
	return p, nil
}

func (f *Facade) ownedInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (ledger.Invoice, error) {
	inv, err := f.ledger.GetInvoice(ctx, invoiceID)
	if err != nil {
		return ledger.Invoice{}, err
	}
	if inv.TenantID != tenantID {
		return ledger.Invoice{}, ledger.NotFound("invoice", invoiceID)
	}
	return inv, nil
}

func (f *Facade) ownedPayment(ctx context.Context, tenantID, paymentID uuid.UUID) (ledger.Payment, error) {
	p, err := f.ledger.GetPayment(ctx, paymentID)
	if err != nil {
		return ledger.Payment{}, err
	}
	if p.TenantID != tenantID {
		return ledger.Payment{}, ledger.NotFound("payment", paymentID)
	}
	return p, nil
}
