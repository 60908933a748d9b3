package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freelanceflow/freelanceflow/internal/analytics"
	"github.com/freelanceflow/freelanceflow/internal/ledger"
	"github.com/freelanceflow/freelanceflow/internal/money"
)

const dateLayout = "2006-01-02"

// Amount carries the exact value together with its display string.
type Amount struct {
	Value   decimal.Decimal `json:"value"`
	Display string          `json:"display"`
}

// InvoiceView is an invoice shaped for presentation.
type InvoiceView struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"project_id"`
	ProjectName string    `json:"project_name,omitempty"`
	ClientName  string    `json:"client_name,omitempty"`
	Total       Amount    `json:"total"`
	IssueDate   string    `json:"issue_date"`
	DueDate     string    `json:"due_date"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PaymentView is a payment shaped for presentation.
type PaymentView struct {
	ID          uuid.UUID `json:"id"`
	InvoiceID   uuid.UUID `json:"invoice_id"`
	Amount      Amount    `json:"amount"`
	PaymentDate string    `json:"payment_date"`
	Method      string    `json:"method"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BalanceView summarises what is paid and what remains.
type BalanceView struct {
	Total        Amount `json:"total"`
	Paid         Amount `json:"paid"`
	Remaining    Amount `json:"remaining"`
	PaymentCount int    `json:"payment_count"`
	Status       string `json:"status"`
}

// InvoiceDetail is one invoice with its balance and payments.
type InvoiceDetail struct {
	Invoice  InvoiceView   `json:"invoice"`
	Balance  BalanceView   `json:"balance"`
	Payments []PaymentView `json:"payments"`
}

// PaymentResult is a written payment plus the invoice balance after it.
type PaymentResult struct {
	Payment PaymentView `json:"payment"`
	Balance BalanceView `json:"balance"`
}

// ProjectView is a project row on the dashboard.
type ProjectView struct {
	ID         uuid.UUID `json:"id"`
	ClientID   uuid.UUID `json:"client_id"`
	ClientName string    `json:"client_name"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	Budget     Amount    `json:"budget"`
	CreatedAt  time.Time `json:"created_at"`
}

// MonthView is one monthly revenue bucket.
type MonthView struct {
	Month  string `json:"month"`
	Amount Amount `json:"amount"`
}

// DashboardView is the dashboard shaped for presentation.
type DashboardView struct {
	AsOf             time.Time      `json:"as_of"`
	TotalClients     int            `json:"total_clients"`
	TotalProjects    int            `json:"total_projects"`
	TotalInvoices    int            `json:"total_invoices"`
	TotalRevenue     Amount         `json:"total_revenue"`
	PendingInvoices  int            `json:"pending_invoices"`
	PendingAmount    Amount         `json:"pending_amount"`
	ProjectsByStatus map[string]int `json:"projects_by_status"`
	RecentProjects   []ProjectView  `json:"recent_projects"`
	RecentInvoices   []InvoiceView  `json:"recent_invoices"`
	MonthlyRevenue   []MonthView    `json:"monthly_revenue"`
}

type presenter struct {
	currency string
}

func (p presenter) amount(d decimal.Decimal) Amount {
	return Amount{Value: money.Normalize(d), Display: money.Format(d, p.currency)}
}

func (p presenter) invoice(inv ledger.Invoice) InvoiceView {
	return InvoiceView{
		ID:        inv.ID,
		ProjectID: inv.ProjectID,
		Total:     p.amount(inv.Total),
		IssueDate: inv.IssueDate.Format(dateLayout),
		DueDate:   inv.DueDate.Format(dateLayout),
		Status:    string(inv.Status),
		Notes:     inv.Notes,
		Version:   inv.Version,
		CreatedAt: inv.CreatedAt,
		UpdatedAt: inv.UpdatedAt,
	}
}

func (p presenter) invoiceView(v ledger.InvoiceView) InvoiceView {
	out := p.invoice(v.Invoice)
	out.ProjectName = v.ProjectName
	out.ClientName = v.ClientName
	return out
}

func (p presenter) payment(pay ledger.Payment) PaymentView {
	return PaymentView{
		ID:          pay.ID,
		InvoiceID:   pay.InvoiceID,
		Amount:      p.amount(pay.Amount),
		PaymentDate: pay.PaymentDate.Format(dateLayout),
		Method:      string(pay.Method),
		Notes:       pay.Notes,
		CreatedAt:   pay.CreatedAt,
		UpdatedAt:   pay.UpdatedAt,
	}
}

func (p presenter) payments(in []ledger.Payment) []PaymentView {
	out := make([]PaymentView, 0, len(in))
	for _, pay := range in {
		out = append(out, p.payment(pay))
	}
	return out
}

func (p presenter) balance(b ledger.InvoiceBalance) BalanceView {
	return BalanceView{
		Total:        p.amount(b.Total),
		Paid:         p.amount(b.Paid),
		Remaining:    p.amount(b.Remaining),
		PaymentCount: b.PaymentCount,
		Status:       string(b.Status),
	}
}

func (p presenter) dashboard(d analytics.Dashboard) DashboardView {
	out := DashboardView{
		AsOf:             d.AsOf,
		TotalClients:     d.TotalClients,
		TotalProjects:    d.TotalProjects,
		TotalInvoices:    d.TotalInvoices,
		TotalRevenue:     p.amount(d.TotalRevenue),
		PendingInvoices:  d.PendingInvoices,
		PendingAmount:    p.amount(d.PendingAmount),
		ProjectsByStatus: make(map[string]int, len(d.ProjectsByStatus)),
		RecentProjects:   make([]ProjectView, 0, len(d.RecentProjects)),
		RecentInvoices:   make([]InvoiceView, 0, len(d.RecentInvoices)),
		MonthlyRevenue:   make([]MonthView, 0, len(d.MonthlyRevenue)),
	}
	for status, n := range d.ProjectsByStatus {
		out.ProjectsByStatus[string(status)] = n
	}
	for _, pr := range d.RecentProjects {
		out.RecentProjects = append(out.RecentProjects, ProjectView{
			ID:         pr.ID,
			ClientID:   pr.ClientID,
			ClientName: pr.ClientName,
			Name:       pr.Name,
			Status:     string(pr.Status),
			Budget:     p.amount(pr.Budget),
			CreatedAt:  pr.CreatedAt,
		})
	}
	for _, inv := range d.RecentInvoices {
		out.RecentInvoices = append(out.RecentInvoices, p.invoiceView(inv))
	}
	for _, m := range d.MonthlyRevenue {
		out.MonthlyRevenue = append(out.MonthlyRevenue, MonthView{Month: m.Month, Amount: p.amount(m.Amount)})
	}
	return out
}
