package analytics

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freelanceflow/freelanceflow/internal/ledger"
)

const (
	// RecentLimit is the number of projects and invoices in the recent lists.
	RecentLimit = 5
	// MonthWindow is the number of most recent revenue months kept.
	MonthWindow = 12
	monthLayout = "2006-01"
)

// MonthRevenue is the payment total received in one calendar month.
type MonthRevenue struct {
	Month  string          `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

// Dashboard is the tenant-wide rollup computed from one snapshot.
type Dashboard struct {
	TenantID         uuid.UUID                    `json:"tenant_id"`
	AsOf             time.Time                    `json:"as_of"`
	TotalClients     int                          `json:"total_clients"`
	TotalProjects    int                          `json:"total_projects"`
	TotalInvoices    int                          `json:"total_invoices"`
	TotalRevenue     decimal.Decimal              `json:"total_revenue"`
	PendingInvoices  int                          `json:"pending_invoices"`
	PendingAmount    decimal.Decimal              `json:"pending_amount"`
	ProjectsByStatus map[ledger.ProjectStatus]int `json:"projects_by_status"`
	RecentProjects   []ledger.Project             `json:"recent_projects"`
	RecentInvoices   []ledger.InvoiceView         `json:"recent_invoices"`
	MonthlyRevenue   []MonthRevenue               `json:"monthly_revenue"`
}

// Compute derives every dashboard figure from snap. It reads nothing else,
// so all figures describe the same point in time.
func Compute(snap ledger.Snapshot) Dashboard {
	pending, pendingCount := PendingAmount(snap.Invoices, snap.Payments)
	return Dashboard{
		TenantID:         snap.TenantID,
		AsOf:             snap.TakenAt,
		TotalClients:     len(snap.Clients),
		TotalProjects:    len(snap.Projects),
		TotalInvoices:    len(snap.Invoices),
		TotalRevenue:     TotalRevenue(snap.Payments),
		PendingInvoices:  pendingCount,
		PendingAmount:    pending,
		ProjectsByStatus: ProjectsByStatus(snap.Projects),
		RecentProjects:   RecentProjects(snap.Projects, RecentLimit),
		RecentInvoices:   RecentInvoices(snap, RecentLimit),
		MonthlyRevenue:   MonthlyRevenue(snap.Payments, MonthWindow),
	}
}

// TotalRevenue sums every payment.
func TotalRevenue(payments []ledger.Payment) decimal.Decimal {
	return ledger.SumPayments(payments)
}

// PendingAmount sums total minus paid over invoices that are not Paid and
// reports how many such invoices exist.
func PendingAmount(invoices []ledger.Invoice, payments []ledger.Payment) (decimal.Decimal, int) {
	paid := make(map[uuid.UUID]decimal.Decimal, len(invoices))
	for _, p := range payments {
		paid[p.InvoiceID] = paid[p.InvoiceID].Add(p.Amount)
	}
	total := decimal.Zero
	count := 0
	for _, inv := range invoices {
		if inv.Status == ledger.StatusPaid {
			continue
		}
		count++
		total = total.Add(inv.Total.Sub(paid[inv.ID]))
	}
	return total, count
}

// ProjectsByStatus counts projects per status. Statuses without projects are
// absent from the map.
func ProjectsByStatus(projects []ledger.Project) map[ledger.ProjectStatus]int {
	out := make(map[ledger.ProjectStatus]int)
	for _, p := range projects {
		out[p.Status]++
	}
	return out
}

// MonthlyRevenue buckets payments by payment month and returns the latest
// window months in ascending order.
func MonthlyRevenue(payments []ledger.Payment, window int) []MonthRevenue {
	sums := make(map[string]decimal.Decimal)
	for _, p := range payments {
		key := p.PaymentDate.UTC().Format(monthLayout)
		sums[key] = sums[key].Add(p.Amount)
	}
	months := make([]string, 0, len(sums))
	for m := range sums {
		months = append(months, m)
	}
	sort.Strings(months)
	if window > 0 && len(months) > window {
		months = months[len(months)-window:]
	}
	out := make([]MonthRevenue, 0, len(months))
	for _, m := range months {
		out = append(out, MonthRevenue{Month: m, Amount: sums[m]})
	}
	return out
}

// RecentProjects returns up to n projects, newest first.
func RecentProjects(projects []ledger.Project, n int) []ledger.Project {
	out := append([]ledger.Project(nil), projects...)
	sort.Slice(out, func(i, j int) bool {
		return newer(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return head(out, n)
}

// RecentInvoices returns up to n invoices, newest first, with project and
// client names resolved from the snapshot.
func RecentInvoices(snap ledger.Snapshot, n int) []ledger.InvoiceView {
	projects := make(map[uuid.UUID]ledger.Project, len(snap.Projects))
	for _, p := range snap.Projects {
		projects[p.ID] = p
	}
	out := make([]ledger.InvoiceView, 0, len(snap.Invoices))
	for _, inv := range snap.Invoices {
		p := projects[inv.ProjectID]
		out = append(out, ledger.InvoiceView{Invoice: inv, ProjectName: p.Name, ClientName: p.ClientName})
	}
	sort.Slice(out, func(i, j int) bool {
		return newer(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return head(out, n)
}

func newer(a, b time.Time, aID, bID uuid.UUID) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return aID.String() < bID.String()
}

func head[T any](items []T, n int) []T {
	if n >= 0 && len(items) > n {
		return items[:n]
	}
	return items
}
