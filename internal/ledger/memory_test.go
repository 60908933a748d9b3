package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type memoryState struct {
	clients  map[uuid.UUID]Client
	projects map[uuid.UUID]Project
	invoices map[uuid.UUID]Invoice
	payments map[uuid.UUID]Payment
}

func (s memoryState) clone() memoryState {
	out := memoryState{
		clients:  make(map[uuid.UUID]Client, len(s.clients)),
		projects: make(map[uuid.UUID]Project, len(s.projects)),
		invoices: make(map[uuid.UUID]Invoice, len(s.invoices)),
		payments: make(map[uuid.UUID]Payment, len(s.payments)),
	}
	for k, v := range s.clients {
		out.clients[k] = v
	}
	for k, v := range s.projects {
		out.projects[k] = v
	}
	for k, v := range s.invoices {
		out.invoices[k] = v
	}
	for k, v := range s.payments {
		out.payments[k] = v
	}
	return out
}

// memoryStore serializes transactions and commits by swapping in the
// working copy, so a failing fn leaves no trace.
type memoryStore struct {
	mu    sync.Mutex
	state memoryState

	failSetStatus error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{state: memoryState{}.clone()}
}

func (s *memoryStore) addProject(tenantID uuid.UUID) Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	client := Client{ID: uuid.New(), TenantID: tenantID, Name: "Acme", CreatedAt: time.Now()}
	s.state.clients[client.ID] = client
	p := Project{
		ID:         uuid.New(),
		TenantID:   tenantID,
		ClientID:   client.ID,
		ClientName: client.Name,
		Name:       "Website",
		Status:     ProjectInProgress,
		CreatedAt:  time.Now(),
	}
	s.state.projects[p.ID] = p
	return p
}

func (s *memoryStore) forceStatus(id uuid.UUID, status InvoiceStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv := s.state.invoices[id]
	inv.Status = status
	s.state.invoices[id] = inv
}

func (s *memoryStore) paymentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.payments)
}

func (s *memoryStore) WithTx(ctx context.Context, fn func(context.Context, Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	working := s.state.clone()
	if err := fn(ctx, &memoryTx{state: working, store: s}); err != nil {
		return err
	}
	s.state = working
	return nil
}

func (s *memoryStore) GetProject(ctx context.Context, id uuid.UUID) (Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return getProject(s.state, id)
}

func (s *memoryStore) GetInvoice(ctx context.Context, id uuid.UUID) (Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.state.invoices[id]
	if !ok {
		return Invoice{}, NotFound("invoice", id)
	}
	return inv, nil
}

func (s *memoryStore) ListInvoicesByProject(ctx context.Context, projectID uuid.UUID) ([]Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Invoice
	for _, inv := range s.state.invoices {
		if inv.ProjectID == projectID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssueDate.After(out[j].IssueDate) })
	return out, nil
}

func (s *memoryStore) ListInvoicesByTenant(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]InvoiceView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []InvoiceView
	for _, inv := range s.state.invoices {
		if inv.TenantID != tenantID || (filter.Status != "" && inv.Status != filter.Status) {
			continue
		}
		p := s.state.projects[inv.ProjectID]
		out = append(out, InvoiceView{Invoice: inv, ProjectName: p.Name, ClientName: p.ClientName})
	}
	return out, nil
}

func (s *memoryStore) GetPayment(ctx context.Context, id uuid.UUID) (Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return getPayment(s.state, id)
}

func (s *memoryStore) ListPaymentsByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Payment
	for _, p := range s.state.payments {
		if p.InvoiceID == invoiceID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentDate.Before(out[j].PaymentDate) })
	return out, nil
}

func (s *memoryStore) ListPaidInvoiceIDs(ctx context.Context) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, p := range s.state.payments {
		if _, ok := seen[p.InvoiceID]; ok {
			continue
		}
		seen[p.InvoiceID] = struct{}{}
		out = append(out, p.InvoiceID)
	}
	return out, nil
}

func (s *memoryStore) Snapshot(ctx context.Context, tenantID uuid.UUID) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{TenantID: tenantID, TakenAt: time.Now()}
	for _, c := range s.state.clients {
		if c.TenantID == tenantID {
			snap.Clients = append(snap.Clients, c)
		}
	}
	for _, p := range s.state.projects {
		if p.TenantID == tenantID {
			snap.Projects = append(snap.Projects, p)
		}
	}
	for _, inv := range s.state.invoices {
		if inv.TenantID == tenantID {
			snap.Invoices = append(snap.Invoices, inv)
		}
	}
	for _, p := range s.state.payments {
		if p.TenantID == tenantID {
			snap.Payments = append(snap.Payments, p)
		}
	}
	return snap, nil
}

func (s *memoryStore) Close() error { return nil }

func getProject(state memoryState, id uuid.UUID) (Project, error) {
	p, ok := state.projects[id]
	if !ok {
		return Project{}, NotFound("project", id)
	}
	return p, nil
}

func getPayment(state memoryState, id uuid.UUID) (Payment, error) {
	p, ok := state.payments[id]
	if !ok {
		return Payment{}, NotFound("payment", id)
	}
	return p, nil
}

type memoryTx struct {
	state memoryState
	store *memoryStore
}

func (t *memoryTx) GetProject(ctx context.Context, id uuid.UUID) (Project, error) {
	return getProject(t.state, id)
}

func (t *memoryTx) InsertInvoice(ctx context.Context, inv Invoice) error {
	t.state.invoices[inv.ID] = inv
	return nil
}

func (t *memoryTx) LockInvoice(ctx context.Context, id uuid.UUID) (Invoice, error) {
	inv, ok := t.state.invoices[id]
	if !ok {
		return Invoice{}, NotFound("invoice", id)
	}
	inv.Version++
	t.state.invoices[id] = inv
	return inv, nil
}

func (t *memoryTx) UpdateInvoice(ctx context.Context, inv Invoice) error {
	if _, ok := t.state.invoices[inv.ID]; !ok {
		return NotFound("invoice", inv.ID)
	}
	t.state.invoices[inv.ID] = inv
	return nil
}

func (t *memoryTx) SetInvoiceStatus(ctx context.Context, id uuid.UUID, status InvoiceStatus, at time.Time) error {
	if t.store.failSetStatus != nil {
		return t.store.failSetStatus
	}
	inv := t.state.invoices[id]
	inv.Status = status
	inv.UpdatedAt = at
	t.state.invoices[id] = inv
	return nil
}

func (t *memoryTx) DeleteInvoice(ctx context.Context, id uuid.UUID) (int, error) {
	removed := 0
	for pid, p := range t.state.payments {
		if p.InvoiceID == id {
			delete(t.state.payments, pid)
			removed++
		}
	}
	delete(t.state.invoices, id)
	return removed, nil
}

func (t *memoryTx) GetPayment(ctx context.Context, id uuid.UUID) (Payment, error) {
	return getPayment(t.state, id)
}

func (t *memoryTx) InsertPayment(ctx context.Context, p Payment) error {
	t.state.payments[p.ID] = p
	return nil
}

func (t *memoryTx) UpdatePayment(ctx context.Context, p Payment) error {
	t.state.payments[p.ID] = p
	return nil
}

func (t *memoryTx) DeletePayment(ctx context.Context, id uuid.UUID) error {
	delete(t.state.payments, id)
	return nil
}

func (t *memoryTx) SumPayments(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, int, error) {
	sum := decimal.Zero
	count := 0
	for _, p := range t.state.payments {
		if p.InvoiceID == invoiceID {
			sum = sum.Add(p.Amount)
			count++
		}
	}
	return sum, count, nil
}
