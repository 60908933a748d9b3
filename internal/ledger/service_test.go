package ledger

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

type recordingObserver struct {
	mu          sync.Mutex
	ops         []string
	failures    int
	transitions []transition
}

func (o *recordingObserver) MutationApplied(op string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops = append(o.ops, op)
	if err != nil {
		o.failures++
	}
}

func (o *recordingObserver) StatusChanged(from, to InvoiceStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, transition{from: from, to: to})
}

type recordingInvalidator struct {
	mu      sync.Mutex
	tenants []uuid.UUID
}

func (i *recordingInvalidator) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.tenants = append(i.tenants, tenantID)
	return nil
}

func newTestService(t *testing.T, cfg ServiceConfig) (*Service, *memoryStore, Project) {
	t.Helper()
	store := newMemoryStore()
	project := store.addProject(uuid.New())
	return NewService(store, cfg), store, project
}

func createInvoice(t *testing.T, svc *Service, projectID uuid.UUID, total string) Invoice {
	t.Helper()
	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		ProjectID: projectID,
		Total:     dec(total),
		IssueDate: day("2024-03-01"),
		DueDate:   day("2024-03-31"),
	})
	require.NoError(t, err)
	return inv
}

func pay(amount string) PaymentInput {
	return PaymentInput{Amount: dec(amount), PaymentDate: day("2024-03-10"), Method: MethodBankTransfer}
}

func requireDerived(t *testing.T, svc *Service, store *memoryStore, invoiceID uuid.UUID) {
	t.Helper()
	inv, err := svc.GetInvoice(context.Background(), invoiceID)
	require.NoError(t, err)
	payments, err := store.ListPaymentsByInvoice(context.Background(), invoiceID)
	require.NoError(t, err)
	if len(payments) == 0 {
		return
	}
	require.Equal(t, Reconcile(inv.Total, SumPayments(payments)), inv.Status)
}

func TestCreateInvoiceStartsUnpaid(t *testing.T) {
	svc, _, project := newTestService(t, ServiceConfig{})

	inv := createInvoice(t, svc, project.ID, "1200.50")
	require.Equal(t, StatusUnpaid, inv.Status)
	require.Equal(t, project.TenantID, inv.TenantID)
	require.True(t, inv.Total.Equal(dec("1200.50")))

	stored, err := svc.GetInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, inv.ID, stored.ID)
}

func TestCreateInvoiceValidation(t *testing.T) {
	svc, _, project := newTestService(t, ServiceConfig{})
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateInvoiceInput
		want  error
	}{
		{"missing project", CreateInvoiceInput{Total: dec("10"), IssueDate: day("2024-01-01"), DueDate: day("2024-01-02")}, ErrValidation},
		{"zero total", CreateInvoiceInput{ProjectID: project.ID, Total: dec("0"), IssueDate: day("2024-01-01"), DueDate: day("2024-01-02")}, ErrValidation},
		{"sub-cent total", CreateInvoiceInput{ProjectID: project.ID, Total: dec("0.009"), IssueDate: day("2024-01-01"), DueDate: day("2024-01-02")}, ErrValidation},
		{"negative total", CreateInvoiceInput{ProjectID: project.ID, Total: dec("-5"), IssueDate: day("2024-01-01"), DueDate: day("2024-01-02")}, ErrValidation},
		{"due before issue", CreateInvoiceInput{ProjectID: project.ID, Total: dec("10"), IssueDate: day("2024-02-01"), DueDate: day("2024-01-02")}, ErrValidation},
		{"unknown project", CreateInvoiceInput{ProjectID: uuid.New(), Total: dec("10"), IssueDate: day("2024-01-01"), DueDate: day("2024-01-02")}, ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateInvoice(ctx, tc.input)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestPaymentLifecycleDerivesStatus(t *testing.T) {
	svc, store, project := newTestService(t, ServiceConfig{})
	ctx := context.Background()
	inv := createInvoice(t, svc, project.ID, "100.00")

	first, err := svc.CreatePayment(ctx, inv.ID, pay("40"))
	require.NoError(t, err)
	require.Equal(t, project.TenantID, first.TenantID)
	got, _ := svc.GetInvoice(ctx, inv.ID)
	require.Equal(t, StatusPartiallyPaid, got.Status)

	second, err := svc.CreatePayment(ctx, inv.ID, pay("60"))
	require.NoError(t, err)
	got, _ = svc.GetInvoice(ctx, inv.ID)
	require.Equal(t, StatusPaid, got.Status)

	_, err = svc.UpdatePayment(ctx, first.ID, pay("10"))
	require.NoError(t, err)
	got, _ = svc.GetInvoice(ctx, inv.ID)
	require.Equal(t, StatusPartiallyPaid, got.Status)

	require.NoError(t, svc.DeletePayment(ctx, second.ID))
	got, _ = svc.GetInvoice(ctx, inv.ID)
	require.Equal(t, StatusPartiallyPaid, got.Status)

	require.NoError(t, svc.DeletePayment(ctx, first.ID))
	got, _ = svc.GetInvoice(ctx, inv.ID)
	require.Equal(t, StatusUnpaid, got.Status)
	require.Zero(t, store.paymentCount())
}

func TestPaymentValidation(t *testing.T) {
	svc, store, project := newTestService(t, ServiceConfig{})
	ctx := context.Background()
	inv := createInvoice(t, svc, project.ID, "100")

	cases := []struct {
		name  string
		input PaymentInput
	}{
		{"zero amount", pay("0")},
		{"negative amount", pay("-1")},
		{"truncates to zero", pay("0.001")},
		{"unknown method", PaymentInput{Amount: dec("1"), PaymentDate: day("2024-03-01"), Method: "Barter"}},
		{"missing date", PaymentInput{Amount: dec("1"), Method: MethodCash}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreatePayment(ctx, inv.ID, tc.input)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
	require.Zero(t, store.paymentCount())

	_, err := svc.CreatePayment(ctx, uuid.New(), pay("1"))
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.UpdatePayment(ctx, uuid.New(), pay("1"))
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, svc.DeletePayment(ctx, uuid.New()), ErrNotFound)
}

func TestPaymentAmountBoundaries(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		amount string
		want   InvoiceStatus
		stored string
	}{
		{"0.01", StatusPartiallyPaid, "0.01"},
		{"99.999", StatusPartiallyPaid, "99.99"},
		{"100", StatusPaid, "100"},
		{"100.004", StatusPaid, "100"},
	}
	for _, tc := range cases {
		t.Run(tc.amount, func(t *testing.T) {
			svc, _, project := newTestService(t, ServiceConfig{})
			inv := createInvoice(t, svc, project.ID, "100")

			p, err := svc.CreatePayment(ctx, inv.ID, pay(tc.amount))
			require.NoError(t, err)
			require.True(t, p.Amount.Equal(dec(tc.stored)), "stored %s", p.Amount)

			got, err := svc.GetInvoice(ctx, inv.ID)
			require.NoError(t, err)
			require.Equal(t, tc.want, got.Status)
		})
	}
}

func TestOverpaymentRejected(t *testing.T) {
	svc, store, project := newTestService(t, ServiceConfig{})
	ctx := context.Background()
	inv := createInvoice(t, svc, project.ID, "100")

	first, err := svc.CreatePayment(ctx, inv.ID, pay("100"))
	require.NoError(t, err)

	_, err = svc.CreatePayment(ctx, inv.ID, pay("0.01"))
	var overErr *OverpaymentError
	require.ErrorAs(t, err, &overErr)
	require.True(t, overErr.Paid.Equal(dec("100.01")))
	require.Equal(t, 1, store.paymentCount())

	_, err = svc.UpdatePayment(ctx, first.ID, pay("150"))
	require.ErrorIs(t, err, ErrOverpayment)

	got, _ := svc.GetInvoice(ctx, inv.ID)
	require.Equal(t, StatusPaid, got.Status)
	balance, _, err := svc.InvoiceBalance(ctx, inv.ID)
	require.NoError(t, err)
	require.True(t, balance.Paid.Equal(dec("100")))
}

func TestOverpaymentAllowed(t *testing.T) {
	svc, _, project := newTestService(t, ServiceConfig{AllowOverpayment: true})
	ctx := context.Background()
	inv := createInvoice(t, svc, project.ID, "100")

	_, err := svc.CreatePayment(ctx, inv.ID, pay("80"))
	require.NoError(t, err)
	_, err = svc.CreatePayment(ctx, inv.ID, pay("80"))
	require.NoError(t, err)

	balance, _, err := svc.InvoiceBalance(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, balance.Status)
	require.True(t, balance.Remaining.Equal(dec("-60")))
}

func TestStatusWriteFailureRollsBack(t *testing.T) {
	svc, store, project := newTestService(t, ServiceConfig{})
	ctx := context.Background()
	inv := createInvoice(t, svc, project.ID, "100")

	store.failSetStatus = errors.New("disk full")
	_, err := svc.CreatePayment(ctx, inv.ID, pay("50"))
	require.ErrorIs(t, err, ErrPersistence)
	require.False(t, IsRetryable(err))

	require.Zero(t, store.paymentCount())
	got, err := svc.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusUnpaid, got.Status)

	store.failSetStatus = nil
	_, err = svc.CreatePayment(ctx, inv.ID, pay("50"))
	require.NoError(t, err)
	requireDerived(t, svc, store, inv.ID)
}

func TestConcurrentPaymentsReachPaid(t *testing.T) {
	svc, store, project := newTestService(t, ServiceConfig{})
	ctx := context.Background()
	inv := createInvoice(t, svc, project.ID, "100")

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreatePayment(ctx, inv.ID, pay("10"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	balance, payments, err := svc.InvoiceBalance(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, payments, 10)
	require.True(t, balance.Paid.Equal(dec("100")))
	got, _ := svc.GetInvoice(ctx, inv.ID)
	require.Equal(t, StatusPaid, got.Status)
	require.Zero(t, svc.locks.Len())
	requireDerived(t, svc, store, inv.ID)
}

func TestConcurrentPaymentsNeverOverpay(t *testing.T) {
	svc, store, project := newTestService(t, ServiceConfig{})
	ctx := context.Background()
	inv := createInvoice(t, svc, project.ID, "100")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.CreatePayment(ctx, inv.ID, pay("10"))
		}()
	}
	wg.Wait()

	require.Equal(t, 10, store.paymentCount())
	requireDerived(t, svc, store, inv.ID)
}

func TestRandomSequencesKeepStatusDerived(t *testing.T) {
	svc, store, project := newTestService(t, ServiceConfig{})
	ctx := context.Background()
	inv := createInvoice(t, svc, project.ID, "250.00")
	rng := rand.New(rand.NewSource(42))

	var live []uuid.UUID
	for i := 0; i < 300; i++ {
		amount := decimal.New(int64(rng.Intn(9000)+1), -2)
		input := PaymentInput{Amount: amount, PaymentDate: day("2024-04-01"), Method: MethodCash}
		switch op := rng.Intn(3); {
		case op == 0 || len(live) == 0:
			p, err := svc.CreatePayment(ctx, inv.ID, input)
			if err == nil {
				live = append(live, p.ID)
			} else {
				require.ErrorIs(t, err, ErrOverpayment)
			}
		case op == 1:
			_, err := svc.UpdatePayment(ctx, live[rng.Intn(len(live))], input)
			if err != nil {
				require.ErrorIs(t, err, ErrOverpayment)
			}
		default:
			idx := rng.Intn(len(live))
			require.NoError(t, svc.DeletePayment(ctx, live[idx]))
			live = append(live[:idx], live[idx+1:]...)
		}

		got, err := svc.GetInvoice(ctx, inv.ID)
		require.NoError(t, err)
		payments, err := store.ListPaymentsByInvoice(ctx, inv.ID)
		require.NoError(t, err)
		paid := SumPayments(payments)
		require.False(t, Overpaid(got.Total, paid))
		if len(payments) == 0 {
			require.Equal(t, StatusUnpaid, got.Status)
			continue
		}
		require.Equal(t, Reconcile(got.Total, paid), got.Status)
	}
}

func TestUpdateInvoiceRederivesStatus(t *testing.T) {
	svc, _, project := newTestService(t, ServiceConfig{})
	ctx := context.Background()
	inv := createInvoice(t, svc, project.ID, "100")

	_, err := svc.CreatePayment(ctx, inv.ID, pay("50"))
	require.NoError(t, err)

	update := UpdateInvoiceInput{Total: dec("50"), IssueDate: inv.IssueDate, DueDate: inv.DueDate, Notes: "rebilled"}
	updated, err := svc.UpdateInvoice(ctx, inv.ID, update)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, updated.Status)
	require.Equal(t, "rebilled", updated.Notes)

	update.Total = dec("40")
	_, err = svc.UpdateInvoice(ctx, inv.ID, update)
	require.ErrorIs(t, err, ErrOverpayment)

	got, _ := svc.GetInvoice(ctx, inv.ID)
	require.True(t, got.Total.Equal(dec("50")))
}

func TestUpdateInvoiceStatusOverride(t *testing.T) {
	svc, _, project := newTestService(t, ServiceConfig{})
	ctx := context.Background()
	inv := createInvoice(t, svc, project.ID, "100")

	paid := StatusPaid
	update := UpdateInvoiceInput{Total: inv.Total, IssueDate: inv.IssueDate, DueDate: inv.DueDate, Status: &paid}
	updated, err := svc.UpdateInvoice(ctx, inv.ID, update)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, updated.Status)

	_, err = svc.CreatePayment(ctx, inv.ID, pay("30"))
	require.NoError(t, err)
	got, _ := svc.GetInvoice(ctx, inv.ID)
	require.Equal(t, StatusPartiallyPaid, got.Status)

	_, err = svc.UpdateInvoice(ctx, inv.ID, update)
	require.ErrorIs(t, err, ErrValidation)

	partial := StatusPartiallyPaid
	update.Status = &partial
	_, err = svc.UpdateInvoice(ctx, inv.ID, update)
	require.NoError(t, err)

	bogus := InvoiceStatus("Written Off")
	update.Status = &bogus
	_, err = svc.UpdateInvoice(ctx, inv.ID, update)
	require.ErrorIs(t, err, ErrValidation)
}

func TestDeleteInvoiceRemovesPayments(t *testing.T) {
	svc, store, project := newTestService(t, ServiceConfig{})
	ctx := context.Background()
	inv := createInvoice(t, svc, project.ID, "100")
	other := createInvoice(t, svc, project.ID, "100")

	for _, amount := range []string{"10", "20", "30"} {
		_, err := svc.CreatePayment(ctx, inv.ID, pay(amount))
		require.NoError(t, err)
	}
	_, err := svc.CreatePayment(ctx, other.ID, pay("5"))
	require.NoError(t, err)

	removed, err := svc.DeleteInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, 3, removed)
	require.Equal(t, 1, store.paymentCount())

	_, err = svc.GetInvoice(ctx, inv.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.DeleteInvoice(ctx, inv.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReconcileRepairsDrift(t *testing.T) {
	svc, store, project := newTestService(t, ServiceConfig{})
	ctx := context.Background()
	inv := createInvoice(t, svc, project.ID, "100")
	untouched := createInvoice(t, svc, project.ID, "100")
	_, err := svc.CreatePayment(ctx, inv.ID, pay("25"))
	require.NoError(t, err)

	store.forceStatus(inv.ID, StatusPaid)
	store.forceStatus(untouched.ID, StatusPaid)

	drift, drifted, err := svc.CheckInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.True(t, drifted)
	require.Equal(t, StatusPaid, drift.Stored)
	require.Equal(t, StatusPartiallyPaid, drift.Derived)

	_, drifted, err = svc.CheckInvoice(ctx, untouched.ID)
	require.NoError(t, err)
	require.False(t, drifted)

	drift, repaired, err := svc.Reconcile(ctx, inv.ID)
	require.NoError(t, err)
	require.True(t, repaired)
	require.Equal(t, StatusPartiallyPaid, drift.Derived)

	_, repaired, err = svc.Reconcile(ctx, inv.ID)
	require.NoError(t, err)
	require.False(t, repaired)

	_, repaired, err = svc.Reconcile(ctx, untouched.ID)
	require.NoError(t, err)
	require.False(t, repaired)
	got, _ := svc.GetInvoice(ctx, untouched.ID)
	require.Equal(t, StatusPaid, got.Status)

	ids, err := svc.ListPaidInvoiceIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{inv.ID}, ids)
}

func TestServiceNotifiesObserverAndInvalidator(t *testing.T) {
	svc, store, project := newTestService(t, ServiceConfig{})
	obs := &recordingObserver{}
	inval := &recordingInvalidator{}
	svc.SetObserver(obs)
	svc.SetInvalidator(inval)
	ctx := context.Background()

	inv := createInvoice(t, svc, project.ID, "100")
	_, err := svc.CreatePayment(ctx, inv.ID, pay("100"))
	require.NoError(t, err)
	_, err = svc.CreatePayment(ctx, inv.ID, pay("1"))
	require.Error(t, err)

	store.failSetStatus = errors.New("boom")
	_, err = svc.CreatePayment(ctx, createInvoice(t, svc, project.ID, "5").ID, pay("1"))
	require.Error(t, err)

	require.Equal(t, []string{OpCreateInvoice, OpCreatePayment, OpCreatePayment, OpCreateInvoice, OpCreatePayment}, obs.ops)
	require.Equal(t, 2, obs.failures)
	require.Equal(t, []transition{{from: StatusUnpaid, to: StatusPaid}}, obs.transitions)
	require.Equal(t, []uuid.UUID{project.TenantID, project.TenantID, project.TenantID}, inval.tenants)
}

func TestListInvoices(t *testing.T) {
	svc, _, project := newTestService(t, ServiceConfig{})
	ctx := context.Background()
	a := createInvoice(t, svc, project.ID, "10")
	createInvoice(t, svc, project.ID, "20")
	_, err := svc.CreatePayment(ctx, a.ID, pay("10"))
	require.NoError(t, err)

	byProject, err := svc.ListInvoicesByProject(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, byProject, 2)

	_, err = svc.ListInvoicesByProject(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)

	paid, err := svc.ListInvoicesByTenant(ctx, project.TenantID, InvoiceFilter{Status: StatusPaid})
	require.NoError(t, err)
	require.Len(t, paid, 1)
	require.Equal(t, "Website", paid[0].ProjectName)
	require.Equal(t, "Acme", paid[0].ClientName)

	_, err = svc.ListInvoicesByTenant(ctx, project.TenantID, InvoiceFilter{Status: "Void"})
	require.ErrorIs(t, err, ErrValidation)

	payments, err := svc.ListPaymentsByInvoice(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	_, err = svc.ListPaymentsByInvoice(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPaymentOrderDoesNotChangeOutcome(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name   string
		total  string
		first  string
		second string
		want   InvoiceStatus
	}{
		{"settles exactly", "100.00", "30.25", "69.75", StatusPaid},
		{"stays partial", "100.00", "0.01", "99.98", StatusPartiallyPaid},
		{"sub-cent amounts", "10.00", "3.339", "6.669", StatusPartiallyPaid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			balance := func(amounts ...string) InvoiceBalance {
				svc, _, project := newTestService(t, ServiceConfig{})
				inv := createInvoice(t, svc, project.ID, tc.total)
				for _, amount := range amounts {
					_, err := svc.CreatePayment(ctx, inv.ID, pay(amount))
					require.NoError(t, err)
				}
				b, _, err := svc.InvoiceBalance(ctx, inv.ID)
				require.NoError(t, err)
				return b
			}

			ab := balance(tc.first, tc.second)
			ba := balance(tc.second, tc.first)
			require.True(t, ab.Paid.Equal(ba.Paid), "paid %s vs %s", ab.Paid, ba.Paid)
			require.Equal(t, ab.Status, ba.Status)
			require.Equal(t, tc.want, ab.Status)
		})
	}
}

func TestCreateThenDeletePaymentRestoresPartialState(t *testing.T) {
	svc, _, project := newTestService(t, ServiceConfig{})
	ctx := context.Background()
	inv := createInvoice(t, svc, project.ID, "500.00")
	_, err := svc.CreatePayment(ctx, inv.ID, pay("120.50"))
	require.NoError(t, err)
	_, err = svc.CreatePayment(ctx, inv.ID, pay("79.50"))
	require.NoError(t, err)

	before, _, err := svc.InvoiceBalance(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPartiallyPaid, before.Status)

	for _, amount := range []string{"0.01", "300.00", "250.00"} {
		p, err := svc.CreatePayment(ctx, inv.ID, pay(amount))
		require.NoError(t, err)
		require.NoError(t, svc.DeletePayment(ctx, p.ID))

		after, _, err := svc.InvoiceBalance(ctx, inv.ID)
		require.NoError(t, err)
		require.True(t, before.Paid.Equal(after.Paid), "after %s: paid %s", amount, after.Paid)
		require.Equal(t, before.Status, after.Status)
		require.Equal(t, before.PaymentCount, after.PaymentCount)
		stored, err := svc.GetInvoice(ctx, inv.ID)
		require.NoError(t, err)
		require.Equal(t, StatusPartiallyPaid, stored.Status)
	}
}

func TestStatusChangeUsesServiceClock(t *testing.T) {
	clock := time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)
	svc, _, project := newTestService(t, ServiceConfig{Now: func() time.Time { return clock }})
	ctx := context.Background()
	inv := createInvoice(t, svc, project.ID, "80.00")

	clock = clock.Add(36 * time.Hour)
	_, err := svc.CreatePayment(ctx, inv.ID, pay("80"))
	require.NoError(t, err)

	got, err := svc.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, got.Status)
	require.True(t, got.UpdatedAt.Equal(clock), "updated_at %s", got.UpdatedAt)
}
