package perf

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/freelanceflow/freelanceflow/internal/analytics"
	jobmetrics "github.com/freelanceflow/freelanceflow/internal/jobs"
	"github.com/freelanceflow/freelanceflow/internal/ledger"
	"github.com/freelanceflow/freelanceflow/internal/ledger/sqlite"
	"github.com/freelanceflow/freelanceflow/jobs"
)

type bench struct {
	store   *sqlite.Store
	svc     *ledger.Service
	tenant  uuid.UUID
	project ledger.Project
}

func newBench(tb testing.TB) *bench {
	tb.Helper()
	store, err := sqlite.Open(":memory:")
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	tenant := uuid.New()
	client := ledger.Client{ID: uuid.New(), TenantID: tenant, Name: "Bench", CreatedAt: time.Now()}
	require.NoError(tb, store.CreateClient(ctx, client))
	project := ledger.Project{ID: uuid.New(), TenantID: tenant, ClientID: client.ID, Name: "Load", Status: ledger.ProjectInProgress, CreatedAt: time.Now()}
	require.NoError(tb, store.CreateProject(ctx, project))

	return &bench{store: store, svc: ledger.NewService(store, ledger.ServiceConfig{AllowOverpayment: true}), tenant: tenant, project: project}
}

func (b *bench) invoice(tb testing.TB, total string) ledger.Invoice {
	tb.Helper()
	inv, err := b.svc.CreateInvoice(context.Background(), ledger.CreateInvoiceInput{
		ProjectID: b.project.ID,
		Total:     decimal.RequireFromString(total),
		IssueDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(tb, err)
	return inv
}

func (b *bench) pay(tb testing.TB, invoiceID uuid.UUID, amount string, day int) {
	tb.Helper()
	_, err := b.svc.CreatePayment(context.Background(), invoiceID, ledger.PaymentInput{
		Amount:      decimal.RequireFromString(amount),
		PaymentDate: time.Date(2024, time.Month(1+day%12), 1+day%28, 0, 0, 0, 0, time.UTC),
		Method:      ledger.MethodBankTransfer,
	})
	require.NoError(tb, err)
}

func BenchmarkCreatePaymentSameInvoice(b *testing.B) {
	bn := newBench(b)
	inv := bn.invoice(b, "1000000")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bn.pay(b, inv.ID, "0.01", i)
	}
}

func BenchmarkCreatePaymentParallel(b *testing.B) {
	bn := newBench(b)
	invoices := make([]ledger.Invoice, 16)
	for i := range invoices {
		invoices[i] = bn.invoice(b, "1000000")
	}
	var next atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := next.Add(1)
			bn.pay(b, invoices[i%int64(len(invoices))].ID, "1", int(i))
		}
	})
}

func BenchmarkComputeDashboard(b *testing.B) {
	for _, n := range []int{100, 1000} {
		b.Run(fmt.Sprintf("invoices=%d", n), func(b *testing.B) {
			bn := newBench(b)
			for i := 0; i < n; i++ {
				inv := bn.invoice(b, "500")
				bn.pay(b, inv.ID, "125.50", i)
			}
			snap, err := bn.store.Snapshot(context.Background(), bn.tenant)
			require.NoError(b, err)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = analytics.Compute(snap)
			}
		})
	}
}

func TestSweepThroughputIsRecorded(t *testing.T) {
	bn := newBench(t)
	for i := 0; i < 50; i++ {
		inv := bn.invoice(t, "100")
		bn.pay(t, inv.ID, "40", i)
	}

	reg := prometheus.NewRegistry()
	job := jobs.NewReconcileSweepJob(bn.svc, nil, jobmetrics.NewMetrics(reg))
	result, err := job.Run(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 50, result.Checked)
	require.Empty(t, result.Drifts)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Equal(t, 50.0, counterValue(t, families, "freelanceflow_reconcile_checked_total", nil))
	require.Equal(t, 1.0, counterValue(t, families, "freelanceflow_jobs_total",
		map[string]string{"job": jobs.TaskReconcileSweep, "status": "success"}))
}

func counterValue(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if matches(metric.GetLabel(), labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}

func matches(pairs []*dto.LabelPair, want map[string]string) bool {
	if len(pairs) != len(want) {
		return false
	}
	for _, pair := range pairs {
		if want[pair.GetName()] != pair.GetValue() {
			return false
		}
	}
	return true
}
