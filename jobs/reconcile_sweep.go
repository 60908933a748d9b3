package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/freelanceflow/freelanceflow/internal/jobs"
	"github.com/freelanceflow/freelanceflow/internal/ledger"
)

// ReconcileSweepUniqueTTL keeps at most one queued sweep at a time.
const ReconcileSweepUniqueTTL = 30 * time.Minute

// Reconciler is the ledger surface the sweep needs.
type Reconciler interface {
	ListPaidInvoiceIDs(ctx context.Context) ([]uuid.UUID, error)
	CheckInvoice(ctx context.Context, id uuid.UUID) (ledger.Drift, bool, error)
	Reconcile(ctx context.Context, id uuid.UUID) (ledger.Drift, bool, error)
}

// SweepResult summarises one sweep.
type SweepResult struct {
	Checked  int
	Repaired int
	Failed   int
	Drifts   []ledger.Drift
	Duration time.Duration
}

// ReconcileSweepJob walks every invoice with payments and repairs statuses
// that disagree with the payments on record.
type ReconcileSweepJob struct {
	Ledger  Reconciler
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewReconcileSweepJob constructs the job handler.
func NewReconcileSweepJob(reconciler Reconciler, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReconcileSweepJob {
	return &ReconcileSweepJob{
		Ledger:  reconciler,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the sweep for an Asynq task.
func (j *ReconcileSweepJob) Handle(ctx context.Context, task *asynq.Task) error {
	var payload ReconcileSweepPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("decode reconcile payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	_, err := j.Run(ctx, payload.DryRun)
	return err
}

// Run performs the sweep inline. With dryRun set, drift is reported but
// nothing is written. A failure on one invoice does not stop the sweep.
func (j *ReconcileSweepJob) Run(ctx context.Context, dryRun bool) (result SweepResult, resultErr error) {
	if j == nil || j.Ledger == nil {
		return SweepResult{}, errors.New("reconcile sweep: dependencies not configured")
	}
	tracker := j.Metrics.Track(TaskReconcileSweep)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	start := j.now()
	ids, err := j.Ledger.ListPaidInvoiceIDs(ctx)
	if err != nil {
		j.log().Error("list invoices with payments", slog.Any("error", err))
		return SweepResult{}, err
	}

	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		drift, drifted, err := j.inspect(ctx, id, dryRun)
		switch {
		case errors.Is(err, ledger.ErrNotFound):
			continue
		case err != nil:
			result.Failed++
			errs = append(errs, fmt.Errorf("invoice %s: %w", id, err))
			j.log().Error("reconcile invoice", slog.String("invoice_id", id.String()), slog.Any("error", err))
			continue
		}
		result.Checked++
		if !drifted {
			continue
		}
		result.Drifts = append(result.Drifts, drift)
		if !dryRun {
			result.Repaired++
		}
		j.log().Warn("invoice status drift",
			slog.String("invoice_id", id.String()),
			slog.String("tenant_id", drift.TenantID.String()),
			slog.String("stored", string(drift.Stored)),
			slog.String("derived", string(drift.Derived)),
			slog.Bool("dry_run", dryRun))
	}

	result.Duration = j.now().Sub(start)
	j.Metrics.AddSweep(result.Checked, len(result.Drifts), result.Repaired)
	j.log().Info("reconcile sweep finished",
		slog.Int("checked", result.Checked),
		slog.Int("drifted", len(result.Drifts)),
		slog.Int("repaired", result.Repaired),
		slog.Int("failed", result.Failed),
		slog.Duration("duration", result.Duration))
	return result, errors.Join(errs...)
}

func (j *ReconcileSweepJob) inspect(ctx context.Context, id uuid.UUID, dryRun bool) (ledger.Drift, bool, error) {
	if dryRun {
		return j.Ledger.CheckInvoice(ctx, id)
	}
	return j.Ledger.Reconcile(ctx, id)
}

func (j *ReconcileSweepJob) log() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *ReconcileSweepJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
