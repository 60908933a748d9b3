package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReconcileSweep re-derives the status of every invoice with payments.
	TaskReconcileSweep = "ledger:reconcile_sweep"
	// DefaultSweepCron runs the sweep once an hour.
	DefaultSweepCron = "@hourly"
)

// ReconcileSweepPayload configures one sweep run.
type ReconcileSweepPayload struct {
	DryRun bool `json:"dry_run"`
}

// NewReconcileSweepTask constructs an Asynq task for the reconciliation sweep.
func NewReconcileSweepTask(dryRun bool) (*asynq.Task, error) {
	body, err := json.Marshal(ReconcileSweepPayload{DryRun: dryRun})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReconcileSweep, body, asynq.Queue(QueueDefault), asynq.Unique(ReconcileSweepUniqueTTL)), nil
}
