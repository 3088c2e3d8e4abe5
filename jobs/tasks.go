package jobs

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskInvoiceReconcile re-derives the status of a single invoice.
	TaskInvoiceReconcile = "invoice:reconcile"
	// TaskInvoiceReconcileSweep re-derives the status of every open invoice.
	TaskInvoiceReconcileSweep = "invoice:reconcile-sweep"
	// TaskIdempotencyCleanup purges expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// ErrInvalidInvoiceID is returned when a reconcile task names no invoice.
var ErrInvalidInvoiceID = errors.New("jobs: invoice id must be positive")

// InvoiceReconcilePayload names the invoice to reconcile.
type InvoiceReconcilePayload struct {
	InvoiceID int64 `json:"invoice_id"`
}

// ReconcileSweepPayload carries the optional sweep trigger.
type ReconcileSweepPayload struct {
	Trigger string `json:"trigger,omitempty"`
}

// IdempotencyCleanupPayload sets how old a key must be before removal.
type IdempotencyCleanupPayload struct {
	OlderThan time.Duration `json:"older_than"`
}

// NewInvoiceReconcileTask builds a single invoice reconcile task.
func NewInvoiceReconcileTask(invoiceID int64) (*asynq.Task, error) {
	if invoiceID <= 0 {
		return nil, ErrInvalidInvoiceID
	}
	data, err := json.Marshal(InvoiceReconcilePayload{InvoiceID: invoiceID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvoiceReconcile, data), nil
}

// NewReconcileSweepTask builds the periodic sweep task.
func NewReconcileSweepTask(trigger string) (*asynq.Task, error) {
	data, err := json.Marshal(ReconcileSweepPayload{Trigger: trigger})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvoiceReconcileSweep, data), nil
}

// NewIdempotencyCleanupTask builds the key purge task.
func NewIdempotencyCleanupTask(olderThan time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(IdempotencyCleanupPayload{OlderThan: olderThan})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
