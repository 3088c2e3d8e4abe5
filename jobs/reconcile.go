package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/catering/internal/documents"
	jobmetrics "github.com/odyssey-erp/catering/internal/jobs"
	"github.com/odyssey-erp/catering/internal/settings"
	"github.com/odyssey-erp/catering/internal/shared"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// InvoiceReconciler re-derives invoice statuses from their payments.
type InvoiceReconciler interface {
	ReconcileInvoice(ctx context.Context, id int64, cfg settings.Settings) (*documents.Invoice, error)
	ReconcileOpenInvoices(ctx context.Context, cfg settings.Settings) (int, error)
}

// SettingsProvider returns the current settings snapshot.
type SettingsProvider interface {
	Current(ctx context.Context) (settings.Settings, error)
}

// ReconcileJob keeps invoice statuses in line with recorded payments.
type ReconcileJob struct {
	Invoices InvoiceReconciler
	Settings SettingsProvider
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	Timeout  time.Duration
	clock    func() time.Time
}

// NewReconcileJob wires dependencies for both reconcile handlers.
func NewReconcileJob(invoices InvoiceReconciler, provider SettingsProvider, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReconcileJob {
	return &ReconcileJob{
		Invoices: invoices,
		Settings: provider,
		Logger:   logger,
		Metrics:  metrics,
		Timeout:  2 * time.Minute,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// HandleInvoice processes TaskInvoiceReconcile tasks.
func (j *ReconcileJob) HandleInvoice(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Invoices == nil {
		return errors.New("invoice reconcile: handler not configured")
	}
	var payload InvoiceReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.InvoiceID <= 0 {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskInvoiceReconcile)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger(TaskInvoiceReconcile).With(slog.Int64("invoice_id", payload.InvoiceID))
	cfg, err := j.settings(ctx)
	if err != nil {
		logger.Error("load settings", slog.Any("error", err))
		return err
	}
	inv, err := j.Invoices.ReconcileInvoice(ctx, payload.InvoiceID, cfg)
	if errors.Is(err, shared.ErrNotFound) {
		logger.Warn("invoice vanished before reconcile")
		return asynq.SkipRetry
	}
	if err != nil {
		logger.Error("reconcile invoice", slog.Any("error", err))
		return err
	}
	logger.Info("invoice reconciled", slog.String("status", string(inv.Status)))
	return nil
}

// HandleSweep processes TaskInvoiceReconcileSweep tasks.
func (j *ReconcileJob) HandleSweep(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Invoices == nil {
		return errors.New("reconcile sweep: handler not configured")
	}
	var payload ReconcileSweepPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.Trigger == "" {
		payload.Trigger = "schedule"
	}

	tracker := j.metrics().Track(TaskInvoiceReconcileSweep)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger(TaskInvoiceReconcileSweep).With(slog.String("trigger", payload.Trigger))
	started := j.now()
	logger.Info("starting reconcile sweep")

	cfg, err := j.settings(ctx)
	if err != nil {
		logger.Error("load settings", slog.Any("error", err))
		return err
	}

	sweepCtx := ctx
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		sweepCtx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	changed, err := j.Invoices.ReconcileOpenInvoices(sweepCtx, cfg)
	j.metrics().AddReconciled(changed)
	if err != nil {
		logger.Error("reconcile sweep", slog.Int("changed", changed), slog.Any("error", err))
		return err
	}
	logger.Info("completed reconcile sweep", slog.Int("changed", changed), slog.Duration("duration", j.now().Sub(started)))
	return nil
}

func (j *ReconcileJob) settings(ctx context.Context) (settings.Settings, error) {
	if j.Settings == nil {
		return settings.Defaults(), nil
	}
	return j.Settings.Current(ctx)
}

func (j *ReconcileJob) logger(task string) *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", task))
	}
	return slog.Default().With(slog.String("job", task))
}

func (j *ReconcileJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *ReconcileJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
