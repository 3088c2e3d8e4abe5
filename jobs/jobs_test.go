package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/catering/internal/documents"
	jobmetrics "github.com/odyssey-erp/catering/internal/jobs"
	"github.com/odyssey-erp/catering/internal/settings"
	"github.com/odyssey-erp/catering/internal/shared"
)

// ============================================================================
// FAKES
// ============================================================================

type fakeReconciler struct {
	invoices  map[int64]*documents.Invoice
	reconcile []int64
	sweeps    int
	changed   int
	err       error
	lastCfg   settings.Settings
}

func (f *fakeReconciler) ReconcileInvoice(ctx context.Context, id int64, cfg settings.Settings) (*documents.Invoice, error) {
	f.reconcile = append(f.reconcile, id)
	f.lastCfg = cfg
	if f.err != nil {
		return nil, f.err
	}
	inv, ok := f.invoices[id]
	if !ok {
		return nil, documents.ErrNotFound
	}
	return inv, nil
}

func (f *fakeReconciler) ReconcileOpenInvoices(ctx context.Context, cfg settings.Settings) (int, error) {
	f.sweeps++
	f.lastCfg = cfg
	return f.changed, f.err
}

type fakeSettings struct {
	cfg settings.Settings
	err error
}

func (f fakeSettings) Current(ctx context.Context) (settings.Settings, error) {
	return f.cfg, f.err
}

type fakeCleaner struct {
	olderThan time.Duration
	removed   int64
	err       error
}

func (f *fakeCleaner) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	f.olderThan = olderThan
	return f.removed, f.err
}

type fakeEnqueuer struct {
	invoices []int64
	triggers []string
	err      error
}

func (f *fakeEnqueuer) EnqueueReconcile(ctx context.Context, invoiceID int64) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.invoices = append(f.invoices, invoiceID)
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueDefault, Type: TaskInvoiceReconcile}, nil
}

func (f *fakeEnqueuer) EnqueueSweep(ctx context.Context, trigger string) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.triggers = append(f.triggers, trigger)
	return &asynq.TaskInfo{ID: "task-2", Queue: QueueDefault, Type: TaskInvoiceReconcileSweep}, nil
}

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f fakeInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return f.info, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newReconcileJob(rec *fakeReconciler, provider SettingsProvider) *ReconcileJob {
	job := NewReconcileJob(rec, provider, quietLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))
	job.clock = func() time.Time { return time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC) }
	return job
}

// ============================================================================
// TASKS
// ============================================================================

func TestNewInvoiceReconcileTask(t *testing.T) {
	task, err := NewInvoiceReconcileTask(42)
	require.NoError(t, err)
	assert.Equal(t, TaskInvoiceReconcile, task.Type())

	var payload InvoiceReconcilePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, int64(42), payload.InvoiceID)

	_, err = NewInvoiceReconcileTask(0)
	assert.ErrorIs(t, err, ErrInvalidInvoiceID)
}

// ============================================================================
// RECONCILE
// ============================================================================

func TestHandleInvoice_ReconcilesWithCurrentSettings(t *testing.T) {
	rec := &fakeReconciler{invoices: map[int64]*documents.Invoice{
		5: {ID: 5, Status: documents.InvoiceStatusPaid},
	}}
	cfg := settings.Defaults()
	cfg.TaxEnabled = true
	job := newReconcileJob(rec, fakeSettings{cfg: cfg})

	task, err := NewInvoiceReconcileTask(5)
	require.NoError(t, err)

	require.NoError(t, job.HandleInvoice(context.Background(), task))
	assert.Equal(t, []int64{5}, rec.reconcile)
	assert.True(t, rec.lastCfg.TaxEnabled)
}

func TestHandleInvoice_BadPayloadSkipsRetry(t *testing.T) {
	job := newReconcileJob(&fakeReconciler{}, nil)

	err := job.HandleInvoice(context.Background(), asynq.NewTask(TaskInvoiceReconcile, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = job.HandleInvoice(context.Background(), asynq.NewTask(TaskInvoiceReconcile, []byte(`{"invoice_id":0}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleInvoice_MissingInvoiceSkipsRetry(t *testing.T) {
	rec := &fakeReconciler{invoices: map[int64]*documents.Invoice{}}
	job := newReconcileJob(rec, nil)

	task, err := NewInvoiceReconcileTask(9)
	require.NoError(t, err)
	assert.ErrorIs(t, job.HandleInvoice(context.Background(), task), asynq.SkipRetry)
}

func TestHandleInvoice_PropagatesFailures(t *testing.T) {
	task, err := NewInvoiceReconcileTask(3)
	require.NoError(t, err)

	job := newReconcileJob(&fakeReconciler{}, fakeSettings{err: errors.New("settings down")})
	assert.EqualError(t, job.HandleInvoice(context.Background(), task), "settings down")

	rec := &fakeReconciler{err: shared.ErrLockHeld}
	job = newReconcileJob(rec, nil)
	assert.ErrorIs(t, job.HandleInvoice(context.Background(), task), shared.ErrLockHeld)
}

func TestHandleSweep(t *testing.T) {
	rec := &fakeReconciler{changed: 4}
	job := newReconcileJob(rec, fakeSettings{cfg: settings.Defaults()})

	task, err := NewReconcileSweepTask("manual")
	require.NoError(t, err)
	require.NoError(t, job.HandleSweep(context.Background(), task))
	assert.Equal(t, 1, rec.sweeps)

	require.NoError(t, job.HandleSweep(context.Background(), asynq.NewTask(TaskInvoiceReconcileSweep, nil)))
	assert.Equal(t, 2, rec.sweeps)

	rec.err = errors.New("db gone")
	assert.EqualError(t, job.HandleSweep(context.Background(), task), "db gone")
}

func TestHandlersRequireDependencies(t *testing.T) {
	var job *ReconcileJob
	assert.Error(t, job.HandleSweep(context.Background(), asynq.NewTask(TaskInvoiceReconcileSweep, nil)))
	assert.Error(t, (&ReconcileJob{}).HandleInvoice(context.Background(), asynq.NewTask(TaskInvoiceReconcile, nil)))
	assert.Error(t, (&IdempotencyCleanupJob{}).Handle(context.Background(), asynq.NewTask(TaskIdempotencyCleanup, nil)))
}

// ============================================================================
// CLEANUP
// ============================================================================

func TestIdempotencyCleanup(t *testing.T) {
	cleaner := &fakeCleaner{removed: 12}
	job := NewIdempotencyCleanupJob(cleaner, quietLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))

	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskIdempotencyCleanup, nil)))
	assert.Equal(t, DefaultIdempotencyRetention, cleaner.olderThan)

	task, err := NewIdempotencyCleanupTask(time.Hour)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, time.Hour, cleaner.olderThan)

	cleaner.err = errors.New("boom")
	assert.EqualError(t, job.Handle(context.Background(), task), "boom")
}

// ============================================================================
// HTTP
// ============================================================================

func serve(t *testing.T, h *Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/jobs", h.MountRoutes)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func serveHealth(t *testing.T, inspector QueueInspector) *httptest.ResponseRecorder {
	return serve(t, NewHandler(inspector, nil, quietLogger()), http.MethodGet, "/jobs/health")
}

func TestHealth(t *testing.T) {
	rec := serveHealth(t, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0,"active":0,"retry":0}`, rec.Body.String())

	rec = serveHealth(t, fakeInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 3, Active: 1}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queue":"default","pending":3,"active":1,"retry":0}`, rec.Body.String())

	rec = serveHealth(t, fakeInspector{err: errors.New("redis down")})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTriggerRoutes(t *testing.T) {
	enq := &fakeEnqueuer{}
	h := NewHandler(nil, enq, quietLogger())

	rec := serve(t, h, http.MethodPost, "/jobs/invoices/12/reconcile")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"task_id":"task-1","type":"invoice:reconcile","queue":"default"}`, rec.Body.String())
	assert.Equal(t, []int64{12}, enq.invoices)

	rec = serve(t, h, http.MethodPost, "/jobs/reconcile")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"manual"}, enq.triggers)

	rec = serve(t, h, http.MethodPost, "/jobs/invoices/abc/reconcile")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	enq.err = asynq.ErrDuplicateTask
	rec = serve(t, h, http.MethodPost, "/jobs/invoices/12/reconcile")
	assert.Equal(t, http.StatusConflict, rec.Code)

	enq.err = errors.New("redis down")
	rec = serve(t, h, http.MethodPost, "/jobs/reconcile")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTriggerRoutesDisabledWithoutEnqueuer(t *testing.T) {
	rec := serve(t, NewHandler(nil, nil, quietLogger()), http.MethodPost, "/jobs/reconcile")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
