package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, m.Track("invoice:reconcile").End(nil))
	err := m.Track("invoice:reconcile").End(errors.New("boom"))
	assert.EqualError(t, err, "boom")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("invoice:reconcile", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("invoice:reconcile", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("invoice:reconcile")))
}

func TestAddReconciled(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddReconciled(3)
	m.AddReconciled(0)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.reconciled))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.AddReconciled(1) })
	assert.NoError(t, nilMetrics.Track("x").End(nil))
}
