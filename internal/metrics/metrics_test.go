package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m1 := New(reg)
	m2 := New(reg)

	m1.RequestSent("channel")
	m2.RequestSent("channel")
	m1.RequestDone("channel", "worker.dump", "accepted", time.Now())

	assert.Equal(t, 1.0, testutil.ToFloat64(m2.pending.WithLabelValues("channel")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m2.requests.WithLabelValues("channel", "worker.dump", "accepted")))
}

func TestMetrics_Workers(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.WorkerStarted()
	m.WorkerStarted()
	m.WorkerExited("died")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.workers))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.workerExits.WithLabelValues("died")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RequestSent("channel")
		m.RequestDone("channel", "m", "accepted", time.Now())
		m.NotificationReceived("channel", "score")
		m.WorkerStarted()
		m.WorkerExited("closed")
	})
}
