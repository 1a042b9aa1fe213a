// Package metrics exposes prometheus collectors for worker channels and
// processes. A nil *Metrics is valid and records nothing.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mediasoup"

type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	pending         *prometheus.GaugeVec
	notifications   *prometheus.CounterVec
	workers         prometheus.Gauge
	workerExits     *prometheus.CounterVec
}

// New creates the collectors and registers them on reg. Collectors that are
// already registered on reg are reused, so several workers may share one
// registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_requests_total",
			Help:      "Requests sent to workers, by channel, method and outcome.",
		}, []string{"channel", "method", "outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "channel_request_duration_seconds",
			Help:      "Time from writing a request until its response arrived.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"channel", "method"}),
		pending: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "channel_pending_requests",
			Help:      "Requests waiting for a response.",
		}, []string{"channel"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_notifications_total",
			Help:      "Notifications received from workers, by channel and event.",
		}, []string{"channel", "event"}),
		workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workers",
			Help:      "Worker processes currently alive.",
		}),
		workerExits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_exits_total",
			Help:      "Worker process exits, by reason.",
		}, []string{"reason"}),
	}
	if reg == nil {
		return m
	}
	m.requests = register(reg, m.requests)
	m.requestDuration = register(reg, m.requestDuration)
	m.pending = register(reg, m.pending)
	m.notifications = register(reg, m.notifications)
	m.workers = register(reg, m.workers)
	m.workerExits = register(reg, m.workerExits)

	return m
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

func (m *Metrics) RequestSent(channel string) {
	if m == nil {
		return
	}
	m.pending.WithLabelValues(channel).Inc()
}

func (m *Metrics) RequestDone(channel, method, outcome string, since time.Time) {
	if m == nil {
		return
	}
	m.pending.WithLabelValues(channel).Dec()
	m.requests.WithLabelValues(channel, method, outcome).Inc()
	if outcome == "accepted" {
		m.requestDuration.WithLabelValues(channel, method).Observe(time.Since(since).Seconds())
	}
}

func (m *Metrics) NotificationReceived(channel, event string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(channel, event).Inc()
}

func (m *Metrics) WorkerStarted() {
	if m == nil {
		return
	}
	m.workers.Inc()
}

func (m *Metrics) WorkerExited(reason string) {
	if m == nil {
		return
	}
	m.workers.Dec()
	m.workerExits.WithLabelValues(reason).Inc()
}
