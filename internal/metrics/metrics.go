package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "depined_agent"

// Metrics groups the collectors shared by clients and workers.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	attempts      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	calls         *prometheus.CounterVec
	claims        *prometheus.CounterVec
	skippedClaims prometheus.Counter
	activeWorkers prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_attempts_total",
			Help:      "HTTP attempts against the rewards API by operation and result.",
		}, []string{"operation", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_attempt_duration_seconds",
			Help:      "Duration of single HTTP attempts.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_total",
			Help:      "Logical API calls after retries by operation and result.",
		}, []string{"operation", "result"}),
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_total",
			Help:      "Reward check outcomes.",
		}, []string{"outcome"}),
		skippedClaims: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_skipped_total",
			Help:      "Claim cycles skipped because another claim was in flight.",
		}),
		activeWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_workers",
			Help:      "Workers currently running their cycles.",
		}),
	}
	reg.MustRegister(m.attempts, m.latency, m.calls, m.claims, m.skippedClaims, m.activeWorkers)
	return m
}

func (m *Metrics) ObserveAttempt(operation, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(operation, result).Inc()
	m.latency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveCall(operation string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.calls.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) ObserveClaim(outcome string) {
	if m == nil {
		return
	}
	m.claims.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ClaimSkipped() {
	if m == nil {
		return
	}
	m.skippedClaims.Inc()
}

func (m *Metrics) WorkerStarted() {
	if m == nil {
		return
	}
	m.activeWorkers.Inc()
}

func (m *Metrics) WorkerStopped() {
	if m == nil {
		return
	}
	m.activeWorkers.Dec()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
