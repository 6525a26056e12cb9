package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/example/claimhub/internal/ports/secondary"
)

// PrometheusCollector implements secondary.Metrics backed by Prometheus.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	claims        *prometheus.CounterVec
	claimDuration prometheus.Histogram
	claimRetries  prometheus.Counter
	dropped       prometheus.Counter
	adminOps      *prometheus.CounterVec
}

// Compile-time assertion that PrometheusCollector implements Metrics.
var _ secondary.Metrics = (*PrometheusCollector)(nil)

// NewPrometheus creates a Prometheus-backed collector.
// A nil reg uses prometheus.DefaultRegisterer; an empty namespace uses "claimhub".
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "claimhub"
	}

	p := &PrometheusCollector{reg: reg, namespace: namespace}
	p.ensureRegistered()
	return p
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.claims = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "claims_total",
			Help:      "Total claim attempts by result (success, task_full, already_assigned, ...).",
		}, []string{"result"})

		p.claimDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Name:      "claim_duration_seconds",
			Help:      "Latency of TryClaim including lock waits and retries.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms .. ~1s
		})

		p.claimRetries = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "claim_retries_total",
			Help:      "Claim transactions retried after a store conflict.",
		})

		p.dropped = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "broadcast_dropped_total",
			Help:      "Change notifications dropped for slow subscribers.",
		})

		p.adminOps = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "admin_ops_total",
			Help:      "Administrative operations by kind.",
		}, []string{"op"})

		p.reg.MustRegister(p.claims, p.claimDuration, p.claimRetries, p.dropped, p.adminOps)
	})
}

// ObserveClaim records one TryClaim outcome.
func (p *PrometheusCollector) ObserveClaim(result string, seconds float64) {
	p.claims.WithLabelValues(result).Inc()
	p.claimDuration.Observe(seconds)
}

// IncClaimRetry records one retried claim transaction.
func (p *PrometheusCollector) IncClaimRetry() {
	p.claimRetries.Inc()
}

// IncBroadcastDropped records a dropped notification.
func (p *PrometheusCollector) IncBroadcastDropped() {
	p.dropped.Inc()
}

// IncAdminOp records an administrative operation.
func (p *PrometheusCollector) IncAdminOp(op string) {
	p.adminOps.WithLabelValues(op).Inc()
}
