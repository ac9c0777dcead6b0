package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements Collector and prometheus.Collector.
type PrometheusCollector struct {
	operations  *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	adjustments *prometheus.CounterVec
}

func NewPrometheusCollector(namespace string) *PrometheusCollector {
	return &PrometheusCollector{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Ledger operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Ledger operation latency including the store transaction",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		adjustments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "balance_adjustments_total",
				Help:      "Account balance increments applied inside committed transactions",
			},
			[]string{"operation"},
		),
	}
}

func (p *PrometheusCollector) ObserveOperation(op, outcome string, d time.Duration) {
	p.operations.WithLabelValues(op, outcome).Inc()
	p.latency.WithLabelValues(op).Observe(d.Seconds())
}

func (p *PrometheusCollector) AddBalanceAdjustments(op string, n int) {
	p.adjustments.WithLabelValues(op).Add(float64(n))
}

func (p *PrometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	p.operations.Describe(ch)
	p.latency.Describe(ch)
	p.adjustments.Describe(ch)
}

func (p *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	p.operations.Collect(ch)
	p.latency.Collect(ch)
	p.adjustments.Collect(ch)
}

var _ Collector = (*PrometheusCollector)(nil)
var _ prometheus.Collector = (*PrometheusCollector)(nil)
