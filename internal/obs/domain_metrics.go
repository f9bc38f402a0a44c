package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CheckoutSubmissionTotal counts full checkout submissions by result.
	CheckoutSubmissionTotal *prometheus.CounterVec
	// GatewayInvokeTotal counts hosted checkout invocations by result.
	GatewayInvokeTotal *prometheus.CounterVec
	// CancellationTotal counts cancellation attempts by result.
	CancellationTotal *prometheus.CounterVec
	// LedgerRequestLatency records backend ledger call latency in milliseconds.
	LedgerRequestLatency *prometheus.HistogramVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CheckoutSubmissionTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_submission_total",
			Help:      "Count of checkout submission outcomes.",
		}, []string{"result"}))
		GatewayInvokeTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_invoke_total",
			Help:      "Count of hosted checkout invocation outcomes.",
		}, []string{"result"}))
		CancellationTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_cancellation_total",
			Help:      "Count of payment cancellation outcomes.",
		}, []string{"result"}))
		LedgerRequestLatency = registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ledger_request_duration_ms",
			Help:      "Latency of backend ledger calls in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"operation", "result"}))
	})
}
