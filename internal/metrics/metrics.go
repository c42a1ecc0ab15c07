package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gatewayCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mallpay",
			Subsystem: "gateway",
			Name:      "calls_total",
			Help:      "Outbound gateway calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	gatewayDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mallpay",
			Subsystem: "gateway",
			Name:      "call_duration_seconds",
			Help:      "Outbound gateway call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	callbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mallpay",
			Subsystem: "notify",
			Name:      "callbacks_total",
			Help:      "Inbound gateway callbacks by verification/processing result",
		},
		[]string{"result"},
	)

	transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mallpay",
			Subsystem: "lifecycle",
			Name:      "transitions_total",
			Help:      "Applied state transitions by record kind and target state",
		},
		[]string{"kind", "state"},
	)
)

// ObserveGatewayCall records one outbound gateway exchange.
func ObserveGatewayCall(operation, outcome string, d time.Duration) {
	gatewayCalls.WithLabelValues(operation, outcome).Inc()
	gatewayDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordCallback records one inbound callback. Result is one of
// "verified", "rejected", "duplicate" or "error"; rejected callbacks
// are a security signal worth alerting on.
func RecordCallback(result string) {
	callbacks.WithLabelValues(result).Inc()
}

// RecordTransition records one applied lifecycle transition.
func RecordTransition(kind, state string) {
	transitions.WithLabelValues(kind, state).Inc()
}
