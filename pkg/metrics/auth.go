package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AuthMetrics counts credential operations by outcome.
type AuthMetrics struct {
	outcomes *prometheus.CounterVec
}

// NewAuthMetrics registers the auth outcome counter on the provided registerer.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	if reg == nil {
		return &AuthMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_operations_total",
		Help: "Credential operations partitioned by operation and result.",
	}, []string{"operation", "result"})
	reg.MustRegister(outcomes)
	return &AuthMetrics{outcomes: outcomes}
}

// RecordOutcome increments the counter for operation; result is "success" or a
// lower-cased error code.
func (a *AuthMetrics) RecordOutcome(operation, result string) {
	if a == nil || a.outcomes == nil {
		return
	}
	a.outcomes.WithLabelValues(normalizeLabel(operation), normalizeLabel(result)).Inc()
}
