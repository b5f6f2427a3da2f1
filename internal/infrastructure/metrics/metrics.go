package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "designden"

// OrderMetrics is safe to use as a nil pointer; every recorder becomes a no-op.
type OrderMetrics struct {
	Transitions        *prometheus.CounterVec
	TransitionDuration *prometheus.HistogramVec
	Notifications      *prometheus.CounterVec
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "transitions_total",
		Help:      "Order transition attempts by operation and result.",
	}, []string{"operation", "result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "transition_duration_seconds",
		Help:      "Latency of order transitions including the commit.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "notifications_total",
		Help:      "Status change notifications by outcome.",
	}, []string{"result"})

	reg.MustRegister(transitions, duration, notifications)
	return &OrderMetrics{
		Transitions:        transitions,
		TransitionDuration: duration,
		Notifications:      notifications,
	}
}

func (m *OrderMetrics) ObserveTransition(operation, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(operation, result).Inc()
	m.TransitionDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *OrderMetrics) NotificationOutcome(result string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(result).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
