package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process-wide collectors. All methods are safe on a nil
// receiver so components can be built without metrics in tests.
type Metrics struct {
	registry *prometheus.Registry

	intakeTotal     *prometheus.CounterVec
	apiTotal        *prometheus.CounterVec
	apiDuration     *prometheus.HistogramVec
	storeOpsTotal   *prometheus.CounterVec
	draftFlowsTotal *prometheus.CounterVec
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	intakeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hamper",
			Subsystem: "intake",
			Name:      "images_total",
			Help:      "Images processed by the intake pipeline, by outcome.",
		},
		[]string{"outcome"},
	)
	apiTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hamper",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Remote API calls, by operation and result class.",
		},
		[]string{"operation", "class"},
	)
	apiDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hamper",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Remote API call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	storeOpsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hamper",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Local record store operations, by operation.",
		},
		[]string{"op"},
	)
	draftFlowsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hamper",
			Subsystem: "draft",
			Name:      "flows_total",
			Help:      "Analysis flows, by how they ended.",
		},
		[]string{"result"},
	)

	registry.MustRegister(intakeTotal, apiTotal, apiDuration, storeOpsTotal, draftFlowsTotal)

	return &Metrics{
		registry:        registry,
		intakeTotal:     intakeTotal,
		apiTotal:        apiTotal,
		apiDuration:     apiDuration,
		storeOpsTotal:   storeOpsTotal,
		draftFlowsTotal: draftFlowsTotal,
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveIntake counts one intake result ("ok" or an error code).
func (m *Metrics) ObserveIntake(outcome string) {
	if m == nil {
		return
	}
	m.intakeTotal.WithLabelValues(outcome).Inc()
}

// ObserveAPI records one remote call.
func (m *Metrics) ObserveAPI(operation, class string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.apiTotal.WithLabelValues(operation, class).Inc()
	m.apiDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveStore counts one store operation.
func (m *Metrics) ObserveStore(op string) {
	if m == nil {
		return
	}
	m.storeOpsTotal.WithLabelValues(op).Inc()
}

// ObserveDraft counts one finished analysis flow ("committed" or "cancelled").
func (m *Metrics) ObserveDraft(result string) {
	if m == nil {
		return
	}
	m.draftFlowsTotal.WithLabelValues(result).Inc()
}
