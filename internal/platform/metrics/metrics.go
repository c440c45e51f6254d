package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the enrollment core.
// Tracks register/unregister outcomes and the duration of the per-trip critical path.
type Metrics struct {
	RegisterOutcomes   *prometheus.CounterVec
	UnregisterOutcomes *prometheus.CounterVec
	RegisterDuration   prometheus.Histogram
	TripLockWait       prometheus.Histogram
}

// New creates a Metrics instance registered with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RegisterOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "enrollment_register_total",
			Help: "Register attempts by outcome",
		}, []string{"outcome"}),
		UnregisterOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "enrollment_unregister_total",
			Help: "Unregister attempts by outcome",
		}, []string{"outcome"}),
		RegisterDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "enrollment_register_duration_seconds",
			Help:    "Duration of Register including the per-trip critical section",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		TripLockWait: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "enrollment_trip_lock_wait_seconds",
			Help:    "Time spent waiting for the distributed per-trip lock",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// ObserveRegister records a Register outcome and its duration.
// Call with time.Now() taken at the start of the operation.
func (m *Metrics) ObserveRegister(outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.RegisterOutcomes.WithLabelValues(outcome).Inc()
	m.RegisterDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveUnregister(outcome string) {
	if m == nil {
		return
	}
	m.UnregisterOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveLockWait(start time.Time) {
	if m == nil {
		return
	}
	m.TripLockWait.Observe(time.Since(start).Seconds())
}
