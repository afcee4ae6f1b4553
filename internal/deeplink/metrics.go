package deeplink

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the service's Prometheus collectors.
type Metrics struct {
	navigations   *prometheus.CounterVec
	guardDuration prometheus.Histogram
	recoveries    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil
// reg creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		navigations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "deeplink_navigations_total",
			Help: "Navigation attempts by outcome.",
		}, []string{"outcome"}),
		guardDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "deeplink_guard_duration_seconds",
			Help:    "Time spent evaluating route guards per attempt.",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}),
		recoveries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "deeplink_recoveries_total",
			Help: "Navigation state restore attempts by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) navigation(o Outcome) {
	m.navigations.WithLabelValues(string(o)).Inc()
}
