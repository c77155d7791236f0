// Package metrics provides Prometheus collectors for the back office.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Settlement implements the settlement engine's metrics recorder.
type Settlement struct {
	committed prometheus.Counter
	failed    *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewSettlement registers settlement collectors on the registerer.
// Pass prometheus.DefaultRegisterer in production.
func NewSettlement(reg prometheus.Registerer) *Settlement {
	factory := promauto.With(reg)
	return &Settlement{
		committed: factory.NewCounter(prometheus.CounterOpts{
			Name: "tillpoint_settlements_committed_total",
			Help: "Number of successfully committed sales.",
		}),
		failed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tillpoint_settlements_failed_total",
			Help: "Number of failed settlement attempts by error code.",
		}, []string{"code"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tillpoint_settlement_duration_seconds",
			Help:    "Wall time of successful settlements.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// SettlementCommitted records a committed sale and its duration.
func (s *Settlement) SettlementCommitted(d time.Duration) {
	s.committed.Inc()
	s.duration.Observe(d.Seconds())
}

// SettlementFailed records a failed settlement attempt.
func (s *Settlement) SettlementFailed(code string) {
	s.failed.WithLabelValues(code).Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
