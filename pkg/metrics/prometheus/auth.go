// Package prometheus implements the gateway's Metrics interfaces on top of
// the registry in pkg/metrics.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/dittodav/pkg/auth"
	"github.com/marmos91/dittodav/pkg/metrics"
)

type authMetrics struct {
	lookups        *prometheus.CounterVec
	remoteCalls    *prometheus.CounterVec
	remoteDuration *prometheus.HistogramVec
	cachedUsers    prometheus.Gauge
}

// NewAuthMetrics returns credential cache metrics, or nil when metrics are
// disabled.
func NewAuthMetrics() auth.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}
	reg := metrics.GetRegistry()

	return &authMetrics{
		lookups: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittodav_auth_lookups_total",
				Help: "Password lookups against the credential cache by outcome",
			},
			[]string{"outcome"}, // hit, miss, rejected
		),
		remoteCalls: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittodav_identity_logins_total",
				Help: "Logins sent to the identity service by outcome",
			},
			[]string{"outcome"}, // success, declined, error
		),
		remoteDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dittodav_identity_login_duration_milliseconds",
				Help:    "Duration of identity service logins in milliseconds",
				Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
			},
			[]string{"outcome"},
		),
		cachedUsers: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "dittodav_auth_cached_users",
				Help: "Users currently held in the credential cache",
			},
		),
	}
}

func (m *authMetrics) RecordLookup(outcome string) {
	m.lookups.WithLabelValues(outcome).Inc()
}

func (m *authMetrics) RecordRemoteCall(outcome string, d time.Duration) {
	m.remoteCalls.WithLabelValues(outcome).Inc()
	m.remoteDuration.WithLabelValues(outcome).Observe(float64(d.Microseconds()) / 1000.0)
}

func (m *authMetrics) SetCachedUsers(n int) {
	m.cachedUsers.Set(float64(n))
}
