package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/dittodav/pkg/compat"
	"github.com/marmos91/dittodav/pkg/metrics"
)

type compatMetrics struct {
	probes *prometheus.CounterVec
}

// NewCompatMetrics returns shim metrics, or nil when metrics are disabled.
func NewCompatMetrics() compat.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	return &compatMetrics{
		probes: promauto.With(metrics.GetRegistry()).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittodav_compat_probes_total",
				Help: "Client probes matched by the compatibility shim",
			},
			[]string{"path", "action"},
		),
	}
}

func (m *compatMetrics) RecordProbe(path, action string) {
	m.probes.WithLabelValues(path, action).Inc()
}
