package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/dittodav/pkg/audit"
	"github.com/marmos91/dittodav/pkg/metrics"
)

type auditMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	bytes    *prometheus.CounterVec
}

// NewAuditMetrics returns request metrics, or nil when metrics are disabled.
func NewAuditMetrics() audit.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}
	reg := metrics.GetRegistry()

	return &auditMetrics{
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittodav_requests_total",
				Help: "Requests that reached the protocol layer by method and status",
			},
			[]string{"method", "status"},
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dittodav_request_duration_milliseconds",
				Help:    "Request duration in milliseconds by method",
				Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 30000},
			},
			[]string{"method"},
		),
		bytes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittodav_response_bytes_total",
				Help: "Response body bytes sent by method",
			},
			[]string{"method"},
		),
	}
}

func (m *auditMetrics) ObserveRequest(method string, status int, bytes int, d time.Duration) {
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method).Observe(float64(d.Microseconds()) / 1000.0)
	m.bytes.WithLabelValues(method).Add(float64(bytes))
}
