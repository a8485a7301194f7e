package restdb

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsCollector records Prometheus metrics for each request. A nil
// collector records nothing.
type metricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec
}

func newMetricsCollector(registry prometheus.Registerer) (*metricsCollector, error) {
	m := &metricsCollector{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "restdb_requests_total",
				Help: "Total number of requests by operation and HTTP status code (0 for transport failures)",
			},
			[]string{"operation", "method", "status_code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "restdb_request_duration_seconds",
				Help:    "Duration of requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "method"},
		),
		requestsInFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "restdb_requests_in_flight",
				Help: "Number of requests currently in flight",
			},
			[]string{"operation"},
		),
	}

	for _, c := range []prometheus.Collector{m.requestsTotal, m.requestDuration, m.requestsInFlight} {
		if err := registry.Register(c); err != nil {
			// Several clients may share one registry.
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, err
			}
			switch existing := are.ExistingCollector.(type) {
			case *prometheus.CounterVec:
				m.requestsTotal = existing
			case *prometheus.HistogramVec:
				m.requestDuration = existing
			case *prometheus.GaugeVec:
				m.requestsInFlight = existing
			}
		}
	}
	return m, nil
}

// begin marks a request in flight and returns the function that completes it.
func (m *metricsCollector) begin(op, method string) func(statusCode int, elapsed time.Duration) {
	if m == nil {
		return func(int, time.Duration) {}
	}
	inFlight := m.requestsInFlight.WithLabelValues(op)
	inFlight.Inc()
	return func(statusCode int, elapsed time.Duration) {
		inFlight.Dec()
		m.requestsTotal.WithLabelValues(op, method, strconv.Itoa(statusCode)).Inc()
		m.requestDuration.WithLabelValues(op, method).Observe(elapsed.Seconds())
	}
}
