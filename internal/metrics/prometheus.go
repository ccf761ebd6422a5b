package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter mirrors collector events into Prometheus metrics on its own
// registry.
type Exporter struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	rejected *prometheus.CounterVec
	duration *prometheus.HistogramVec
	up       *prometheus.GaugeVec
	breaker  *prometheus.GaugeVec
}

func NewExporter() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "upstream_requests_total",
			Help:      "Requests proxied to an upstream instance.",
		}, []string{"service", "upstream", "code"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "rejected_requests_total",
			Help:      "Requests answered with 503 because no instance was available.",
		}, []string{"service"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gateway",
			Name:      "upstream_request_duration_seconds",
			Help:      "Time spent proxying a request to an upstream instance.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "upstream"}),
		up: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "gateway",
			Name:      "upstream_up",
			Help:      "1 when the last health check of the instance succeeded.",
		}, []string{"service", "upstream"}),
		breaker: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "gateway",
			Name:      "upstream_breaker_open",
			Help:      "1 while the circuit breaker of the instance is not closed.",
		}, []string{"upstream"}),
	}

	e.registry.MustRegister(e.requests, e.rejected, e.duration, e.up, e.breaker)
	return e
}

// Registry exposes the underlying registry, mainly for tests.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Observe records event. A nil exporter ignores it.
func (e *Exporter) Observe(event MetricEvent) {
	if e == nil {
		return
	}

	switch event.Type {
	case EventRequestRejected:
		e.rejected.WithLabelValues(event.Service).Inc()

	case EventResponseCompleted:
		e.requests.WithLabelValues(event.Service, event.Upstream, strconv.Itoa(event.StatusCode)).Inc()
		e.duration.WithLabelValues(event.Service, event.Upstream).Observe(event.Duration.Seconds())

	case EventHealthChanged:
		e.up.WithLabelValues(event.Service, event.Upstream).Set(boolToFloat(event.Healthy))

	case EventBreakerChanged:
		e.breaker.WithLabelValues(event.Upstream).Set(boolToFloat(event.BreakerState != "CLOSED"))
	}
}

// Handler serves the registry in the Prometheus text format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
