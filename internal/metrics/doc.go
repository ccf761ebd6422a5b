// Package metrics collects gateway metrics off the request path.
//
// Handlers emit events into a buffered channel; a single goroutine folds
// them into:
//   - Request counts per upstream instance
//   - Rejected requests per service
//   - Response times with percentiles (P50, P95, P99)
//   - HTTP status code distribution
//   - Health and circuit breaker state
//
// The collector serves a JSON snapshot and, when given an Exporter, mirrors
// every event into Prometheus metrics.
//
//	exporter := metrics.NewExporter()
//	collector := metrics.NewCollector(1000, exporter, logger)
//	collector.Start(ctx)
//
//	collector.Emit(metrics.MetricEvent{
//		Type:       metrics.EventResponseCompleted,
//		Service:    "backend",
//		Upstream:   "http://localhost:8000",
//		Duration:   150 * time.Millisecond,
//		StatusCode: 200,
//	})
//
// Pending events are drained when the context is cancelled.
package metrics
