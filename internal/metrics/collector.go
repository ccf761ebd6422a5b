package metrics

import (
	"context"
	"log/slog"
	"time"
)

type EventType string

const (
	EventRequestReceived   EventType = "request_received"
	EventRequestRejected   EventType = "request_rejected"
	EventResponseCompleted EventType = "response_completed"
	EventHealthChanged     EventType = "health_changed"
	EventBreakerChanged    EventType = "breaker_changed"
)

type MetricEvent struct {
	Type         EventType
	Timestamp    time.Time
	Service      string
	Upstream     string
	Duration     time.Duration
	StatusCode   int
	Healthy      bool
	BreakerState string
}

type Collector struct {
	eventCh  chan MetricEvent
	metrics  *Metrics
	exporter *Exporter
	logger   *slog.Logger
}

// NewCollector creates a collector. exporter may be nil.
func NewCollector(bufferSize int, exporter *Exporter, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh:  make(chan MetricEvent, bufferSize),
		metrics:  NewMetrics(),
		exporter: exporter,
		logger:   logger,
	}
}

func (c *Collector) EventChannel() chan<- MetricEvent {
	return c.eventCh
}

// Emit queues event without blocking; it is dropped when the buffer is
// full. Safe to call on a nil collector.
func (c *Collector) Emit(event MetricEvent) {
	if c == nil {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case c.eventCh <- event:
	default:
		c.logger.Debug("Metrics buffer full, dropping event", slog.String("type", string(event.Type)))
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventRequestReceived:
		c.metrics.IncrementRequests(event.Service, event.Upstream)

	case EventRequestRejected:
		c.metrics.IncrementRejected(event.Service)

	case EventResponseCompleted:
		c.metrics.RecordResponse(event.Service, event.Upstream, event.Duration, event.StatusCode)

	case EventHealthChanged:
		c.metrics.UpdateHealthStatus(event.Service, event.Upstream, event.Healthy)

	case EventBreakerChanged:
		c.metrics.UpdateBreakerState(event.Upstream, event.BreakerState)
	}

	c.exporter.Observe(event)
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot(strategy string) Snapshot {
	return c.metrics.Snapshot(strategy)
}
