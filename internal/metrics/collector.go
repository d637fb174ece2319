package metrics

import (
	"context"
	"log/slog"
	"time"
)

type EventType string

const (
	EventRequestCompleted EventType = "request_completed"
	EventHandlerFailed    EventType = "handler_failed"
)

type MetricEvent struct {
	Type       EventType
	Timestamp  time.Time
	Route      string
	Lane       string
	Duration   time.Duration
	StatusCode int
}

type Collector struct {
	eventCh    chan MetricEvent
	metrics    *Metrics
	prometheus *Prometheus
	logger     *slog.Logger
}

// NewCollector creates a collector with a buffered event channel. prom may
// be nil.
func NewCollector(bufferSize int, logger *slog.Logger, prom *Prometheus) *Collector {
	return &Collector{
		eventCh:    make(chan MetricEvent, bufferSize),
		metrics:    NewMetrics(),
		prometheus: prom,
		logger:     logger,
	}
}

func (c *Collector) EventChannel() chan<- MetricEvent {
	return c.eventCh
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
			// Drain remaining events before shutdown
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventRequestCompleted:
		c.metrics.RecordRequest(event.Route, event.Lane, event.Duration, event.StatusCode)

	case EventHandlerFailed:
		c.metrics.RecordFailure(event.Route)
	}

	c.prometheus.observe(event)
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

func (c *Collector) Snapshot() Snapshot {
	return c.metrics.Snapshot()
}
