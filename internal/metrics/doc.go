// Package metrics provides request metrics for the dispatch core.
//
// It uses a channel-based event pipeline to asynchronously collect:
//   - Request counts per route
//   - Requests executed on the blocking lane
//   - Handler failures converted to 500 responses
//   - Response times with percentile calculations (P50, P95, P99)
//   - HTTP status code distribution
//
// The collector runs in a dedicated goroutine and processes events without
// blocking the request path. Events are sent with non-blocking semantics so a
// slow collector drops events instead of delaying responses.
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger, nil)
//	collector.Start(ctx)
//
//	collector.EventChannel() <- metrics.MetricEvent{
//		Type:       metrics.EventRequestCompleted,
//		Route:      "/uptime",
//		Lane:       metrics.LaneOffload,
//		Duration:   150 * time.Millisecond,
//		StatusCode: 200,
//	}
//
//	snapshot := collector.Snapshot()
//
// When a [Prometheus] set is attached, every processed event is also
// exported through the prometheus client.
package metrics
