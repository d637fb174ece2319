package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "widget_server"

// Prometheus holds the exported collectors of the server.
type Prometheus struct {
	// PoolSize is the number of workers in the blocking lane
	PoolSize prometheus.Gauge

	// PoolBusy is the number of workers running a handler
	PoolBusy prometheus.Gauge

	// PoolPending is the number of admitted blocking tasks not yet finished
	PoolPending prometheus.Gauge

	// Requests counts completed requests by status code and lane
	Requests *prometheus.CounterVec

	// Failures counts handler failures converted to 500 responses
	Failures prometheus.Counter

	// Duration records request latency by lane
	Duration *prometheus.HistogramVec
}

// NewPrometheus creates the collectors and registers them with reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		PoolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "worker_pool_size",
			Help:      "The number of workers in the blocking lane",
		}),
		PoolBusy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "worker_pool_busy",
			Help:      "The number of workers currently running a handler",
		}),
		PoolPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "worker_pool_pending",
			Help:      "The number of admitted blocking handlers that have not completed",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "The total number of dispatched requests",
		}, []string{"code", "lane"}),
		Failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_failures_total",
			Help:      "The total number of handler failures converted to 500 responses",
		}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time from request arrival to response",
			Buckets:   prometheus.DefBuckets,
		}, []string{"lane"}),
	}

	reg.MustRegister(p.PoolSize, p.PoolBusy, p.PoolPending, p.Requests, p.Failures, p.Duration)

	return p
}

func (p *Prometheus) observe(event MetricEvent) {
	if p == nil {
		return
	}

	switch event.Type {
	case EventRequestCompleted:
		p.Requests.WithLabelValues(strconv.Itoa(event.StatusCode), event.Lane).Inc()
		p.Duration.WithLabelValues(event.Lane).Observe(event.Duration.Seconds())

	case EventHandlerFailed:
		p.Failures.Inc()
	}
}
