package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/angeloszaimis/widget-server/internal/metrics"
)

// ErrNilResponse is reported when a handler returns neither a response nor
// an error.
var ErrNilResponse = errors.New("handler returned no response")

const internalErrorBody = "Internal Server Error"

// Pool runs blocking handlers off the connection goroutine.
type Pool interface {
	Do(ctx context.Context, fn func()) error
}

// Dispatcher is the http.Handler that routes every inbound request.
type Dispatcher struct {
	routes        *RouteTable
	pool          Pool
	app           *AppContext
	requestLogger *RequestLogger
	logger        *slog.Logger
	events        chan<- metrics.MetricEvent
}

type DispatcherOption func(*Dispatcher)

// WithAppContext attaches the shared application context to every request.
func WithAppContext(app *AppContext) DispatcherOption {
	return func(d *Dispatcher) {
		d.app = app
	}
}

func WithRequestLogger(rl *RequestLogger) DispatcherOption {
	return func(d *Dispatcher) {
		d.requestLogger = rl
	}
}

// WithLogger sets the logger used for handler failures.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithEvents sends one metrics event per request to ch. Events are dropped
// when ch is full.
func WithEvents(ch chan<- metrics.MetricEvent) DispatcherOption {
	return func(d *Dispatcher) {
		d.events = ch
	}
}

func NewDispatcher(routes *RouteTable, pool Pool, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		routes: routes,
		pool:   pool,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.requestLogger == nil {
		d.requestLogger = NewRequestLogger(d.logger)
	}

	return d
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := NewRequestContext(r, d.app)

	handler := d.routes.Resolve(rc.Path())
	if RequiresOffload(handler) {
		rc.lane = LaneOffload
	}

	resp, err := d.execute(rc, handler)
	if err == nil && resp == nil {
		err = ErrNilResponse
	}

	if err != nil {
		d.logger.Error("Request handler failed",
			slog.String("request_id", rc.ID()),
			slog.String("method", rc.Method()),
			slog.String("path", rc.Path()),
			slog.String("lane", string(rc.Lane())),
			slog.Any("err", err))

		d.emitEvent(metrics.MetricEvent{
			Type:      metrics.EventHandlerFailed,
			Timestamp: time.Now(),
			Route:     d.routeLabel(rc.Path()),
			Lane:      string(rc.Lane()),
		})

		resp = StringResponse(http.StatusInternalServerError, ContentTypeTextPlain, internalErrorBody)
	}

	if resp.Header == nil {
		resp.Header = make(http.Header)
	}
	resp.Header.Set(headerRequestID, rc.ID())

	d.requestLogger.LogRequest(rc, resp)

	d.emitEvent(metrics.MetricEvent{
		Type:       metrics.EventRequestCompleted,
		Timestamp:  time.Now(),
		Route:      d.routeLabel(rc.Path()),
		Lane:       string(rc.Lane()),
		Duration:   rc.Elapsed(),
		StatusCode: resp.Status,
	})

	writeResponse(w, r, resp)
}

func (d *Dispatcher) execute(rc *RequestContext, h RequestHandler) (*Response, error) {
	if rc.Lane() != LaneOffload {
		return invoke(rc, h)
	}

	var (
		resp *Response
		err  error
	)

	poolErr := d.pool.Do(rc.Context(), func() {
		resp, err = invoke(rc, h)
	})
	if poolErr != nil {
		return nil, fmt.Errorf("worker pool: %w", poolErr)
	}

	return resp, err
}

func invoke(rc *RequestContext, h RequestHandler) (resp *Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = fmt.Errorf("handler panic: %v\n%s", r, debug.Stack())
		}
	}()

	return h.Handle(rc)
}

// routeLabel keeps metrics cardinality bounded by the route table.
func (d *Dispatcher) routeLabel(path string) string {
	if _, ok := d.routes.Lookup(path); ok {
		return path
	}
	return "not_found"
}

func (d *Dispatcher) emitEvent(event metrics.MetricEvent) {
	if d.events == nil {
		return
	}

	select {
	case d.events <- event:
	default:
	}
}
