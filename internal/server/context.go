package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angeloszaimis/widget-server/internal/circuitbreaker"
	"github.com/angeloszaimis/widget-server/internal/metrics"
)

// Lane names the execution path a handler ran on.
type Lane string

const (
	// LaneInline runs the handler on the connection goroutine.
	LaneInline Lane = metrics.LaneInline

	// LaneOffload runs the handler on the worker pool.
	LaneOffload Lane = metrics.LaneOffload
)

// AppContext holds resources shared by every request. It is created once at
// startup and never modified afterwards.
type AppContext struct {
	httpClient *http.Client
	breakers   *circuitbreaker.Registry
	startTime  time.Time
}

// NewAppContext creates the shared application context.
func NewAppContext(httpClient *http.Client, breakers *circuitbreaker.Registry) *AppContext {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &AppContext{
		httpClient: httpClient,
		breakers:   breakers,
		startTime:  time.Now(),
	}
}

// HTTPClient returns the outbound client shared by proxy handlers.
func (a *AppContext) HTTPClient() *http.Client {
	return a.httpClient
}

// Breakers returns the circuit breakers guarding outbound targets. It may be
// nil.
func (a *AppContext) Breakers() *circuitbreaker.Registry {
	return a.breakers
}

// StartTime returns when the application context was created.
func (a *AppContext) StartTime() time.Time {
	return a.startTime
}

// RequestContext is the read-only view of one request handed to handlers.
type RequestContext struct {
	req     *http.Request
	arrival time.Time
	id      string
	lane    Lane
	app     *AppContext
}

// NewRequestContext captures r and the current instant. app may be nil.
func NewRequestContext(r *http.Request, app *AppContext) *RequestContext {
	return &RequestContext{
		req:     r,
		arrival: time.Now(),
		id:      uuid.NewString(),
		lane:    LaneInline,
		app:     app,
	}
}

func (rc *RequestContext) Request() *http.Request {
	return rc.req
}

func (rc *RequestContext) Method() string {
	return rc.req.Method
}

func (rc *RequestContext) Path() string {
	return rc.req.URL.Path
}

// URI returns the request target as sent by the client.
func (rc *RequestContext) URI() string {
	return rc.req.URL.RequestURI()
}

func (rc *RequestContext) Proto() string {
	return rc.req.Proto
}

func (rc *RequestContext) Header() http.Header {
	return rc.req.Header
}

// Context returns the request context. It is cancelled when the client
// disconnects.
func (rc *RequestContext) Context() context.Context {
	return rc.req.Context()
}

func (rc *RequestContext) Arrival() time.Time {
	return rc.arrival
}

// Elapsed returns the time since arrival.
func (rc *RequestContext) Elapsed() time.Duration {
	return time.Since(rc.arrival)
}

// ID returns the unique request id.
func (rc *RequestContext) ID() string {
	return rc.id
}

// Lane returns the lane the handler runs on.
func (rc *RequestContext) Lane() Lane {
	return rc.lane
}

// App returns the shared application context, or nil when none is
// configured.
func (rc *RequestContext) App() *AppContext {
	return rc.app
}
