package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/angeloszaimis/widget-server/internal/circuitbreaker"
)

// MaxBodyBytes caps how much of an upstream body is kept.
const MaxBodyBytes = 1 << 20

const ewmaAlpha = 0.2

var (
	// ErrCircuitOpen is returned by Fetch while the target's breaker is open.
	ErrCircuitOpen = errors.New("upstream circuit open")

	errServerStatus = errors.New("upstream server error")
)

// Result describes one fetched upstream response.
type Result struct {
	Method    string
	URL       string
	Version   string
	Status    string
	Header    http.Header
	Body      []byte
	Truncated bool
	Duration  time.Duration
}

// Stats is a point-in-time view of a target.
type Stats struct {
	URL      string        `json:"url"`
	InFlight int           `json:"in_flight"`
	EWMA     time.Duration `json:"ewma_ns"`
	State    string        `json:"circuit_state"`
}

// Target is one upstream URL.
type Target struct {
	url      *url.URL
	client   *http.Client
	breaker  *circuitbreaker.Breaker
	timeout  time.Duration
	mutex    sync.Mutex
	inFlight int
	ewma     time.Duration
	hasEWMA  bool
}

type Option func(*Target)

// WithTimeout bounds each fetch. Zero means no bound beyond the caller's
// context.
func WithTimeout(d time.Duration) Option {
	return func(t *Target) {
		t.timeout = d
	}
}

// WithBreaker guards the target with b.
func WithBreaker(b *circuitbreaker.Breaker) Option {
	return func(t *Target) {
		t.breaker = b
	}
}

// New creates a target for rawURL. client may be nil.
func New(rawURL string, client *http.Client, opts ...Option) (*Target, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream url %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("upstream url %q must use http or https", rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("upstream url %q has no host", rawURL)
	}

	if client == nil {
		client = http.DefaultClient
	}

	t := &Target{
		url:    u,
		client: client,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

// Fetch performs a GET against the target. Server errors (5xx) are returned
// as a Result together with a nil error but still count as breaker failures.
func (t *Target) Fetch(ctx context.Context) (*Result, error) {
	if t.breaker != nil && !t.breaker.Allow() {
		return nil, ErrCircuitOpen
	}

	t.incrementInFlight()
	defer t.decrementInFlight()

	start := time.Now()
	result, err := t.fetch(ctx)
	duration := time.Since(start)

	// A caller that went away says nothing about the target.
	if ctx.Err() != nil {
		t.releaseBreaker()
	} else {
		t.recordOutcome(err)
	}

	if err != nil && !errors.Is(err, errServerStatus) {
		return nil, err
	}

	t.recordResponse(duration)
	result.Duration = duration
	return result, nil
}

func (t *Target) fetch(ctx context.Context) (*Result, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", t.url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s body: %w", t.url, err)
	}

	result := &Result{
		Method:  http.MethodGet,
		URL:     t.url.String(),
		Version: resp.Proto,
		Status:  resp.Status,
		Header:  resp.Header,
		Body:    body,
	}

	if len(body) > MaxBodyBytes {
		result.Body = body[:MaxBodyBytes]
		result.Truncated = true
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return result, errServerStatus
	}

	return result, nil
}

func (t *Target) recordOutcome(err error) {
	if t.breaker == nil {
		return
	}

	if err != nil {
		t.breaker.RecordFailure()
		return
	}
	t.breaker.RecordSuccess()
}

func (t *Target) releaseBreaker() {
	if t.breaker != nil {
		t.breaker.Release()
	}
}

func (t *Target) incrementInFlight() {
	t.mutex.Lock()
	t.inFlight++
	t.mutex.Unlock()
}

func (t *Target) decrementInFlight() {
	t.mutex.Lock()
	if t.inFlight > 0 {
		t.inFlight--
	}
	t.mutex.Unlock()
}

// InFlight returns the number of fetches currently running.
func (t *Target) InFlight() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.inFlight
}

// recordResponse updates the exponentially weighted moving average latency.
func (t *Target) recordResponse(duration time.Duration) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.hasEWMA {
		t.ewma = duration
		t.hasEWMA = true
		return
	}
	//ewma = (1 - α) * ewma + α * latest
	t.ewma = time.Duration((1-ewmaAlpha)*float64(t.ewma) + ewmaAlpha*float64(duration))
}

// EWMATime returns the moving average latency, or 0 before the first fetch.
func (t *Target) EWMATime() time.Duration {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.hasEWMA {
		return 0
	}
	return t.ewma
}

func (t *Target) Stats() Stats {
	state := circuitbreaker.StateClosed
	if t.breaker != nil {
		state = t.breaker.State()
	}

	return Stats{
		URL:      t.url.String(),
		InFlight: t.InFlight(),
		EWMA:     t.EWMATime(),
		State:    state.String(),
	}
}
