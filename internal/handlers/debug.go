package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/angeloszaimis/widget-server/internal/metrics"
	"github.com/angeloszaimis/widget-server/internal/server"
	"github.com/angeloszaimis/widget-server/internal/upstream"
)

const contentTypeYAML = "application/yaml; charset=utf-8"

// Dump serves a value rendered once as YAML.
type Dump struct {
	body []byte
}

// NewDump marshals v with yaml tags.
func NewDump(v any) (*Dump, error) {
	body, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal dump: %w", err)
	}
	return &Dump{body: body}, nil
}

func (h *Dump) Handle(*server.RequestContext) (*server.Response, error) {
	return server.NewResponse(http.StatusOK, contentTypeYAML, h.body), nil
}

// Environment describes the build and the running process.
type Environment struct {
	Version   string    `yaml:"version"`
	Commit    string    `yaml:"commit"`
	BuildDate string    `yaml:"build_date"`
	GoVersion string    `yaml:"go_version"`
	Platform  string    `yaml:"platform"`
	Hostname  string    `yaml:"hostname"`
	PID       int       `yaml:"pid"`
	StartTime time.Time `yaml:"start_time"`
}

// CurrentEnvironment fills in the process details around the build info.
func CurrentEnvironment(version, commit, buildDate string, startTime time.Time) Environment {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	return Environment{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Hostname:  hostname,
		PID:       os.Getpid(),
		StartTime: startTime,
	}
}

// SnapshotSource provides the per-route request metrics.
type SnapshotSource interface {
	Snapshot() metrics.Snapshot
}

// PoolStats provides worker pool occupancy.
type PoolStats interface {
	Size() int
	MaxPending() int
	Busy() int
	Pending() int
}

type poolReport struct {
	Size       int `json:"size"`
	MaxPending int `json:"max_pending"`
	Busy       int `json:"busy"`
	Pending    int `json:"pending"`
}

type metricsReport struct {
	metrics.Snapshot
	UptimeSeconds   float64           `json:"uptime_seconds"`
	Pool            *poolReport       `json:"pool,omitempty"`
	CircuitBreakers map[string]string `json:"circuit_breakers,omitempty"`
	Upstreams       []upstream.Stats  `json:"upstreams,omitempty"`
}

// Metrics serves a JSON snapshot of request metrics, pool occupancy and
// upstream health.
type Metrics struct {
	source    SnapshotSource
	pool      PoolStats
	upstreams []*upstream.Target
}

func NewMetrics(source SnapshotSource, pool PoolStats, upstreams []*upstream.Target) *Metrics {
	return &Metrics{
		source:    source,
		pool:      pool,
		upstreams: upstreams,
	}
}

func (h *Metrics) Handle(rc *server.RequestContext) (*server.Response, error) {
	snapshot := h.source.Snapshot()

	report := metricsReport{
		Snapshot:      snapshot,
		UptimeSeconds: snapshot.Uptime.Seconds(),
	}

	if h.pool != nil {
		report.Pool = &poolReport{
			Size:       h.pool.Size(),
			MaxPending: h.pool.MaxPending(),
			Busy:       h.pool.Busy(),
			Pending:    h.pool.Pending(),
		}
	}

	if app := rc.App(); app != nil && app.Breakers() != nil {
		states := app.Breakers().States()
		report.CircuitBreakers = make(map[string]string, len(states))
		for target, state := range states {
			report.CircuitBreakers[target] = state.String()
		}
	}

	for _, target := range h.upstreams {
		report.Upstreams = append(report.Upstreams, target.Stats())
	}

	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode metrics: %w", err)
	}

	return server.NewResponse(http.StatusOK, server.ContentTypeJSON, body), nil
}
