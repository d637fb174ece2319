package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/angeloszaimis/widget-server/internal/server"
	"github.com/angeloszaimis/widget-server/internal/upstream"
)

// circuitOpenBody is returned while an upstream is cooling down.
const circuitOpenBody = "Upstream temporarily unavailable"

func fetchUpstream(rc *server.RequestContext, target *upstream.Target) (*upstream.Result, *server.Response, error) {
	result, err := target.Fetch(rc.Context())
	if errors.Is(err, upstream.ErrCircuitOpen) {
		return nil, server.StringResponse(http.StatusServiceUnavailable, server.ContentTypeTextPlain, circuitOpenBody), nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("proxy: %w", err)
	}
	return result, nil, nil
}

func formatHeaders(h http.Header) string {
	keys := make([]string, 0, len(h))
	for key := range h {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		for _, value := range h[key] {
			fmt.Fprintf(&b, "%s: %s\n", key, value)
		}
	}
	return b.String()
}

// ProxyPage fetches the upstream and shows the raw response as HTML.
type ProxyPage struct {
	description string
	target      *upstream.Target
}

func NewProxyPage(description string, target *upstream.Target) *ProxyPage {
	return &ProxyPage{
		description: description,
		target:      target,
	}
}

func (h *ProxyPage) RequiresOffload() bool { return true }

func (h *ProxyPage) Handle(rc *server.RequestContext) (*server.Response, error) {
	result, unavailable, err := fetchUpstream(rc, h.target)
	if err != nil || unavailable != nil {
		return unavailable, err
	}

	text := fmt.Sprintf("Now: %s\n\n%s %s\n\nResponse Status: %s %s\n\nResponse Headers:\n%s\n%s",
		formatTime(time.Now()),
		result.Method, result.URL,
		result.Version, result.Status,
		formatHeaders(result.Header),
		result.Body)

	body, err := renderWidget(h.description, text)
	if err != nil {
		return nil, err
	}

	return server.NewResponse(http.StatusOK, server.ContentTypeTextHTML, body), nil
}

type proxyAPIResponse struct {
	Now       string      `json:"now"`
	Method    string      `json:"method"`
	URL       string      `json:"url"`
	Version   string      `json:"version"`
	Status    string      `json:"status"`
	Headers   http.Header `json:"headers"`
	Body      string      `json:"body"`
	Truncated bool        `json:"truncated,omitempty"`
}

// ProxyAPI fetches the upstream and returns the response as JSON.
type ProxyAPI struct {
	target *upstream.Target
}

func NewProxyAPI(target *upstream.Target) *ProxyAPI {
	return &ProxyAPI{target: target}
}

func (h *ProxyAPI) RequiresOffload() bool { return true }

func (h *ProxyAPI) Handle(rc *server.RequestContext) (*server.Response, error) {
	result, unavailable, err := fetchUpstream(rc, h.target)
	if err != nil || unavailable != nil {
		return unavailable, err
	}

	body, err := json.Marshal(proxyAPIResponse{
		Now:       formatTime(time.Now()),
		Method:    result.Method,
		URL:       result.URL,
		Version:   result.Version,
		Status:    result.Status,
		Headers:   result.Header,
		Body:      strings.ToValidUTF8(string(result.Body), "\uFFFD"),
		Truncated: result.Truncated,
	})
	if err != nil {
		return nil, fmt.Errorf("encode proxy response: %w", err)
	}

	return server.NewResponse(http.StatusOK, server.ContentTypeJSON, body), nil
}
