package conditional

import (
	"fmt"
	"net/http"
	"time"
)

const (
	headerIfModifiedSince = "If-Modified-Since"
	headerLastModified    = "Last-Modified"
	headerCacheControl    = "Cache-Control"
)

// Result is the outcome of evaluating a conditional request.
type Result struct {
	// Status is http.StatusOK or http.StatusNotModified.
	Status int

	// Header holds Last-Modified and Cache-Control. It is set for both
	// outcomes.
	Header http.Header
}

// NotModified reports whether the client copy is still fresh.
func (r Result) NotModified() bool {
	return r.Status == http.StatusNotModified
}

// ParseIfModifiedSince returns the If-Modified-Since timestamp of h.
// HTTP dates and RFC 3339 timestamps are accepted. A missing or
// unparseable header yields false.
func ParseIfModifiedSince(h http.Header) (time.Time, bool) {
	value := h.Get(headerIfModifiedSince)
	if value == "" {
		return time.Time{}, false
	}

	if t, err := http.ParseTime(value); err == nil {
		return t, true
	}

	// some clients send ISO 8601 timestamps
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}

	return time.Time{}, false
}

// NotModified reports whether since is at or after lastModified, both
// truncated to whole seconds.
func NotModified(lastModified, since time.Time) bool {
	return since.Unix() >= lastModified.Unix()
}

// Headers returns the validator and caching headers for a resource.
func Headers(lastModified time.Time, maxAgeSeconds int) http.Header {
	h := make(http.Header, 2)
	h.Set(headerLastModified, lastModified.UTC().Format(http.TimeFormat))
	h.Set(headerCacheControl, CacheControl(maxAgeSeconds))
	return h
}

// CacheControl formats the public max-age directive.
func CacheControl(maxAgeSeconds int) string {
	if maxAgeSeconds < 0 {
		maxAgeSeconds = 0
	}
	return fmt.Sprintf("public, max-age=%d", maxAgeSeconds)
}

// Evaluate decides between a full response and 304 Not Modified for a
// resource last changed at lastModified and cacheable for maxAgeSeconds.
func Evaluate(requestHeader http.Header, lastModified time.Time, maxAgeSeconds int) Result {
	result := Result{
		Status: http.StatusOK,
		Header: Headers(lastModified, maxAgeSeconds),
	}

	since, ok := ParseIfModifiedSince(requestHeader)
	if ok && NotModified(lastModified, since) {
		result.Status = http.StatusNotModified
	}

	return result
}
