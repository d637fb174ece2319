package server

import (
	"fmt"
	"log/slog"
)

// RequestLogger writes one line per completed request.
type RequestLogger struct {
	logger *slog.Logger
}

func NewRequestLogger(logger *slog.Logger) *RequestLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestLogger{logger: logger}
}

// LogRequest logs the request line, status, body size and elapsed seconds.
func (l *RequestLogger) LogRequest(rc *RequestContext, resp *Response) {
	elapsed := rc.Elapsed().Seconds()
	size := resp.Size()

	msg := fmt.Sprintf("%q %d %d %.9fs",
		rc.Method()+" "+rc.URI()+" "+rc.Proto(), resp.Status, size, elapsed)

	l.logger.Info(msg,
		slog.String("request_id", rc.ID()),
		slog.String("method", rc.Method()),
		slog.String("uri", rc.URI()),
		slog.String("proto", rc.Proto()),
		slog.Int("status", resp.Status),
		slog.Int("size", size),
		slog.String("lane", string(rc.Lane())),
		slog.String("duration_seconds", fmt.Sprintf("%.9f", elapsed)))
}
