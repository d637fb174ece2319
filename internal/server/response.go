package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/angeloszaimis/widget-server/internal/conditional"
)

const (
	ContentTypeTextPlain = "text/plain; charset=utf-8"
	ContentTypeTextHTML  = "text/html; charset=utf-8"
	ContentTypeJSON      = "application/json"

	headerContentType   = "Content-Type"
	headerContentLength = "Content-Length"
	headerRequestID     = "X-Request-Id"
)

// Response is a fully buffered HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// NewResponse builds a response with the given content type.
func NewResponse(status int, contentType string, body []byte) *Response {
	h := make(http.Header)
	if contentType != "" {
		h.Set(headerContentType, contentType)
	}

	return &Response{
		Status: status,
		Header: h,
		Body:   body,
	}
}

// StringResponse builds a response from a string body.
func StringResponse(status int, contentType, body string) *Response {
	return NewResponse(status, contentType, []byte(body))
}

// StatusResponse builds a plain-text response whose body is the status text.
func StatusResponse(status int) *Response {
	return StringResponse(status, ContentTypeTextPlain, http.StatusText(status))
}

// Size returns the number of body bytes sent to the client.
func (r *Response) Size() int {
	if r.Status == http.StatusNotModified || r.Status == http.StatusNoContent {
		return 0
	}
	return len(r.Body)
}

// CheckNotModified answers a conditional GET. It returns a 304 response
// when the client copy of a resource last changed at lastModified is still
// fresh. Otherwise it returns nil together with the Last-Modified and
// Cache-Control headers that the full response must carry.
func CheckNotModified(rc *RequestContext, lastModified time.Time, maxAgeSeconds int, contentType string) (*Response, http.Header) {
	result := conditional.Evaluate(rc.Header(), lastModified, maxAgeSeconds)
	if !result.NotModified() {
		return nil, result.Header
	}

	resp := NewResponse(http.StatusNotModified, contentType, nil)
	for key, values := range result.Header {
		resp.Header[key] = values
	}

	return resp, result.Header
}

func writeResponse(w http.ResponseWriter, r *http.Request, resp *Response) {
	h := w.Header()
	for key, values := range resp.Header {
		h[key] = values
	}

	bodyAllowed := resp.Status != http.StatusNotModified && resp.Status != http.StatusNoContent
	if bodyAllowed {
		h.Set(headerContentLength, strconv.Itoa(len(resp.Body)))
	} else {
		h.Del(headerContentLength)
	}

	w.WriteHeader(resp.Status)

	if bodyAllowed && r.Method != http.MethodHead && len(resp.Body) > 0 {
		// the client may have gone away; nothing useful to do about it here
		_, _ = w.Write(resp.Body)
	}
}
