package handlers

import (
	_ "embed"
	"net/http"
	"time"

	"github.com/angeloszaimis/widget-server/internal/server"
)

//go:embed assets/style.css
var styleSheet []byte

// Asset serves an in-memory file. Embedded files carry no modification time,
// so the creation time of the handler stands in for it.
type Asset struct {
	content      []byte
	contentType  string
	lastModified time.Time
	maxAge       int
}

func NewAsset(content []byte, contentType string, maxAgeSeconds int) *Asset {
	return &Asset{
		content:      content,
		contentType:  contentType,
		lastModified: time.Now(),
		maxAge:       maxAgeSeconds,
	}
}

// StyleSheet serves the default stylesheet linked by every page.
func StyleSheet(maxAgeSeconds int) *Asset {
	return NewAsset(styleSheet, ContentTypeFor(StyleSheetPath, ""), maxAgeSeconds)
}

func (h *Asset) Handle(rc *server.RequestContext) (*server.Response, error) {
	notModified, headers := server.CheckNotModified(rc, h.lastModified, h.maxAge, h.contentType)
	if notModified != nil {
		return notModified, nil
	}

	resp := server.NewResponse(http.StatusOK, h.contentType, h.content)
	for key, values := range headers {
		resp.Header[key] = values
	}
	return resp, nil
}
