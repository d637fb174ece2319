package handlers

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"

	"github.com/angeloszaimis/widget-server/internal/server"
)

// StaticFile serves one file from disk, re-reading it on every request.
type StaticFile struct {
	fsPath      string
	contentType string
	maxAge      int
}

func NewStaticFile(fsPath, contentType string, maxAgeSeconds int) *StaticFile {
	return &StaticFile{
		fsPath:      fsPath,
		contentType: ContentTypeFor(fsPath, contentType),
		maxAge:      maxAgeSeconds,
	}
}

func (h *StaticFile) RequiresOffload() bool { return true }

func (h *StaticFile) Handle(rc *server.RequestContext) (*server.Response, error) {
	f, err := os.Open(h.fsPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return server.StatusResponse(http.StatusNotFound), nil
		}
		return nil, fmt.Errorf("open static file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat static file: %w", err)
	}
	if info.IsDir() {
		return server.StatusResponse(http.StatusNotFound), nil
	}

	notModified, headers := server.CheckNotModified(rc, info.ModTime(), h.maxAge, h.contentType)
	if notModified != nil {
		return notModified, nil
	}

	body, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read static file: %w", err)
	}

	resp := server.NewResponse(http.StatusOK, h.contentType, body)
	for key, values := range headers {
		resp.Header[key] = values
	}
	return resp, nil
}
