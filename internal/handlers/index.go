package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/angeloszaimis/widget-server/internal/server"
)

// Link is one entry on the index page.
type Link struct {
	Path  string
	Label string
}

// IndexContent lists what the index page links to.
type IndexContent struct {
	Title       string
	Commands    []Link
	Proxies     []Link
	StaticPaths []Link
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<title>{{.Title}}</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<link rel="stylesheet" type="text/css" href="{{.StyleSheet}}">
</head>
<body>
<h2>{{.Title}}</h2>
{{- if .Commands}}
<h3>Commands:</h3>
<ul>
{{- range .Commands}}
<li><a href="{{.Path}}">{{.Label}}</a></li>
{{- end}}
</ul>
{{- end}}
{{- if .Proxies}}
<h3>Proxies:</h3>
<ul>
{{- range .Proxies}}
<li><a href="{{.Path}}">{{.Label}}</a></li>
{{- end}}
</ul>
{{- end}}
{{- if .StaticPaths}}
<h3>Static Paths:</h3>
<ul>
{{- range .StaticPaths}}
<li><a href="{{.Path}}">{{.Label}}</a></li>
{{- end}}
</ul>
{{- end}}
<hr>
<small>Last Modified: {{.LastModified}}</small>
</body>
</html>
`))

// Index serves the main page. The page is rendered once and its render time
// is used as Last-Modified.
type Index struct {
	body         []byte
	lastModified time.Time
	maxAge       int
}

func NewIndex(content IndexContent, maxAgeSeconds int) (*Index, error) {
	now := time.Now()

	var buf bytes.Buffer
	err := indexTemplate.Execute(&buf, struct {
		IndexContent
		StyleSheet   string
		LastModified string
	}{
		IndexContent: content,
		StyleSheet:   StyleSheetPath,
		LastModified: formatTime(now),
	})
	if err != nil {
		return nil, fmt.Errorf("render index page: %w", err)
	}

	return &Index{
		body:         buf.Bytes(),
		lastModified: now,
		maxAge:       maxAgeSeconds,
	}, nil
}

func (h *Index) Handle(rc *server.RequestContext) (*server.Response, error) {
	notModified, headers := server.CheckNotModified(rc, h.lastModified, h.maxAge, server.ContentTypeTextHTML)
	if notModified != nil {
		return notModified, nil
	}

	resp := server.NewResponse(http.StatusOK, server.ContentTypeTextHTML, h.body)
	for key, values := range headers {
		resp.Header[key] = values
	}
	return resp, nil
}

// LastModified returns the render time of the page.
func (h *Index) LastModified() time.Time {
	return h.lastModified
}
