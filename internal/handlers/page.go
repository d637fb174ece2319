package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// TimeFormat renders the "Now:" and "Last Modified:" stamps.
const TimeFormat = "2006-01-02 15:04:05.000000000 -0700"

const StyleSheetPath = "/style.css"

var widgetTemplate = template.Must(template.New("widget").Parse(`<!DOCTYPE html>
<html>
<head>
<title>{{.Title}}</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<link rel="stylesheet" type="text/css" href="{{.StyleSheet}}">
</head>
<body>
<a href="..">..</a>
<pre>{{.Text}}</pre>
</body>
</html>
`))

type widgetPage struct {
	Title      string
	StyleSheet string
	Text       string
}

func renderWidget(title, text string) ([]byte, error) {
	var buf bytes.Buffer
	err := widgetTemplate.Execute(&buf, widgetPage{
		Title:      title,
		StyleSheet: StyleSheetPath,
		Text:       text,
	})
	if err != nil {
		return nil, fmt.Errorf("render widget page: %w", err)
	}
	return buf.Bytes(), nil
}

func formatTime(t time.Time) string {
	return t.Local().Format(TimeFormat)
}
