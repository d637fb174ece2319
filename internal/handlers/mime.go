package handlers

import (
	"fmt"
	"mime"
	"path/filepath"

	"gitlab.com/gitlab-org/go-mimedb"
)

const defaultContentType = "application/octet-stream"

// extraMIMETypes are registered after the mimedb database and take
// precedence over it.
var extraMIMETypes = map[string]string{
	".css":         "text/css; charset=utf-8",
	".js":          "application/javascript",
	".json":        "application/json",
	".svg":         "image/svg+xml",
	".txt":         "text/plain; charset=utf-8",
	".md":          "text/markdown; charset=utf-8",
	".log":         "text/plain; charset=utf-8",
	".yaml":        "application/yaml",
	".yml":         "application/yaml",
	".wasm":        "application/wasm",
	".webmanifest": "application/manifest+json",
}

func init() {
	if err := mimedb.LoadTypes(); err != nil {
		panic(fmt.Sprintf("load mime database: %v", err))
	}

	for ext, mimeType := range extraMIMETypes {
		if err := mime.AddExtensionType(ext, mimeType); err != nil {
			panic(fmt.Sprintf("register mime type %q for %q: %v", mimeType, ext, err))
		}
	}
}

// ContentTypeFor returns configured when set, otherwise the type registered
// for the extension of fsPath.
func ContentTypeFor(fsPath, configured string) string {
	if configured != "" {
		return configured
	}

	if ct := mime.TypeByExtension(filepath.Ext(fsPath)); ct != "" {
		return ct
	}

	return defaultContentType
}
