package handlers

import (
	"net/http"

	"github.com/angeloszaimis/widget-server/internal/server"
)

const notFoundBody = "Route not found"

// NotFound answers every path missing from the route table.
type NotFound struct{}

func (NotFound) Handle(*server.RequestContext) (*server.Response, error) {
	return server.StringResponse(http.StatusNotFound, server.ContentTypeTextPlain, notFoundBody), nil
}
