package server

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// RouteTable maps exact request paths to handlers. It is built once and never
// modified, so it is shared across requests without locking.
type RouteTable struct {
	routes   map[string]RequestHandler
	notFound RequestHandler
}

// Resolve returns the handler registered for path, or the not-found handler.
func (t *RouteTable) Resolve(path string) RequestHandler {
	if h, ok := t.routes[path]; ok {
		return h
	}
	return t.notFound
}

// Lookup returns the handler registered for path and whether one exists.
func (t *RouteTable) Lookup(path string) (RequestHandler, bool) {
	h, ok := t.routes[path]
	return h, ok
}

// Paths returns the registered paths in sorted order.
func (t *RouteTable) Paths() []string {
	paths := make([]string, 0, len(t.routes))
	for path := range t.routes {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of registered paths.
func (t *RouteTable) Len() int {
	return len(t.routes)
}

// RouteTableBuilder collects routes before the table is frozen.
type RouteTableBuilder struct {
	routes map[string]RequestHandler
	errs   *multierror.Error
}

func NewRouteTableBuilder() *RouteTableBuilder {
	return &RouteTableBuilder{
		routes: make(map[string]RequestHandler),
	}
}

// Add registers h at path. Invalid or duplicate registrations are recorded
// and reported by Build.
func (b *RouteTableBuilder) Add(path string, h RequestHandler) *RouteTableBuilder {
	switch {
	case path == "":
		b.errs = multierror.Append(b.errs, fmt.Errorf("route path cannot be empty"))
	case !strings.HasPrefix(path, "/"):
		b.errs = multierror.Append(b.errs, fmt.Errorf("route path %q must start with /", path))
	case h == nil:
		b.errs = multierror.Append(b.errs, fmt.Errorf("route %q has no handler", path))
	default:
		if _, exists := b.routes[path]; exists {
			b.errs = multierror.Append(b.errs, fmt.Errorf("route %q registered more than once", path))
			return b
		}
		b.routes[path] = h
	}

	return b
}

// Has reports whether path is already registered.
func (b *RouteTableBuilder) Has(path string) bool {
	_, ok := b.routes[path]
	return ok
}

// Build freezes the collected routes. The builder must not be reused.
func (b *RouteTableBuilder) Build(notFound RequestHandler) (*RouteTable, error) {
	errs := b.errs
	if notFound == nil {
		errs = multierror.Append(errs, fmt.Errorf("not-found handler is required"))
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	routes := make(map[string]RequestHandler, len(b.routes))
	for path, h := range b.routes {
		routes[path] = h
	}

	return &RouteTable{
		routes:   routes,
		notFound: notFound,
	}, nil
}
