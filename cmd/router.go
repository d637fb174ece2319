package main

import (
	"net/http"

	"github.com/angeloszaimis/widget-server/config"
	"github.com/angeloszaimis/widget-server/internal/circuitbreaker"
	"github.com/angeloszaimis/widget-server/internal/handlers"
	"github.com/angeloszaimis/widget-server/internal/metrics"
	"github.com/angeloszaimis/widget-server/internal/server"
	"github.com/angeloszaimis/widget-server/internal/upstream"
)

const styleSheetMaxAge = 3600

// routeDeps are the runtime collaborators of the handlers. Zero values are
// enough to build the table for validation.
type routeDeps struct {
	client      *http.Client
	breakers    *circuitbreaker.Registry
	snapshots   handlers.SnapshotSource
	pool        handlers.PoolStats
	environment handlers.Environment
}

// buildRouteTable turns the configuration into the frozen route table.
func buildRouteTable(cfg *config.Config, deps routeDeps) (*server.RouteTable, error) {
	builder := server.NewRouteTableBuilder()

	var content handlers.IndexContent
	content.Title = cfg.MainPage.Title

	var targets []*upstream.Target

	for _, r := range cfg.Routes {
		switch r.Kind {
		case config.KindCommand:
			c := handlers.Command{
				Description: r.Description,
				Name:        r.Command,
				Args:        r.Args,
				Timeout:     r.TimeoutDuration(),
			}
			builder.Add(r.Path, handlers.NewCommandPage(c))
			if r.APIPath != "" {
				builder.Add(r.APIPath, handlers.NewCommandAPI(c))
			}
			content.Commands = append(content.Commands, handlers.Link{Path: r.Path, Label: labelFor(r, r.Command)})

		case config.KindProxy:
			opts := []upstream.Option{upstream.WithTimeout(cfg.Proxy.TimeoutDuration())}
			if deps.breakers != nil {
				opts = append(opts, upstream.WithBreaker(deps.breakers.Get(r.URL)))
			}

			target, err := upstream.New(r.URL, deps.client, opts...)
			if err != nil {
				return nil, err
			}
			targets = append(targets, target)

			builder.Add(r.Path, handlers.NewProxyPage(labelFor(r, r.URL), target))
			if r.APIPath != "" {
				builder.Add(r.APIPath, handlers.NewProxyAPI(target))
			}
			content.Proxies = append(content.Proxies, handlers.Link{Path: r.Path, Label: labelFor(r, r.URL)})

		case config.KindStatic:
			builder.Add(r.Path, handlers.NewStaticFile(r.FSPath, r.ContentType, r.CacheMaxAgeSeconds))
			if r.IncludeInMainPage {
				content.StaticPaths = append(content.StaticPaths, handlers.Link{Path: r.Path, Label: r.FSPath})
			}
		}
	}

	index, err := handlers.NewIndex(content, cfg.MainPage.CacheMaxAgeSeconds)
	if err != nil {
		return nil, err
	}
	builder.Add(cfg.MainPage.Path, index)

	if !builder.Has(handlers.StyleSheetPath) {
		builder.Add(handlers.StyleSheetPath, handlers.StyleSheet(styleSheetMaxAge))
	}

	if cfg.Debug.Enabled {
		if err := addDebugRoutes(builder, cfg, deps, targets); err != nil {
			return nil, err
		}
	}

	return builder.Build(handlers.NotFound{})
}

func addDebugRoutes(builder *server.RouteTableBuilder, cfg *config.Config, deps routeDeps, targets []*upstream.Target) error {
	paths := cfg.DebugPaths()

	configDump, err := handlers.NewDump(cfg)
	if err != nil {
		return err
	}
	builder.Add(paths[0], configDump)

	envDump, err := handlers.NewDump(deps.environment)
	if err != nil {
		return err
	}
	builder.Add(paths[1], envDump)

	snapshots := deps.snapshots
	if snapshots == nil {
		snapshots = metrics.NewMetrics()
	}
	builder.Add(paths[2], handlers.NewMetrics(snapshots, deps.pool, targets))

	return nil
}

func labelFor(r config.RouteConfig, fallback string) string {
	if r.Description != "" {
		return r.Description
	}
	return fallback
}
