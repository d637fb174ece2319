package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/angeloszaimis/widget-server/config"
	"github.com/angeloszaimis/widget-server/internal/circuitbreaker"
	"github.com/angeloszaimis/widget-server/internal/handlers"
	"github.com/angeloszaimis/widget-server/internal/httpserver"
	"github.com/angeloszaimis/widget-server/internal/metrics"
	"github.com/angeloszaimis/widget-server/internal/server"
	"github.com/angeloszaimis/widget-server/internal/workerpool"
	"github.com/angeloszaimis/widget-server/pkg/logger"
)

const metricsEventBuffer = 1024

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the widget server",
	Long: `Start the widget server with the given configuration.

The server runs until it receives SIGINT or SIGTERM, then stops accepting
connections and waits for in-flight requests up to server.shutdown_timeout.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (default: config.yaml in ./config or .)")
}

func runServe(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	log := logger.New(cfg.Logging.Level, false, cfg.Server.Environment)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, log); err != nil {
		log.Error("Server stopped with error", slog.Any("err", err))
		return err
	}

	log.Info("Server stopped")
	return nil
}

// serve wires every component and blocks until ctx ends or a listener
// fails.
func serve(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := metrics.NewPrometheus(reg)

	pool := workerpool.New(cfg.Workers.PoolSize, cfg.Workers.MaxPending,
		workerpool.WithGauges(prom.PoolSize, prom.PoolBusy, prom.PoolPending))
	defer pool.Close()

	collector := metrics.NewCollector(metricsEventBuffer, log, prom)
	collector.Start(ctx)

	breakers := circuitbreaker.NewRegistry(cfg.Proxy.FailureThreshold, cfg.Proxy.ResetTimeoutDuration())
	app := server.NewAppContext(&http.Client{}, breakers)

	routes, err := buildRouteTable(cfg, routeDeps{
		client:      app.HTTPClient(),
		breakers:    breakers,
		snapshots:   collector,
		pool:        pool,
		environment: handlers.CurrentEnvironment(version, commit, date, app.StartTime()),
	})
	if err != nil {
		return err
	}

	dispatcher := server.NewDispatcher(routes, pool,
		server.WithAppContext(app),
		server.WithLogger(log),
		server.WithRequestLogger(server.NewRequestLogger(log)),
		server.WithEvents(collector.EventChannel()),
	)

	srv, err := httpserver.New(cfg.Server.Address, dispatcher, httpserver.Options{
		MaxConnections:  cfg.Server.MaxConnections,
		ShutdownTimeout: cfg.Server.ShutdownTimeoutDuration(),
	})
	if err != nil {
		return err
	}
	if err := srv.Listen(); err != nil {
		return err
	}

	servers := []*httpserver.Server{srv}

	if cfg.Server.MetricsAddress != "" {
		metricsSrv, err := httpserver.New(cfg.Server.MetricsAddress,
			promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), httpserver.Options{})
		if err != nil {
			return multierror.Append(err, srv.Close()).ErrorOrNil()
		}
		if err := metricsSrv.Listen(); err != nil {
			return multierror.Append(err, srv.Close()).ErrorOrNil()
		}
		servers = append(servers, metricsSrv)
		log.Info("Metrics listener started", slog.String("addr", metricsSrv.Addr()))
	}

	log.Info("Widget server started",
		slog.String("addr", srv.Addr()),
		slog.Int("routes", routes.Len()),
		slog.Int("workers", pool.Size()),
		slog.Int("max_pending", pool.MaxPending()))

	g, gctx := errgroup.WithContext(ctx)

	for _, s := range servers {
		g.Go(s.Serve)
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down gracefully...")

		var errs *multierror.Error
		for _, s := range servers {
			if err := s.Shutdown(context.Background()); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
		return errs.ErrorOrNil()
	})

	return g.Wait()
}
