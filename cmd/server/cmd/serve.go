package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Togather-Foundation/eventcal/internal/api"
	"github.com/Togather-Foundation/eventcal/internal/api/middleware"
	"github.com/Togather-Foundation/eventcal/internal/config"
	"github.com/Togather-Foundation/eventcal/internal/domain/events"
	"github.com/Togather-Foundation/eventcal/internal/metrics"
	"github.com/Togather-Foundation/eventcal/internal/storage"
	"github.com/Togather-Foundation/eventcal/internal/telemetry"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout        = 10 * time.Second
	dbCollectorInterval    = 15 * time.Second
	tracingShutdownTimeout = 5 * time.Second
)

// serveOptions override the configured listen address.
type serveOptions struct {
	host string
	port int
}

func (o *serveOptions) bindFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.host, "host", "", "server host address (default: 127.0.0.1)")
	cmd.Flags().IntVar(&o.port, "port", 0, "server port (default: 5000)")
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	serve := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve [host:port]",
		Short: "Start the HTTP server",
		Long: `Start the event calendar HTTP server.

The server will:
- Load configuration from environment variables (and --config if provided)
- Open the event store and apply its schema
- Serve the events API, health probes and metrics
- Shut down gracefully on SIGINT/SIGTERM

Examples:
  # Start with default configuration
  server serve

  # Listen on all interfaces, port 8000
  server serve 0.0.0.0:8000

  # Use PostgreSQL
  DATABASE_URL=postgres://localhost/eventcal server serve`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts, serve, args)
		},
	}
	serve.bindFlags(cmd)
	return cmd
}

func runServe(ctx context.Context, opts *rootOptions, serve *serveOptions, args []string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if serve.host != "" {
		cfg.Server.Host = serve.host
	}
	if serve.port != 0 {
		cfg.Server.Port = serve.port
	}
	if len(args) == 1 {
		if err := cfg.SetListenAddress(args[0]); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	logger := config.NewLogger(cfg.Logging)

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}
	return serveHTTP(ctx, cfg, logger, ln)
}

var metricsOnce sync.Once

func initMetrics(driver string) {
	metricsOnce.Do(func() {
		metrics.Init(Version, GitCommit, BuildDate, driver)
	})
}

// serveHTTP runs the API on ln until ctx is cancelled, then drains
// in-flight requests. It closes ln.
func serveHTTP(ctx context.Context, cfg config.Config, logger zerolog.Logger, ln net.Listener) error {
	logger.Info().Str("version", Version).Str("environment", cfg.Environment).Msg("starting eventcal server")

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version, nil)
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), tracingShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn().Err(err).Msg("tracing shutdown error")
		}
	}()

	repo, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error().Err(err).Msg("database close error")
		}
	}()
	logger.Info().Str("driver", repo.Driver()).Msg("event store ready")

	initMetrics(repo.Driver())

	loc, err := cfg.Calendar.Location()
	if err != nil {
		_ = ln.Close()
		return err
	}
	service := events.NewService(repo.Events(), events.WithLocation(loc))

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.Environment)
	defer limiter.Stop()

	server := &http.Server{
		Handler: api.NewRouter(api.Deps{
			Config:      cfg,
			Logger:      logger,
			Service:     service,
			Stats:       repo,
			Driver:      repo.Driver(),
			RateLimiter: limiter,
			Version:     Version,
			GitCommit:   GitCommit,
			BuildDate:   BuildDate,
		}),
		ReadTimeout:       10 * time.Second, // Total time to read request
		WriteTimeout:      30 * time.Second, // Total time to write response
		ReadHeaderTimeout: 5 * time.Second,  // Time to read headers
		MaxHeaderBytes:    1 << 20,          // 1 MB max header size
	}

	collector := metrics.NewDBCollector(repo)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", ln.Addr().String()).Msg("listening")
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		collector.Start(gctx, dbCollectorInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown error")
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
