package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/Togather-Foundation/eventcal/internal/config"
	"github.com/Togather-Foundation/eventcal/internal/domain/events"
	"github.com/Togather-Foundation/eventcal/internal/mcp"
	"github.com/Togather-Foundation/eventcal/internal/storage"
	"github.com/Togather-Foundation/eventcal/internal/telemetry"
	"github.com/spf13/cobra"
)

type mcpOptions struct {
	transport string
	addr      string
}

func newMCPCommand(opts *rootOptions) *cobra.Command {
	mcpOpts := &mcpOptions{}
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the calendar as MCP tools",
		Long: `Serve the event operations to agents over the Model Context Protocol.

The stdio transport (default) speaks MCP on stdin/stdout, so all logs go to
stderr. The http transport serves Streamable HTTP on --addr.

Environment variables MCP_TRANSPORT, MCP_HOST and MCP_PORT set the defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config error: %w", err)
			}

			transport, err := mcpOpts.transportConfig()
			if err != nil {
				return err
			}
			return runMCP(cmd.Context(), cfg, transport)
		},
	}
	cmd.Flags().StringVar(&mcpOpts.transport, "transport", "", "MCP transport (stdio, http) (default: stdio)")
	cmd.Flags().StringVar(&mcpOpts.addr, "addr", "", "listen address for the http transport (default: 127.0.0.1:8080)")
	return cmd
}

func (o *mcpOptions) transportConfig() (mcp.TransportConfig, error) {
	cfg, err := mcp.LoadTransportConfig()
	if err != nil {
		return cfg, err
	}
	if o.transport != "" {
		if err := cfg.SetType(o.transport); err != nil {
			return cfg, err
		}
	}
	if o.addr != "" {
		host, portValue, err := net.SplitHostPort(o.addr)
		if err != nil {
			return cfg, fmt.Errorf("invalid --addr %q: %w", o.addr, err)
		}
		port, err := strconv.Atoi(portValue)
		if err != nil || port < 1 || port > 65535 {
			return cfg, fmt.Errorf("invalid --addr %q: port must be between 1 and 65535", o.addr)
		}
		if host != "" {
			cfg.Host = host
		}
		cfg.Port = port
	}
	return cfg, nil
}

func runMCP(ctx context.Context, cfg config.Config, transport mcp.TransportConfig) error {
	// stdout carries protocol messages for stdio; keep logs and spans off it.
	logger := config.NewLoggerTo(cfg.Logging, os.Stderr)
	logger.Info().
		Str("transport", string(transport.Type)).
		Str("version", Version).
		Msg("starting MCP server")

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version, os.Stderr)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	repo, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error().Err(err).Msg("database close error")
		}
	}()

	loc, err := cfg.Calendar.Location()
	if err != nil {
		return err
	}
	service := events.NewService(repo.Events(), events.WithLocation(loc))

	srv := mcp.NewServer(mcp.Config{
		Name:    "eventcal",
		Version: Version,
		Host:    cfg.Server.Host,
		Logger:  logger,
	}, service)

	if err := mcp.Serve(ctx, srv.MCPServer(), transport); err != nil {
		return err
	}
	logger.Info().Msg("MCP server stopped")
	return nil
}
