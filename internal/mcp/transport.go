// Package mcp serves the event calendar over the Model Context Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
)

// TransportType represents the available MCP transport protocols.
type TransportType string

const (
	// TransportStdio reads requests from stdin and writes responses to stdout.
	TransportStdio TransportType = "stdio"

	// TransportHTTP uses Streamable HTTP.
	TransportHTTP TransportType = "http"
)

const (
	DefaultTransport = TransportStdio
	DefaultPort      = 8080

	// GracefulShutdownTimeout bounds how long in-flight HTTP requests may run
	// after cancellation.
	GracefulShutdownTimeout = 30 * time.Second
)

type TransportConfig struct {
	Type TransportType
	// Host and Port are ignored for stdio.
	Host string
	Port int
}

// LoadTransportConfig reads MCP_TRANSPORT, MCP_HOST and MCP_PORT.
func LoadTransportConfig() (TransportConfig, error) {
	cfg := TransportConfig{
		Type: DefaultTransport,
		Host: "127.0.0.1",
		Port: DefaultPort,
	}

	if transportEnv := os.Getenv("MCP_TRANSPORT"); transportEnv != "" {
		if err := cfg.SetType(transportEnv); err != nil {
			return cfg, err
		}
	}

	if portEnv := os.Getenv("MCP_PORT"); portEnv != "" {
		port, err := strconv.Atoi(portEnv)
		if err != nil {
			return cfg, fmt.Errorf("invalid MCP_PORT value: %s (must be a number)", portEnv)
		}
		if port < 1 || port > 65535 {
			return cfg, fmt.Errorf("invalid MCP_PORT value: %d (must be between 1 and 65535)", port)
		}
		cfg.Port = port
	}

	if hostEnv := os.Getenv("MCP_HOST"); hostEnv != "" {
		cfg.Host = hostEnv
	}

	return cfg, nil
}

// SetType validates and sets the transport type.
func (c *TransportConfig) SetType(value string) error {
	transport := TransportType(value)
	switch transport {
	case TransportStdio, TransportHTTP:
		c.Type = transport
		return nil
	default:
		return fmt.Errorf("invalid MCP transport: %s (must be stdio or http)", value)
	}
}

func (c TransportConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Serve starts the MCP server with the configured transport and blocks
// until ctx is cancelled or the transport fails.
func Serve(ctx context.Context, mcpServer *server.MCPServer, cfg TransportConfig) error {
	switch cfg.Type {
	case TransportStdio:
		return ServeStdio(ctx, mcpServer, os.Stdin, os.Stdout)
	case TransportHTTP:
		return ServeHTTP(ctx, mcpServer, cfg)
	default:
		return fmt.Errorf("unsupported transport type: %s", cfg.Type)
	}
}

// ServeStdio serves a single client over in and out. Logs must never go to
// out, since it carries protocol messages.
func ServeStdio(ctx context.Context, mcpServer *server.MCPServer, in io.Reader, out io.Writer) error {
	log.Info().Str("transport", string(TransportStdio)).Msg("starting MCP server")

	err := server.NewStdioServer(mcpServer).Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server error: %w", err)
	}
	return nil
}

func ServeHTTP(ctx context.Context, mcpServer *server.MCPServer, cfg TransportConfig) error {
	addr := cfg.Addr()
	log.Info().
		Str("transport", string(TransportHTTP)).
		Str("addr", addr).
		Msg("starting MCP server")

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.NewStreamableHTTPServer(mcpServer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown error: %w", err)
		}
		log.Info().Msg("MCP HTTP server shutdown complete")
		return nil
	case err := <-errCh:
		return err
	}
}
