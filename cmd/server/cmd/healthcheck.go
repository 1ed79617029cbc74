package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Togather-Foundation/eventcal/internal/api/handlers"
	"github.com/spf13/cobra"
)

type healthcheckOptions struct {
	timeout time.Duration
	url     string
}

func newHealthcheckCommand() *cobra.Command {
	opts := &healthcheckOptions{}
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check if the server is healthy",
		Long: `Performs a health check by calling the /health endpoint.

This command is used by container HEALTHCHECK probes. It exits with code 0
if the server reports healthy, non-zero otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := opts.url
			if target == "" {
				target = defaultHealthURL()
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			health, err := performHealthCheck(ctx, target)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "status: %s\n", health.Status)
			return nil
		},
	}
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "request timeout")
	cmd.Flags().StringVar(&opts.url, "url", "", "health check URL (default: http://localhost:{SERVER_PORT}/health)")
	return cmd
}

func defaultHealthURL() string {
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "5000"
	}
	return fmt.Sprintf("http://localhost:%s/health", port)
}

// performHealthCheck calls url and returns the decoded report. Any status
// other than 200 with "healthy" is an error.
func performHealthCheck(ctx context.Context, url string) (*handlers.HealthCheck, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var health handlers.HealthCheck
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unhealthy: status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("parse health check response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &health, fmt.Errorf("unhealthy: status %d (%s)", resp.StatusCode, health.Status)
	}
	if health.Status != "healthy" {
		return &health, fmt.Errorf("unhealthy: status=%s", health.Status)
	}
	return &health, nil
}
