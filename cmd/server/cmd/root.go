package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Togather-Foundation/eventcal/internal/config"
	"github.com/spf13/cobra"
)

// rootOptions holds the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

// newRootCommand builds the command tree. Each call returns fresh flag
// state.
func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	serve := &serveOptions{}

	rootCmd := &cobra.Command{
		Use:   "server [host:port]",
		Short: "eventcal - a small event calendar API",
		Long: `eventcal stores dated calendar events and serves them over a JSON HTTP API.

Events can be created, listed (optionally between two dates), listed for today,
fetched by id and deleted. The store is SQLite by default and PostgreSQL when
DATABASE_URL starts with postgres://.

Without a subcommand the HTTP server is started. An optional host:port argument
overrides the configured listen address.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		// Run the serve command by default if no subcommand is specified
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts, serve, args)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file applied over environment variables")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (json, console) (default: json)")
	serve.bindFlags(rootCmd)

	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newHealthcheckCommand())
	rootCmd.AddCommand(newMCPCommand(opts))

	return rootCmd
}

// Execute runs the root command until it returns or the process is
// interrupted. It is called by main.main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads env vars, then the --config file, then the logging flags.
// Callers apply their own flags and validate.
func loadConfig(opts *rootOptions) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	if opts.configPath != "" {
		if err := config.LoadFile(opts.configPath, &cfg); err != nil {
			return config.Config{}, err
		}
	}

	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Logging.Format = opts.logFormat
	}

	return cfg, nil
}
