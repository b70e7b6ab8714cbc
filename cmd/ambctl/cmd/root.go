package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"campusreach/internal/config"
	"campusreach/internal/store"
)

var (
	logLevel  string
	logFormat string

	rootCmd = &cobra.Command{
		Use:   "ambctl",
		Short: "Operator tooling for the campusreach API",
		Long: `ambctl runs operator tasks against the campusreach stores:
database migrations, admin account seeding and health checks.

Connection settings come from the same environment variables as the API.`,
		SilenceUsage: true,
	}
)

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error) (default: LOG_LEVEL or info)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, console) (default: console)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedAdminCmd)
	rootCmd.AddCommand(healthcheckCmd)
}

// loadConfig reads the environment and installs a logger honouring the
// global flags.
func loadConfig() config.App {
	cfg := config.Load()
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	cfg.Logging.Format = "console"
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	config.NewLogger(cfg.Logging)
	return cfg
}

// openDatabase opens the pool and fails unless Postgres answers. The pool is
// closed again on failure.
func openDatabase(ctx context.Context, url string) (*store.Postgres, error) {
	pg, err := store.OpenPostgres(url, store.PostgresOptions{MaxOpenConns: 2})
	if err != nil {
		return nil, err
	}
	if err := pg.Ping(ctx); err != nil {
		_ = pg.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return pg, nil
}
