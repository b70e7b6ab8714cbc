package cmd

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"campusreach/internal/store"
)

var (
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
	}

	migrateUpCmd = &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE:  runMigrateUp,
	}

	migrateStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		RunE:  runMigrateStatus,
	}
)

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	pg, err := openDatabase(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = pg.Close() }()

	if err := store.Migrate(cmd.Context(), pg.DB); err != nil {
		return err
	}
	log.Info().Msg("migrations applied")
	return nil
}

func runMigrateStatus(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	pg, err := openDatabase(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = pg.Close() }()

	statuses, err := store.MigrationStatus(cmd.Context(), pg.DB)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, s := range statuses {
		applied := "pending"
		if !s.AppliedAt.IsZero() {
			applied = s.AppliedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(out, "%-8d %-30s %s\n", s.Source.Version, s.Source.Path, applied)
	}
	return nil
}
