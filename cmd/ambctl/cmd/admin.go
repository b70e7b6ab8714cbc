package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"campusreach/internal/engagement"
	"campusreach/internal/records"
)

var (
	seedAdminCmd = &cobra.Command{
		Use:   "seed-admin",
		Short: "Create an admin account if it does not exist",
		Long: `Creates an administrator in the Postgres store. Admins cannot be created
over HTTP. An existing admin with the same email is left unchanged.`,
		RunE: runSeedAdmin,
	}

	seedEmail    string
	seedPassword string
)

func init() {
	seedAdminCmd.Flags().StringVar(&seedEmail, "email", "", "admin email (required)")
	seedAdminCmd.Flags().StringVar(&seedPassword, "password", "", "admin password, at least 8 characters (default: SEED_ADMIN_PASSWORD)")
	_ = seedAdminCmd.MarkFlagRequired("email")
}

func runSeedAdmin(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	password := seedPassword
	if password == "" {
		password = cfg.SeedAdminPassword
	}
	if password == "" {
		return errors.New("--password or SEED_ADMIN_PASSWORD is required")
	}

	pg, err := openDatabase(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = pg.Close() }()

	svc := engagement.NewService(engagement.Deps{Store: records.NewRepository(pg.DB)})
	created, err := svc.EnsureAdmin(cmd.Context(), engagement.AdminInput{Email: seedEmail, Password: password})
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(cmd.OutOrStdout(), "created admin %s\n", seedEmail)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "admin %s already exists\n", seedEmail)
	}
	return nil
}
