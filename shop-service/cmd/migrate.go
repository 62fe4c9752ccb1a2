package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcadelacruz/braceurself/shop-service/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.DB.Backend != "postgres" {
			return fmt.Errorf("migrate needs db.backend=postgres, got %q", cfg.DB.Backend)
		}

		creds := credentials(cfg)
		repo, err := repository.NewRepository(cmd.Context(), creds)
		if err != nil {
			return err
		}
		defer repo.Close()

		if err := repo.RunMigrations(creds); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}
