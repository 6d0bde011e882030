package main

import (
	"fmt"

	"github.com/chatwarden/chatwarden-backend/internal/migration"
	"github.com/chatwarden/chatwarden-backend/pkg/clock"
	"github.com/spf13/cobra"
)

func migrateCommand() *cobra.Command {
	var skipOwner bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update tables and seed the configured owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			if err := migration.Run(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "tables migrated")

			if skipOwner {
				return nil
			}
			seeded, err := migration.SeedOwner(db, cfg.Moderation.OwnerID, cfg.Moderation.OwnerNick, clock.Real().Now())
			if err != nil {
				return err
			}
			if seeded {
				fmt.Fprintf(cmd.OutOrStdout(), "owner %d seeded\n", cfg.Moderation.OwnerID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipOwner, "skip-owner", false, "do not seed OWNER_ID")
	return cmd
}
