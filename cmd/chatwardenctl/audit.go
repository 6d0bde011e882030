package main

import (
	"fmt"
	"time"

	"github.com/chatwarden/chatwarden-backend/internal/repository"
	"github.com/chatwarden/chatwarden-backend/internal/service"
	"github.com/chatwarden/chatwarden-backend/pkg/cipher"
	"github.com/chatwarden/chatwarden-backend/pkg/clock"
	"github.com/spf13/cobra"
)

func purgeAuditCommand() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "purge-audit",
		Short: "Delete audit entries older than --days (default AUDIT_RETENTION_DAYS)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if days <= 0 {
				days = cfg.Audit.RetentionDays
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}

			// purging never decrypts, any key will do
			key, err := cipher.GenerateKey()
			if err != nil {
				return err
			}
			c, err := cipher.NewFromBase64(key)
			if err != nil {
				return err
			}

			age := time.Duration(days) * 24 * time.Hour
			audit := service.NewAuditLog(repository.NewAuditRepository(db), c, clock.Real(), age)
			n, err := audit.PurgeOlderThan(cmd.Context(), age)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d audit entries older than %d days\n", n, days)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "retention in days")
	return cmd
}
