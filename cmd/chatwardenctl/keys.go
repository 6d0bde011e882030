package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/chatwarden/chatwarden-backend/pkg/cipher"
	"github.com/chatwarden/chatwarden-backend/pkg/jwt"
	"github.com/spf13/cobra"
)

func keygenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Print a new base64 ENCRYPTION_KEY for the audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := cipher.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}

func tokenCommand() *cobra.Command {
	var (
		subject   string
		transport string
		ttl       time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a service token for a chat transport",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Security.ServiceTokenSecret == "" {
				return errors.New("SERVICE_TOKEN_SECRET is not set")
			}
			token, err := jwt.NewManager(cfg.Security.ServiceTokenSecret).Issue(subject, transport, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "bot", "token subject")
	cmd.Flags().StringVar(&transport, "transport", "telegram", "transport name")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime, 0 never expires")
	return cmd
}
