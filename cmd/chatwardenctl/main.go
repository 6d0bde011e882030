package main

import (
	"fmt"
	"os"

	"github.com/chatwarden/chatwarden-backend/internal/config"
	"github.com/chatwarden/chatwarden-backend/pkg/database"
	pkglogger "github.com/chatwarden/chatwarden-backend/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const programName = "chatwardenctl"

var globalFlags = struct {
	configFile string
	env        string
}{}

// loadConfig reads the same config chain as the API server
func loadConfig() (*config.Config, error) {
	if _, err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	env := globalFlags.env
	if env == "" {
		env = os.Getenv("APP_ENV")
	}
	if env == "" {
		env = "development"
	}
	pkglogger.InitStructured(env)

	path := globalFlags.configFile
	if path == "" {
		path = fmt.Sprintf("configs/config.%s.yaml", env)
	}
	return config.Load(path)
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg.Database.Options())
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Maintenance commands for the chatwarden backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&globalFlags.configFile, "config", "c", "", "config file (default configs/config.<env>.yaml)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.env, "env", "", "environment name (default $APP_ENV)")

	rootCmd.AddCommand(
		migrateCommand(),
		purgeAuditCommand(),
		keygenCommand(),
		tokenCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}
