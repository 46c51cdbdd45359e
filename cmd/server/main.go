// cmd/server/main.go
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/javajoker/lease-backend/internal/config"
	"github.com/javajoker/lease-backend/internal/database"
	"github.com/javajoker/lease-backend/internal/i18n"
	"github.com/javajoker/lease-backend/internal/utils"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "lease-server",
		Short:        "Lease management back office",
		SilenceUsage: true,
	}
	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newSeedCommand(),
		newSweepCommand(),
	)
	return root
}

// bootstrap loads configuration and prepares logging, translations and token signing.
func bootstrap() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setupLogging(cfg)

	if err := i18n.Initialize(); err != nil {
		return nil, err
	}
	utils.SetJWTSecret(cfg.JWT.SecretKey)
	return cfg, nil
}

func setupLogging(cfg *config.Config) {
	if cfg.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// openDatabase connects and migrates.
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(db); err != nil {
		database.Close(db)
		return nil, err
	}
	return db, nil
}
