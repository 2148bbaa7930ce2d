package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ahti-platform/ahti/internal/config"
)

var version = "dev"

var (
	settingsFlag string
	configFlag   string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ahti",
		Short:   "Ahti feature catalog importer",
		Long:    "Imports geographic features from external providers into the canonical catalog.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Optional; deployments without a .env file just skip it.
			_ = godotenv.Load()
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&settingsFlag, "settings", "", "path to process settings file")
	cmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to importer config override file")

	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newMigrateCmd())

	return cmd
}

// loadSettings reads process settings and installs the default logger
// at the configured level.
func loadSettings() (*config.Settings, error) {
	settings, err := config.LoadSettings(settingsFlag)
	if err != nil {
		return nil, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(settings.LogLevel)); err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", settings.LogLevel, err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	return settings, nil
}
