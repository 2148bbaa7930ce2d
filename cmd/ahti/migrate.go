package main

import (
	"github.com/spf13/cobra"

	"github.com/ahti-platform/ahti/internal/db"
	"github.com/ahti-platform/ahti/internal/feature"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the catalog schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			gdb, err := db.Open(settings.Database)
			if err != nil {
				return err
			}
			return feature.NewStore(gdb).AutoMigrate()
		},
	}
}
