package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ahti-platform/ahti/internal/config"
	"github.com/ahti-platform/ahti/internal/db"
	"github.com/ahti-platform/ahti/internal/importer"
	"github.com/ahti-platform/ahti/internal/importer/myhelsinki"
	"github.com/ahti-platform/ahti/internal/importer/venepaikka"
)

func newImportCmd() *cobra.Command {
	var (
		single string
		list   bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Run the configured importers",
		Long: "Fetches records from the configured external providers and " +
			"reconciles them into the canonical feature catalog.",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			cfg, err := config.Load(configFlag)
			if err != nil {
				return err
			}

			gdb, err := db.Open(settings.Database)
			if err != nil {
				return err
			}

			registry := importer.NewRegistry()
			logger := slog.Default()
			placesClient := myhelsinki.NewClient(
				myhelsinki.DefaultBaseURL, cfg.Importers.MyHelsinkiPlaces.Language, settings.HTTPTimeout)
			if err := registry.Register(myhelsinki.NewImporter(
				gdb, cfg.Importers.MyHelsinkiPlaces, placesClient, logger)); err != nil {
				return err
			}
			harborsClient := venepaikka.NewClient(venepaikka.DefaultURL, settings.HTTPTimeout)
			if err := registry.Register(venepaikka.NewImporter(
				gdb, cfg.Importers.VenepaikkaHarbors, harborsClient, logger)); err != nil {
				return err
			}

			if list {
				for _, id := range registry.Identifiers() {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			}

			runner := importer.NewRunner(registry, logger)

			var identifiers []string
			if single != "" {
				identifiers = []string{single}
			}
			summary, err := runner.Run(cmd.Context(), identifiers...)
			if err != nil {
				return err
			}

			for _, res := range summary.Results {
				status := "ok"
				if res.Err != nil {
					status = "failed: " + res.Err.Error()
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d features in %s (%s)\n",
					res.Identifier, res.FeaturesImported, res.Duration.Round(time.Millisecond), status)
			}

			if failed := summary.Failed(); len(failed) > 0 {
				return fmt.Errorf("%d of %d importers failed", len(failed), len(summary.Results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&single, "single", "", "run only the named importer")
	cmd.Flags().BoolVar(&list, "list", false, "list the configured importers and exit")

	return cmd
}
