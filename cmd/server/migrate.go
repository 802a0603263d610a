package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KarenYumi/OrganizationApp-Backend/internal/server"
	"github.com/KarenYumi/OrganizationApp-Backend/internal/service"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-events",
		Short: "Convert legacy product fields of stored events",
		Long: `Rewrite every event whose products are still stored in a legacy shape
(free text, an encoded JSON string or the old "products" field) into the
current product list. The events file is left untouched when nothing needs
migrating. Safe to run while the server is stopped; running it twice is a
no-op.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())

			cols, err := server.OpenCollections(cfg.DataDir, logger)
			if err != nil {
				return err
			}
			n, err := service.NewEventService(cols.Events, logger).MigrateLegacy(cmd.Context())
			if err != nil {
				return fmt.Errorf("migrating events: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d events in %s.\n", n, cols.Events.Path())
			return nil
		},
	}
}
