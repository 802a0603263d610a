package main

import (
	"github.com/spf13/cobra"

	"github.com/KarenYumi/OrganizationApp-Backend/internal/server"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API and block until SIGINT or SIGTERM.

Examples:
  # Start with configuration from the environment
  server serve

  # Start on another port with a throwaway data directory
  server serve --port 9090 --data-dir /tmp/org-data`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateSecret(); err != nil {
				return err
			}
			if port != 0 {
				cfg.Port = port
			}

			logger := newLogger(cfg, cmd.ErrOrStderr())
			srv, err := server.New(cfg, logger)
			if err != nil {
				return err
			}
			return srv.Start()
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides PORT)")

	return cmd
}
