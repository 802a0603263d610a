package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/KarenYumi/OrganizationApp-Backend/internal/config"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	envFile string
	dataDir string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "server",
		Short: "OrganizationApp backend: events, products and accounts over JSON files",
		Long: `OrganizationApp backend serves the events, product catalogue and user
accounts of the organization app. All state lives in JSON files under DATA_DIR.

Configuration is read from the environment (optionally seeded from --env-file):
PORT, DATA_DIR, JWT_SECRET, TOKEN_TTL, BCRYPT_COST, REQUIRE_AUTH,
AUTH_RATE_LIMIT_RPS, AUTH_RATE_LIMIT_BURST, LOG_LEVEL, LOG_FORMAT,
CORS_ALLOWED_ORIGIN.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment (missing file is ignored)")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "directory of the JSON data files (overrides DATA_DIR)")

	serve := newServeCommand(opts)
	root.AddCommand(serve)
	root.AddCommand(newMigrateCommand(opts))

	// Run serve by default if no subcommand is given.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

// load reads the configuration and applies the shared flag overrides.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.envFile)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if o.dataDir != "" {
		cfg.DataDir = o.dataDir
	}
	return cfg, nil
}

// newLogger builds the process logger: text for humans, JSON for log
// shippers. cfg has already been validated, so the level parses.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level, _ := cfg.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler = slog.NewTextHandler(w, opts)
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h)
}
