package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sakif/userlocale/internal/config"
	"github.com/sakif/userlocale/internal/server"
)

// cli carries what every subcommand needs once the root has loaded it.
type cli struct {
	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:          "userlocale",
		Short:        "Per-user display language preferences",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.LogLevel, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = logger
			return nil
		},
	}

	root.AddCommand(
		c.serveCmd(),
		c.localesCmd(),
		c.preferenceCmd(),
		c.userCmd(),
	)
	return root
}

// newLogger builds the text logger at the configured level.
func newLogger(level string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// components opens the database and builds the services.
func (c *cli) components(ctx context.Context) (*server.Components, error) {
	if err := ensureDataDir(c.cfg.DBPath); err != nil {
		return nil, err
	}
	return server.NewComponents(ctx, c.cfg, c.logger)
}

// ensureDataDir creates the database's parent directory, like mkdir -p.
func ensureDataDir(dbPath string) error {
	if dbPath == ":memory:" {
		return nil
	}
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating database directory %s: %w", dir, err)
	}
	return nil
}

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := ensureDataDir(c.cfg.DBPath); err != nil {
				return err
			}
			srv, err := server.New(cmd.Context(), c.cfg, c.logger)
			if err != nil {
				return err
			}
			// Start blocks until SIGINT or SIGTERM.
			return srv.Start()
		},
	}
}
