package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aussiebroadwan/tabsession/internal/session/app"
	"github.com/aussiebroadwan/tabsession/internal/session/store"
	"github.com/aussiebroadwan/tabsession/pkg/slogx"
	"github.com/spf13/cobra"
)

// cli carries what every subcommand needs once the root has parsed flags.
type cli struct {
	cfg    app.Config
	logger *slog.Logger

	backend   string
	storePath string
	logLevel  string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "tabsession",
		Short: "Authenticated session client for the BarTab services",
		Long: `tabsession keeps an access/refresh token pair for the BarTab issuer, renews it
when an API call is rejected and serves a browser-facing session host.
Configuration is read from the environment (and .env); see README for the variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&c.backend, "backend", "",
		"credential backend (memory, enclave, bbolt, sqlite, redis); defaults to SESSION_BACKEND, or bbolt for client commands")
	root.PersistentFlags().StringVar(&c.storePath, "store", "",
		"bbolt file or sqlite database path for the credential backend")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "",
		"log level (debug, info, warn, error); defaults to LOG_LEVEL")

	root.AddCommand(
		newServeCmd(c),
		newLoginCmd(c),
		newExchangeCmd(c),
		newStatusCmd(c),
		newCallCmd(c),
		newLogoutCmd(c),
	)
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}

	// Client commands persist the pair between invocations unless told
	// otherwise; the server honours SESSION_BACKEND as is.
	if cmd.Name() != "serve" && os.Getenv("SESSION_BACKEND") == "" {
		cfg.SessionBackend = store.BackendBolt
		cfg.SessionBoltPath = defaultBoltPath()
	}
	if c.backend != "" {
		cfg.SessionBackend = c.backend
	}
	if c.storePath != "" {
		cfg.SessionBoltPath = c.storePath
		cfg.SessionSQLiteFile = c.storePath
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	out := cmd.ErrOrStderr()
	c.cfg = cfg
	c.logger = slogx.New(slogx.Config{
		Service: "tabsession",
		Version: app.BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Output:  out,
	})
	return nil
}

// openSession builds the session components for one client command.
func (c *cli) openSession(ctx context.Context) (*app.Session, error) {
	if c.cfg.SessionBackend == store.BackendBolt {
		if err := os.MkdirAll(filepath.Dir(c.cfg.SessionBoltPath), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	return app.NewSession(ctx, c.cfg, nil, c.logger)
}

func defaultBoltPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "tabsession", "session.db")
}
