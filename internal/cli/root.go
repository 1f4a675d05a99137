// Package cli implements the coach terminal client.
package cli

import (
	"context"
	"fmt"
	"os"

	"seocoach-backend/internal/app"
	"seocoach-backend/internal/backends"
	"seocoach-backend/internal/config"
	"seocoach-backend/internal/id"
	"seocoach-backend/internal/logger"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

// AppFactory builds the services a command runs against.
type AppFactory func(ctx context.Context) (*app.App, error)

// DefaultAppFactory loads configuration from the environment, logs to
// stderr and opens the configured backends.
func DefaultAppFactory(ctx context.Context) (*app.App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.SetupWriter(cfg, os.Stderr)
	if err := id.Init(2); err != nil {
		return nil, fmt.Errorf("failed to initialize id generator: %w", err)
	}
	return app.New(ctx, cfg, backends.Default()), nil
}

type runner struct {
	factory AppFactory
	app     *app.App
}

// NewRootCmd returns the coach command tree.
func NewRootCmd(factory AppFactory) *cobra.Command {
	r := &runner{factory: factory}

	root := &cobra.Command{
		Use:   "coach",
		Short: "Ask an SEO coach grounded in your knowledge base",
		Long: `coach answers SEO questions from a knowledge base and keeps per-session history.

Quick Start:
  coach seed kb.yaml                     # Load documents
  coach chat                             # Start a new session
  coach chat --session <id>              # Resume a session
  coach search "canonical tags"          # Inspect retrieval`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.factory(cmd.Context())
			if err != nil {
				return err
			}
			r.app = a
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if r.app == nil {
				return nil
			}
			return r.app.Close()
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(
		newChatCmd(r),
		newHistoryCmd(r),
		newSearchCmd(r),
		newSeedCmd(r),
	)
	return root
}

// Execute runs the coach CLI.
func Execute() {
	cmd := NewRootCmd(DefaultAppFactory)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
