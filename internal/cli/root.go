// Package cli provides the command-line interface for chronicle.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/raphaelgruber/chronicle-go/internal/config"
	"github.com/raphaelgruber/chronicle-go/internal/db"
	"github.com/raphaelgruber/chronicle-go/internal/llm"
	"github.com/raphaelgruber/chronicle-go/internal/metrics"
	"github.com/raphaelgruber/chronicle-go/internal/service"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config, logger, and db client
	cfg       config.Config
	logger    *slog.Logger
	logsClose func() error
	dbClient  *db.Client
	collector *metrics.Collector

	// Lazy-initialized service
	svc *service.Service
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "chronicle",
	Short: "Timeline bootstrap for intellectual history",
	Long: `Chronicle turns prose about historical thinkers into reviewable timeline
data: people, influence connections, events, publications, and quotes, each
grounded in the source text.

A bootstrap run produces a session of candidates for review; edits are
applied as an overlay and the session commits to the canonical store as a
single transaction.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip DB connection for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		logger, logsClose = config.SetupLogger(cfg.LogFile, level)
		collector = metrics.NewCollector()

		ctx := context.Background()
		dbCfg := db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}

		var err error
		dbClient, err = db.NewClient(ctx, dbCfg, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		if err := dbClient.InitSchema(ctx); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
		if logsClose != nil {
			_ = logsClose()
		}
	},
}

// getService builds the service with lazy LLM initialization. A missing
// provider is not an error; previews then run heuristic-only.
func getService(ctx context.Context) (*service.Service, error) {
	if svc != nil {
		return svc, nil
	}

	model, err := llm.NewModel(ctx, cfg)
	if err != nil && !errors.Is(err, llm.ErrUnavailable) {
		return nil, fmt.Errorf("init model: %w", err)
	}
	if model == nil {
		logger.Info("no LLM provider configured, running heuristic-only")
		svc = service.New(dbClient, nil, collector, logger, cfg)
	} else {
		svc = service.New(dbClient, model, collector, logger, cfg)
	}
	return svc, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
