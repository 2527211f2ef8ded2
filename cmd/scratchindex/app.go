package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/scratchindex/internal/analysis"
	"github.com/nao1215/scratchindex/internal/config"
	"github.com/nao1215/scratchindex/internal/database"
	"github.com/nao1215/scratchindex/internal/imaging"
	"github.com/nao1215/scratchindex/internal/log"
	"github.com/nao1215/scratchindex/internal/scratch"
)

// app bundles what every data command needs.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *database.ExperimentDB
	orch   *analysis.Orchestrator
}

// newApp loads the configuration, opens the database and builds the
// orchestrator. Callers must call close.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("database opened", "path", db.Path())

	decoder := imaging.NewDecoder(
		imaging.WithMaxBytes(cfg.MaxImageBytes),
		imaging.WithFormats(cfg.Formats...),
	)
	calc := scratch.NewCalculator(scratch.WithNormalization(cfg.NormalizationMode()))

	orch := analysis.New(db, db,
		analysis.WithLogger(logger),
		analysis.WithDecoder(decoder),
		analysis.WithCalculator(calc),
		analysis.WithConcurrency(cfg.Concurrency),
		analysis.WithRecomputeTimeout(cfg.RecomputeTimeout),
	)

	return &app{cfg: cfg, logger: logger, db: db, orch: orch}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", "error", err)
	}
}

// buildConfig layers CLI flags over the file and environment settings.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// signalContext returns a context cancelled on interrupt or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
