package cli

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"condor-sentinel/internal/config"
	"condor-sentinel/internal/ledger"
	"condor-sentinel/internal/provider"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Provider provider.SnapshotProvider
	Repo     ledger.Repository
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if cfg.Provider.QuoteURL != "" {
		app.Provider = provider.NewHTTPProvider(cfg.Provider)
		logger.Debug().Str("quote_url", cfg.Provider.QuoteURL).Msg("HTTP provider initialized")
	} else {
		app.Provider = provider.NewSimProvider(5100.0, time.Now().UnixNano())
		logger.Debug().Msg("No quote URL configured, using simulated provider")
	}

	if cfg.Storage.DatabasePath != "" {
		repo, err := ledger.NewSQLiteRepository(cfg.Storage.DatabasePath)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to open ledger database, using in-memory store")
			app.Repo = ledger.NewMemoryRepository()
		} else {
			app.Repo = repo
		}
	} else {
		app.Repo = ledger.NewMemoryRepository()
	}

	rootCmd := &cobra.Command{
		Use:     "condor",
		Short:   "0DTE iron condor entry sentinel",
		Long:    "condor evaluates market conditions for 0DTE iron condor entries,\nmonitors them continuously, and tracks two shadow portfolios.",
		Version: Version,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(newEvaluateCmd(app))
	rootCmd.AddCommand(newBacktestCmd(app))
	rootCmd.AddCommand(newMonitorCmd(app))
	rootCmd.AddCommand(newPortfolioCmd(app))

	return rootCmd
}
