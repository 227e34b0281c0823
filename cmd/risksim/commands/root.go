package commands

import (
	"context"
	"fmt"

	"risksim/internal/config"
	"risksim/internal/logging"
	"risksim/internal/mcp"
	"risksim/internal/results"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
	store   *results.Store
)

var rootCmd = &cobra.Command{
	Use:   "risksim",
	Short: "risksim is a Monte Carlo loss simulation MCP server",
	Long: `A specialized MCP server that estimates the annual financial loss of a risk scenario
(EAL, percentiles, VaR95, threshold exceedance and a loss histogram) by Monte Carlo simulation
of event frequency and per-event direct and indirect cost.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if err := logging.Init(logging.Options{Verbose: verbose, Dir: cfg.LogDir}); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}

		store = results.NewStore()
		if err := store.Load(cfg.CacheDir); err != nil {
			log.Warn().Err(err).Msg("Starting with an empty result store")
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("risksim starting")
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(cfg, store, Version)
		if err != nil {
			return err
		}
		return server.Run(cmd.Context())
	},
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildDate)
}
