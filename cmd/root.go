package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/wellnesswave/internal/config"
	"github.com/abhisek/wellnesswave/internal/logging"
	"github.com/abhisek/wellnesswave/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "wellnesswave",
	Short: "Anxiety and depression screening service",
	Long: "wellnesswave trains tree-ensemble classifiers on mental health survey data " +
		"and serves anxiety and depression screenings over HTTP.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadEnvFile()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "SQLite path or MongoDB URI (overrides WELLNESSWAVE_DB and MONGO_URI)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides WELLNESSWAVE_LOG_LEVEL)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: json or console (overrides WELLNESSWAVE_LOG_FORMAT)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(importanceCmd)
	rootCmd.AddCommand(assessmentsCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database location using --db flag (highest
// priority), then WELLNESSWAVE_DB / MONGO_URI, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// loadConfig reads the environment and applies persistent flag overrides.
func loadConfig(cmd *cobra.Command) config.Config {
	cfg := config.ConfigFromEnv()
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.DB = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.LogFormat = v
	}
	return cfg
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	return logging.New(cfg.LogLevel, cfg.LogFormat)
}
