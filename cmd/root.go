package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/pidruchnyk/internal/config"
	"github.com/abhisek/pidruchnyk/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "pidruchnyk",
	Short: "Bilingual learning content service",
	Long: "Pidruchnyk serves subjects, books, topics and quizzes in Ukrainian and English,\n" +
		"tracks learner progress per level and drafts new content with an LLM.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("env-file", "", "Env file to load (default .env when present)")
	pf.String("db-driver", "", "Database driver: sqlite or postgres (overrides PIDRUCHNYK_DB_DRIVER)")
	pf.String("db", "", "Database DSN or SQLite path (overrides PIDRUCHNYK_DB)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-format", "", "Log format: json or text")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig builds the config from env file, environment and flags, in
// increasing priority.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return cfg, err
	}
	flag := func(name string, dst *string) {
		if v, _ := cmd.Flags().GetString(name); v != "" {
			*dst = v
		}
	}
	flag("db-driver", &cfg.DB.Driver)
	flag("db", &cfg.DB.DSN)
	flag("log-level", &cfg.LogLevel)
	flag("log-format", &cfg.LogFormat)
	return cfg, nil
}

// openStore loads the config and opens (and migrates) the database.
func openStore(cmd *cobra.Command) (*store.Store, config.Config, *slog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, cfg, nil, err
	}
	logger := cfg.NewLogger(os.Stderr)
	if cfg.DB.Driver == store.DriverSQLite {
		if err := store.EnsureDir(cfg.DB.DSN); err != nil {
			return nil, cfg, nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	s, err := store.Open(cmd.Context(), cfg.DB)
	if err != nil {
		return nil, cfg, nil, fmt.Errorf("open database: %w", err)
	}
	return s, cfg, logger, nil
}
