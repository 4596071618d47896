// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-recommender CLI.
// Subcommands cover the pipeline (run, repair, status) and the
// recommendation surface (recommend).
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/internal/logging"
	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys and DSNs loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// logger is the process-wide structured logger, built after config load.
var logger *zap.Logger = zap.NewNop()

// secretDefault returns fallback when set, else the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the paper-recommender CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-recommender",
	Short: "RAG-based academic paper discovery and recommendation",
	Long: `paper-recommender ingests papers from academic APIs (arXiv, Semantic
Scholar), cleans and embeds them, persists them across metadata, vector,
graph, and blob stores, and serves ranked recommendations that fuse
semantic similarity with citation graph proximity.

The pipeline stages run as one orchestrated flow via the run subcommand;
recommend queries the built corpus; repair re-persists papers whose
stores drifted apart; status inspects the corpus and past runs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real deployments use config files or env vars.
		_ = godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}

		cfg := buildConfig()
		logger = logging.New(cfg.LogFile, cfg.Environment == "production")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paper-recommender.yaml or ~/.config/paper-recommender/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-recommender")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-recommender"))
		}
	}

	viper.SetEnvPrefix("PAPER_RECOMMENDER")
	viper.AutomaticEnv()

	setConfigDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
