// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the match-engine CLI.
// Each reconciliation concern is a subcommand: run executes a matching
// pass, decide records manual verdicts, conflicts and exclusions manage
// the ledger, sessions and stats report on it.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/match-engine/internal/decision"
	"github.com/pdiddy/match-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the match-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "match-engine",
	Short: "Reconcile sell and buy catalogs into a one-to-one mapping",
	Long: `match-engine reconciles two independently-numbered catalogs of the same
items: a sell-side collection export and a buy-side buylist. Records are
matched on their descriptive text, high-confidence pairs are accepted
automatically, and everything else is surfaced for manual review.

Decisions, conflicts, and exclusions persist in a local SQLite ledger, so
repeat runs only surface what is still undecided.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./match-engine.yaml or ~/.config/match-engine/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "decision database file (default: match-engine.db)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("match-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "match-engine"))
		}
	}

	viper.SetEnvPrefix("MATCH_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// engineConfig assembles the run configuration: defaults, then config
// file values, then flags.
func engineConfig(cmd *cobra.Command) types.EngineConfig {
	cfg := types.DefaultEngineConfig()

	if v := viper.GetInt("similarity.max_features"); v > 0 {
		cfg.Similarity.MaxFeatures = v
	}
	if v := viper.GetInt("similarity.min_doc_freq"); v > 0 {
		cfg.Similarity.MinDocFreq = v
	}
	if v := viper.GetFloat64("similarity.max_doc_share"); v > 0 {
		cfg.Similarity.MaxDocShare = v
	}
	if v := viper.GetInt("matcher.top_k"); v > 0 {
		cfg.Matcher.TopK = v
	}
	if v := viper.GetFloat64("matcher.similarity_floor"); v > 0 {
		cfg.Matcher.SimilarityFloor = v
	}
	if v := viper.GetFloat64("matcher.auto_accept_threshold"); v > 0 {
		cfg.Matcher.AutoAcceptThreshold = v
	}
	if viper.IsSet("matcher.skip_decided_items") {
		cfg.Matcher.SkipDecidedItems = viper.GetBool("matcher.skip_decided_items")
	}
	if v := viper.GetString("store.path"); v != "" {
		cfg.Store.Path = v
	}

	if db, _ := rootCmd.PersistentFlags().GetString("db"); db != "" {
		cfg.Store.Path = db
	}

	if cmd.Flags().Changed("top-k") {
		cfg.Matcher.TopK, _ = cmd.Flags().GetInt("top-k")
	}
	if cmd.Flags().Changed("floor") {
		cfg.Matcher.SimilarityFloor, _ = cmd.Flags().GetFloat64("floor")
	}
	if cmd.Flags().Changed("auto-accept") {
		cfg.Matcher.AutoAcceptThreshold, _ = cmd.Flags().GetFloat64("auto-accept")
	}
	if cmd.Flags().Changed("skip-decided") {
		cfg.Matcher.SkipDecidedItems, _ = cmd.Flags().GetBool("skip-decided")
	}

	return cfg.Normalized()
}

// openStore opens the decision database for the resolved configuration.
func openStore(cmd *cobra.Command) (*decision.Store, error) {
	cfg := engineConfig(cmd)
	return decision.Open(cfg.Store)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
