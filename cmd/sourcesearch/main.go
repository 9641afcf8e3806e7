// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the sourcesearch CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/datahackshaw/sourcesearch/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns override if set, the loaded secret for key
// otherwise, and finally the empty string.
func secretDefault(key, override string) string {
	if override != "" {
		return override
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the sourcesearch CLI.
var rootCmd = &cobra.Command{
	Use:   "sourcesearch",
	Short: "Search academic APIs and keep a local paper library",
	Long: `sourcesearch queries bibliographic APIs (CrossRef, Semantic Scholar) for
papers matching a free-text question, merges and deduplicates the results,
and maintains a local library of saved papers with full-text search.

Each operation is a subcommand: search runs a query against every source,
library manages saved papers, and cite prints a formatted citation for a
saved paper.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env supplements the environment; a missing file is fine.
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "warning: loading .env: %v\n", err)
		}

		s, err := secrets.Load(".secrets/", os.Stderr)
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
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./sourcesearch.yaml or ~/.config/sourcesearch/config.yaml)")
	rootCmd.PersistentFlags().String("library-dir", "", "directory for the paper library (default: ./library)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("sourcesearch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "sourcesearch"))
		}
	}

	viper.SetEnvPrefix("SOURCESEARCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
