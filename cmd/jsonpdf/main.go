// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the jsonpdf CLI.
// See docs/ARCHITECTURE § Pipeline Interface.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the jsonpdf CLI.
var rootCmd = &cobra.Command{
	Use:   "jsonpdf",
	Short: "Split a JSON document into N paginated PDF files",
	Long: `jsonpdf converts an arbitrary JSON document into a fixed number of
paginated PDF files, distributing the document's content evenly across them.
Arrays and objects are sliced in original order; scalar roots are replicated.
Short inputs are padded with duplicate chunks and long ones reduced by
merging, so the requested file count is always produced exactly.

Every run writes a plain-text summary and a run.yaml manifest into the
output directory, and appends to a local SQLite run ledger readable with
the history subcommand.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./jsonpdf.yaml or ~/.config/jsonpdf/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("jsonpdf")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "jsonpdf"))
		}
	}

	viper.SetEnvPrefix("JSONPDF")
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
