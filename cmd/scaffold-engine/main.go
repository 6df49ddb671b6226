// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the scaffold-engine CLI.
package main

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/scaffold-engine/internal/logging"
	"github.com/pdiddy/scaffold-engine/internal/secrets"
	"github.com/pdiddy/scaffold-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// secretsDir holds credentials, one file per key.
const secretsDir = ".secrets/"

var (
	// cfg is the resolved configuration, filled in PersistentPreRunE.
	cfg types.Config

	// loadedSecrets holds credentials loaded from .secrets/ at startup.
	loadedSecrets secrets.Set
)

// rootCmd is the base command for the scaffold-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "scaffold-engine",
	Short: "Generate boilerplate projects from placeholder templates",
	Long: `scaffold-engine renders starter projects (backend, frontend, database,
CI and container files) from a catalog of templates carrying {{NAME}}
placeholders. Every placeholder must resolve: a missing value fails the run
before any file is written.

Generated projects can be recorded in a local registry, published to GitLab
and built there, or served through an HTTP API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(secretsDir)
		if err != nil {
			return err
		}
		loadedSecrets = s

		c, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = c
		logging.Init(cfg.Log.Level, cfg.Log.Format)

		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			log.WithField("keys", keys).Debug("Loaded secrets")
		}
		if f := viper.ConfigFileUsed(); f != "" {
			log.WithField("file", f).Debug("Using config file")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./scaffold-engine.yaml or ~/.config/scaffold-engine/scaffold-engine.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("templates", "", "template catalog directory (default: embedded catalog)")
	rootCmd.PersistentFlags().String("data-dir", "", "registry directory (default: .scaffold-engine)")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("generator.templates_dir", rootCmd.PersistentFlags().Lookup("templates"))
	_ = viper.BindPFlag("registry.data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
}

func initConfig() {
	// .env values become process environment before viper reads it.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("scaffold-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "scaffold-engine"))
		}
	}

	viper.SetEnvPrefix("SCAFFOLD_ENGINE")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
