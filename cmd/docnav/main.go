package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dgallion1/docnav/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "docnav",
	Short: "Inspect writeups the way the docnav server sees them",
	Long: `docnav extracts the navigable sections of a writeup and estimates its
reading time, using the same extractors and settings as the docnav server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "docnav.yml", "config file path")
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
