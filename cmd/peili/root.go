package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	configPath string

	rootCmd = &cobra.Command{
		Use:   "peili",
		Short: "Asset Inventory Synchronization Engine",
		Long: `Peili - Asset Inventory Synchronization Engine

Peili mirrors your cloud estate into an inventory store. It enumerates
resources across providers, reconciles them against what the store already
holds, and keeps the store current: new and changed assets are written,
disappeared assets are marked stale.`,
		Version: version,
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(`Peili {{.Version}} - Asset Inventory Synchronization Engine
`)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "peili.yaml", "Path to config file")
}
