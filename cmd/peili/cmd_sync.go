package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yairfalse/peili/orchestrator"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one synchronization pass and exit",
	Long: `Run a single synchronization pass across every configured asset type.

Each type is loaded from the inventory store, enumerated from the provider,
reconciled, and written back. The command exits non-zero if any type's pass
failed, so it slots into cron jobs and CI checks.`,
	Example: `  peili sync                        # Sync with ./peili.yaml
  peili sync --config /etc/peili.yaml
  peili sync --type network --type compute-instance`,
	RunE: runSync,
}

var syncTypes []string

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringArrayVar(&syncTypes, "type", nil, "Asset types to sync (repeatable, default all configured)")
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(syncTypes) > 0 {
		cfg.Sync.Types = syncTypes
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	o, err := buildOrchestrator(ctx, cfg)
	if err != nil {
		return err
	}

	report, err := o.Run(ctx)
	if err != nil {
		return err
	}

	printReport(cmd, report)

	if report.Failed() {
		return fmt.Errorf("sync completed with failures")
	}
	return nil
}

func printReport(cmd *cobra.Command, report orchestrator.SyncReport) {
	for _, pass := range report.Passes {
		if pass.Failed() {
			cmd.Printf("  %-22s FAILED: %v\n", pass.AssetType, pass.Err)
			continue
		}
		cmd.Printf("  %-22s observed=%d written=%d staled=%d (%s)\n",
			pass.AssetType, pass.Observed, pass.Written, pass.Staled, pass.Duration.Round(time.Millisecond))
	}

	observed, written, staled := report.Totals()
	cmd.Printf("Synced %d types in %s: observed=%d written=%d staled=%d\n",
		len(report.Passes), report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond),
		observed, written, staled)
}
