package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/yairfalse/peili/config"
	"github.com/yairfalse/peili/inventory"
	"github.com/yairfalse/peili/orchestrator"
	"github.com/yairfalse/peili/providers/aws"
)

// loadConfig reads the config file and applies the log level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log.level %q: %w", cfg.Log.Level, err)
	}
	zerolog.SetGlobalLevel(level)

	return cfg, nil
}

// buildOrchestrator wires the store client, the AWS provider, and the
// reconciliation pipeline from config.
func buildOrchestrator(ctx context.Context, cfg *config.Config) (*orchestrator.Orchestrator, error) {
	client := inventory.NewClient(cfg.Inventory.URL, cfg.Inventory.Username, cfg.Inventory.Password)
	loader := inventory.NewLoader(client).WithPageSize(cfg.Sync.PageSize)
	writer := inventory.NewWriter(client).WithChunkSizes(cfg.Sync.BatchSize, cfg.Sync.StaleChunkSize)

	provider, err := aws.NewProvider(ctx, cfg.AWS.Region)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS provider: %w", err)
	}

	enumerators, err := provider.Registry().Select(cfg.AssetTypes())
	if err != nil {
		return nil, err
	}

	return orchestrator.New(client, loader, writer, enumerators), nil
}
