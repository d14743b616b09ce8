package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metric instruments for the sync engine, following OTEL naming conventions.
var (
	AssetsObserved metric.Int64Counter
	AssetsWritten  metric.Int64Counter
	AssetsStaled   metric.Int64Counter
	SyncErrors     metric.Int64Counter
	PassDuration   metric.Float64Histogram
	TokenRefreshes metric.Int64Counter
)

// initSyncMetrics initializes all metric instruments. Called from InitOTEL
// once the meter provider is in place.
func initSyncMetrics() error {
	var err error

	AssetsObserved, err = Meter.Int64Counter("peili.assets.observed.total",
		metric.WithDescription("Total assets observed during provider enumeration"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create assets_observed counter: %w", err)
	}

	AssetsWritten, err = Meter.Int64Counter("peili.assets.written.total",
		metric.WithDescription("Total assets written to the inventory store"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create assets_written counter: %w", err)
	}

	AssetsStaled, err = Meter.Int64Counter("peili.assets.staled.total",
		metric.WithDescription("Total assets marked stale in the inventory store"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create assets_staled counter: %w", err)
	}

	SyncErrors, err = Meter.Int64Counter("peili.sync.errors.total",
		metric.WithDescription("Total sync pass failures, by asset type"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create sync_errors counter: %w", err)
	}

	PassDuration, err = Meter.Float64Histogram("peili.pass.duration.seconds",
		metric.WithDescription("Duration of one asset type's sync pass"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create pass_duration histogram: %w", err)
	}

	TokenRefreshes, err = Meter.Int64Counter("peili.token.refreshes.total",
		metric.WithDescription("Total bearer token refreshes triggered by 401 responses"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create token_refreshes counter: %w", err)
	}

	return nil
}
