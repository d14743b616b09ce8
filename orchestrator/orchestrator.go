// Package orchestrator drives one sync run: authenticate against the store,
// then for each asset type load the stored snapshot, enumerate the provider,
// reconcile the two, and push writes and stale markings. Types sync
// sequentially; a failure in one type never blocks the rest.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/yairfalse/peili/providers"
	"github.com/yairfalse/peili/reconciler"
	"github.com/yairfalse/peili/telemetry"
	"github.com/yairfalse/peili/types"
)

// Orchestrator runs sync passes over a fixed set of enumerators.
type Orchestrator struct {
	auth        Authenticator
	loader      SnapshotLoader
	writer      BatchWriter
	enumerators []providers.Enumerator
	logger      *telemetry.Logger
}

// New creates an orchestrator syncing the given enumerators in order.
func New(auth Authenticator, loader SnapshotLoader, writer BatchWriter, enumerators []providers.Enumerator) *Orchestrator {
	return &Orchestrator{
		auth:        auth,
		loader:      loader,
		writer:      writer,
		enumerators: enumerators,
		logger:      telemetry.NewLogger("orchestrator"),
	}
}

// Run executes one full sync. An authentication failure is fatal: no pass
// runs without a valid session. After that, each type's pass is isolated;
// its error lands in the report and the run moves on. Cancellation is
// checked between passes so a stop request does not strand mid-run.
func (o *Orchestrator) Run(ctx context.Context) (SyncReport, error) {
	report := SyncReport{StartedAt: time.Now()}

	ctx, span := telemetry.Tracer.Start(ctx, "sync.run")
	defer span.End()

	if err := o.auth.Authenticate(ctx); err != nil {
		span.RecordError(err)
		return report, fmt.Errorf("initial authentication failed: %w", err)
	}

	for _, enum := range o.enumerators {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = time.Now()
			return report, err
		}
		report.Passes = append(report.Passes, o.syncType(ctx, enum))
	}

	report.FinishedAt = time.Now()
	return report, nil
}

// syncType runs the load-enumerate-reconcile-write sequence for one type.
func (o *Orchestrator) syncType(ctx context.Context, enum providers.Enumerator) PassResult {
	assetType := enum.AssetType()
	start := time.Now()
	result := PassResult{AssetType: assetType}

	ctx, span := telemetry.Tracer.Start(ctx, "sync.pass",
		trace.WithAttributes(attribute.String("asset_type", string(assetType))))
	defer span.End()

	o.logger.LogPassStart(ctx, string(assetType))

	err := o.runPass(ctx, enum, &result)
	result.Duration = time.Since(start)
	result.Err = err

	o.recordMetrics(ctx, assetType, result)

	if err != nil {
		span.RecordError(err)
		o.logger.LogPassError(ctx, string(assetType), err)
		return result
	}

	o.logger.LogPassComplete(ctx, string(assetType), result.Observed, result.Written, result.Staled)
	return result
}

func (o *Orchestrator) runPass(ctx context.Context, enum providers.Enumerator, result *PassResult) error {
	assetType := enum.AssetType()

	existing, err := o.loader.Load(ctx, assetType)
	if err != nil {
		return err
	}

	observed, err := providers.Collect(ctx, enum)
	if err != nil {
		return err
	}
	result.Observed = len(observed)

	diff := reconciler.Reconcile(existing, observed)

	if err := o.writer.WriteBatch(ctx, assetType, diff.ToWrite); err != nil {
		return err
	}
	result.Written = len(diff.ToWrite)

	if err := o.writer.MarkStale(ctx, assetType, diff.ToMarkStale); err != nil {
		return err
	}
	result.Staled = len(diff.ToMarkStale)

	return nil
}

// recordMetrics publishes pass counters. Instruments are nil when telemetry
// was never initialized, as in one-shot CLI runs without OTEL.
func (o *Orchestrator) recordMetrics(ctx context.Context, assetType types.AssetType, result PassResult) {
	attrs := metric.WithAttributes(attribute.String("asset_type", string(assetType)))

	if telemetry.AssetsObserved != nil {
		telemetry.AssetsObserved.Add(ctx, int64(result.Observed), attrs)
	}
	if telemetry.AssetsWritten != nil {
		telemetry.AssetsWritten.Add(ctx, int64(result.Written), attrs)
	}
	if telemetry.AssetsStaled != nil {
		telemetry.AssetsStaled.Add(ctx, int64(result.Staled), attrs)
	}
	if telemetry.PassDuration != nil {
		telemetry.PassDuration.Record(ctx, result.Duration.Seconds(), attrs)
	}
	if result.Failed() && telemetry.SyncErrors != nil {
		telemetry.SyncErrors.Add(ctx, 1, attrs)
	}
}
