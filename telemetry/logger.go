package telemetry

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTELHook adds trace and span IDs to every log entry
type OTELHook struct{}

func (h OTELHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return
	}

	e.Str("trace_id", span.SpanContext().TraceID().String())
	e.Str("span_id", span.SpanContext().SpanID().String())

	if level == zerolog.ErrorLevel {
		span.SetStatus(codes.Error, msg)
	}
}

// Logger wraps zerolog with OTEL integration
type Logger struct {
	zerolog.Logger
}

// NewLogger creates a new logger with OTEL hooks
func NewLogger(service string) *Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", service).
		Logger().
		Hook(OTELHook{})

	return &Logger{Logger: logger}
}

// WithContext returns a logger with context (for trace propagation)
func (l *Logger) WithContext(ctx context.Context) *zerolog.Logger {
	logger := l.Logger.With().Ctx(ctx).Logger()
	return &logger
}

// Convenience methods for sync operations

func (l *Logger) LogPassStart(ctx context.Context, assetType string) {
	l.WithContext(ctx).Info().
		Str("asset_type", assetType).
		Msg("starting sync pass")
}

func (l *Logger) LogPassComplete(ctx context.Context, assetType string, observed, written, staled int) {
	l.WithContext(ctx).Info().
		Str("asset_type", assetType).
		Int("observed", observed).
		Int("written", written).
		Int("staled", staled).
		Msg("sync pass complete")
}

func (l *Logger) LogPassError(ctx context.Context, assetType string, err error) {
	l.WithContext(ctx).Error().
		Err(err).
		Str("asset_type", assetType).
		Msg("sync pass failed")
}

func (l *Logger) LogEnrichmentMiss(ctx context.Context, assetType, uniqueID, field string, err error) {
	l.WithContext(ctx).Warn().
		Err(err).
		Str("asset_type", assetType).
		Str("unique_id", uniqueID).
		Str("field", field).
		Msg("enrichment lookup failed, using default")
}
