package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"fishpulse/internal/dataprocessing"
	"fishpulse/internal/infrastructure"
)

const (
	TracerName = "fishpulse.dataset"

	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
)

// datasetTracer provides OpenTelemetry instrumentation for dataset sessions
type datasetTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.BusinessMetrics
}

func newDatasetTracer(metrics *infrastructure.BusinessMetrics) *datasetTracer {
	return &datasetTracer{
		tracer:  otel.Tracer(TracerName),
		metrics: metrics,
	}
}

// traceUpload creates a span covering one upload
func (dt *datasetTracer) traceUpload(ctx context.Context, sessionID, name string, size int) (context.Context, trace.Span) {
	return dt.tracer.Start(ctx, "dataset.upload",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("upload.name", name),
			attribute.Int("upload.bytes", size),
		),
	)
}

// recordUploadCompletion annotates the span and records ingestion metrics
func (dt *datasetTracer) recordUploadCompletion(ctx context.Context, span trace.Span, ds *dataprocessing.Dataset, cacheHit bool, duration time.Duration) {
	span.SetAttributes(
		attribute.String("dataset.content_hash", ds.Info.ContentHash),
		attribute.String("dataset.delimiter", ds.Info.Delimiter),
		attribute.Int("dataset.records", ds.Info.RecordCount),
		attribute.Int("dataset.duplicates_dropped", ds.Info.DuplicatesDropped),
		attribute.Int("dataset.unknown_month_rows", ds.Info.UnknownMonthRows),
		attribute.Bool("cache.hit", cacheHit),
	)
	span.SetStatus(codes.Ok, "dataset accepted")

	infrastructure.RecordUpload(ctx, dt.metrics, outcomeAccepted,
		ds.Info.RecordCount, ds.Info.DuplicatesDropped, duration, cacheHit)
}

// recordUploadError marks the span failed and counts the rejection
func (dt *datasetTracer) recordUploadError(ctx context.Context, err error) {
	infrastructure.RecordError(ctx, err,
		trace.WithAttributes(attribute.String("error.type", "dataset_rejected")),
	)
	infrastructure.RecordUpload(ctx, dt.metrics, outcomeRejected, 0, 0, 0, false)
}

// sessionOpened and sessionsClosed keep the active session gauge current
func (dt *datasetTracer) sessionOpened(ctx context.Context) {
	if dt.metrics != nil {
		dt.metrics.ActiveSessions.Add(ctx, 1)
	}
}

func (dt *datasetTracer) sessionsClosed(ctx context.Context, n int, expired bool) {
	if dt.metrics == nil || n == 0 {
		return
	}
	dt.metrics.ActiveSessions.Add(ctx, int64(-n))
	if expired {
		dt.metrics.SessionsExpired.Add(ctx, int64(n),
			metric.WithAttributes(attribute.String("reason", "idle")))
	}
}
