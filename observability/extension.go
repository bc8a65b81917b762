package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xraph/batchflow/batch"
	"github.com/xraph/batchflow/ext"
)

// meterName is the instrumentation scope name for lifecycle metrics.
const meterName = "github.com/xraph/batchflow/observability"

// Compile-time interface checks.
var (
	_ ext.Extension      = (*MetricsExtension)(nil)
	_ ext.BatchSubmitted = (*MetricsExtension)(nil)
	_ ext.BatchFinished  = (*MetricsExtension)(nil)
	_ ext.ItemCompleted  = (*MetricsExtension)(nil)
	_ ext.ItemFailed     = (*MetricsExtension)(nil)
	_ ext.ItemRetrying   = (*MetricsExtension)(nil)
)

// MetricsExtension records system-wide lifecycle metrics via OTel.
// Register it as a Batchflow extension to automatically track submission
// rates, per-item completion and failure counts, retry counts, and batch
// durations broken down by terminal status.
type MetricsExtension struct {
	batchSubmitted metric.Int64Counter
	batchFinished  metric.Int64Counter
	batchDuration  metric.Float64Histogram
	itemCompleted  metric.Int64Counter
	itemFailed     metric.Int64Counter
	itemRetried    metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension using the global OTel
// MeterProvider. With no provider configured the instruments are noops.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the
// provided meter. This variant allows injecting a specific MeterProvider
// for testing.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	m := &MetricsExtension{}

	// On error the OTel API returns noop instruments, so the extension
	// degrades gracefully.
	m.batchSubmitted, _ = meter.Int64Counter("batchflow.batch.submitted",
		metric.WithDescription("Total batches submitted"),
		metric.WithUnit("{batch}"),
	)
	m.batchFinished, _ = meter.Int64Counter("batchflow.batch.finished",
		metric.WithDescription("Total batches reaching a terminal state"),
		metric.WithUnit("{batch}"),
	)
	m.batchDuration, _ = meter.Float64Histogram("batchflow.batch.duration",
		metric.WithDescription("Batch wall-clock duration in seconds"),
		metric.WithUnit("s"),
	)
	m.itemCompleted, _ = meter.Int64Counter("batchflow.item.completed",
		metric.WithDescription("Total items processed successfully"),
		metric.WithUnit("{item}"),
	)
	m.itemFailed, _ = meter.Int64Counter("batchflow.item.failed",
		metric.WithDescription("Total items failed after exhausting retries"),
		metric.WithUnit("{item}"),
	)
	m.itemRetried, _ = meter.Int64Counter("batchflow.item.retried",
		metric.WithDescription("Total item retry attempts scheduled"),
		metric.WithUnit("{retry}"),
	)

	return m
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnBatchSubmitted implements ext.BatchSubmitted.
func (m *MetricsExtension) OnBatchSubmitted(ctx context.Context, j *batch.Job) error {
	m.batchSubmitted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("batch_name", j.Name()),
	))
	return nil
}

// OnBatchFinished implements ext.BatchFinished.
func (m *MetricsExtension) OnBatchFinished(ctx context.Context, j *batch.Job, status batch.Status, elapsed time.Duration) error {
	attrs := metric.WithAttributes(
		attribute.String("batch_name", j.Name()),
		attribute.String("status", string(status)),
	)
	m.batchFinished.Add(ctx, 1, attrs)
	m.batchDuration.Record(ctx, elapsed.Seconds(), attrs)
	return nil
}

// OnItemCompleted implements ext.ItemCompleted.
func (m *MetricsExtension) OnItemCompleted(ctx context.Context, j *batch.Job, _ batch.ItemOutcome) error {
	m.itemCompleted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("batch_name", j.Name()),
	))
	return nil
}

// OnItemFailed implements ext.ItemFailed.
func (m *MetricsExtension) OnItemFailed(ctx context.Context, j *batch.Job, _ batch.ItemError) error {
	m.itemFailed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("batch_name", j.Name()),
	))
	return nil
}

// OnItemRetrying implements ext.ItemRetrying.
func (m *MetricsExtension) OnItemRetrying(ctx context.Context, j *batch.Job, _, _ int, _ time.Duration) error {
	m.itemRetried.Add(ctx, 1, metric.WithAttributes(
		attribute.String("batch_name", j.Name()),
	))
	return nil
}
