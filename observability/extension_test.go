package observability_test

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/xraph/batchflow/batch"
	"github.com/xraph/batchflow/observability"
)

func setupTestMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return reader, mp
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	m := findMetric(rm, name)
	if m == nil {
		t.Fatalf("%s metric not found", name)
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: expected Sum[int64] data type", name)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func newTestJob() *batch.Job {
	return batch.NewJob("invoices-march", []any{1, 2, 3}, batch.DefaultConfig())
}

func TestMetricsExtension_CountsBatchLifecycle(t *testing.T) {
	reader, mp := setupTestMeter()
	ext := observability.NewMetricsExtensionWithMeter(mp.Meter("test"))

	ctx := context.Background()
	j := newTestJob()

	if err := ext.OnBatchSubmitted(ctx, j); err != nil {
		t.Fatalf("OnBatchSubmitted: %v", err)
	}
	if err := ext.OnBatchFinished(ctx, j, batch.StatusCompleted, 250*time.Millisecond); err != nil {
		t.Fatalf("OnBatchFinished: %v", err)
	}

	rm := collectMetrics(t, reader)
	if got := sumValue(t, rm, "batchflow.batch.submitted"); got != 1 {
		t.Errorf("batch.submitted = %d, want 1", got)
	}
	if got := sumValue(t, rm, "batchflow.batch.finished"); got != 1 {
		t.Errorf("batch.finished = %d, want 1", got)
	}

	dur := findMetric(rm, "batchflow.batch.duration")
	if dur == nil {
		t.Fatal("batchflow.batch.duration metric not found")
	}
	hist, ok := dur.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("expected Histogram[float64] data type")
	}
	if len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 1 {
		t.Errorf("duration data points = %+v, want a single count=1 point", hist.DataPoints)
	}
}

func TestMetricsExtension_FinishedCarriesStatusAttribute(t *testing.T) {
	reader, mp := setupTestMeter()
	ext := observability.NewMetricsExtensionWithMeter(mp.Meter("test"))

	ctx := context.Background()
	_ = ext.OnBatchFinished(ctx, newTestJob(), batch.StatusCompleted, time.Second)
	_ = ext.OnBatchFinished(ctx, newTestJob(), batch.StatusFailed, time.Second)

	rm := collectMetrics(t, reader)
	m := findMetric(rm, "batchflow.batch.finished")
	if m == nil {
		t.Fatal("batchflow.batch.finished metric not found")
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("expected Sum[int64] data type")
	}

	byStatus := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		if status, found := dp.Attributes.Value(attribute.Key("status")); found {
			byStatus[status.AsString()] += dp.Value
		}
	}
	if byStatus["completed"] != 1 {
		t.Errorf("finished{status=completed} = %d, want 1", byStatus["completed"])
	}
	if byStatus["failed"] != 1 {
		t.Errorf("finished{status=failed} = %d, want 1", byStatus["failed"])
	}
}

func TestMetricsExtension_CountsItemOutcomes(t *testing.T) {
	reader, mp := setupTestMeter()
	ext := observability.NewMetricsExtensionWithMeter(mp.Meter("test"))

	ctx := context.Background()
	j := newTestJob()

	_ = ext.OnItemCompleted(ctx, j, batch.ItemOutcome{Index: 0, Attempts: 1})
	_ = ext.OnItemCompleted(ctx, j, batch.ItemOutcome{Index: 1, Attempts: 2})
	_ = ext.OnItemFailed(ctx, j, batch.ItemError{Index: 2, Error: "boom", Attempts: 4})
	_ = ext.OnItemRetrying(ctx, j, 2, 0, time.Second)
	_ = ext.OnItemRetrying(ctx, j, 2, 1, 2*time.Second)
	_ = ext.OnItemRetrying(ctx, j, 2, 2, 4*time.Second)

	rm := collectMetrics(t, reader)
	if got := sumValue(t, rm, "batchflow.item.completed"); got != 2 {
		t.Errorf("item.completed = %d, want 2", got)
	}
	if got := sumValue(t, rm, "batchflow.item.failed"); got != 1 {
		t.Errorf("item.failed = %d, want 1", got)
	}
	if got := sumValue(t, rm, "batchflow.item.retried"); got != 3 {
		t.Errorf("item.retried = %d, want 3", got)
	}
}
