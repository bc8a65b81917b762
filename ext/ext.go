// Package ext defines the extension system for Batchflow.
// Extensions are notified of lifecycle events (batch submitted, item
// completed, batch finished, etc.) and can react to them — logging,
// metrics, progress push, etc.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package ext

import (
	"context"
	"time"

	"github.com/xraph/batchflow/batch"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Batch lifecycle hooks
// ──────────────────────────────────────────────────

// BatchSubmitted is called after a batch is accepted into the queue.
type BatchSubmitted interface {
	OnBatchSubmitted(ctx context.Context, j *batch.Job) error
}

// BatchStarted is called when the executor begins driving a batch.
type BatchStarted interface {
	OnBatchStarted(ctx context.Context, j *batch.Job) error
}

// BatchFinished is called exactly once, on a batch's terminal transition.
type BatchFinished interface {
	OnBatchFinished(ctx context.Context, j *batch.Job, status batch.Status, elapsed time.Duration) error
}

// ──────────────────────────────────────────────────
// Item lifecycle hooks
// ──────────────────────────────────────────────────

// ItemCompleted is called after an item is processed successfully.
type ItemCompleted interface {
	OnItemCompleted(ctx context.Context, j *batch.Job, out batch.ItemOutcome) error
}

// ItemFailed is called when an item's retries are exhausted.
type ItemFailed interface {
	OnItemFailed(ctx context.Context, j *batch.Job, fail batch.ItemError) error
}

// ItemRetrying is called when an item attempt fails but another attempt
// remains in the retry budget.
type ItemRetrying interface {
	OnItemRetrying(ctx context.Context, j *batch.Job, index, attempt int, delay time.Duration) error
}

// ──────────────────────────────────────────────────
// Other lifecycle hooks
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown of the registry.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
