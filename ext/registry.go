package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/batchflow/batch"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type batchSubmittedEntry struct {
	name string
	hook BatchSubmitted
}

type batchStartedEntry struct {
	name string
	hook BatchStarted
}

type batchFinishedEntry struct {
	name string
	hook BatchFinished
}

type itemCompletedEntry struct {
	name string
	hook ItemCompleted
}

type itemFailedEntry struct {
	name string
	hook ItemFailed
}

type itemRetryingEntry struct {
	name string
	hook ItemRetrying
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	batchSubmitted []batchSubmittedEntry
	batchStarted   []batchStartedEntry
	batchFinished  []batchFinishedEntry
	itemCompleted  []itemCompletedEntry
	itemFailed     []itemFailedEntry
	itemRetrying   []itemRetryingEntry
	shutdown       []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(BatchSubmitted); ok {
		r.batchSubmitted = append(r.batchSubmitted, batchSubmittedEntry{name, h})
	}
	if h, ok := e.(BatchStarted); ok {
		r.batchStarted = append(r.batchStarted, batchStartedEntry{name, h})
	}
	if h, ok := e.(BatchFinished); ok {
		r.batchFinished = append(r.batchFinished, batchFinishedEntry{name, h})
	}
	if h, ok := e.(ItemCompleted); ok {
		r.itemCompleted = append(r.itemCompleted, itemCompletedEntry{name, h})
	}
	if h, ok := e.(ItemFailed); ok {
		r.itemFailed = append(r.itemFailed, itemFailedEntry{name, h})
	}
	if h, ok := e.(ItemRetrying); ok {
		r.itemRetrying = append(r.itemRetrying, itemRetryingEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Batch event emitters
// ──────────────────────────────────────────────────

// EmitBatchSubmitted notifies all extensions that implement BatchSubmitted.
func (r *Registry) EmitBatchSubmitted(ctx context.Context, j *batch.Job) {
	for _, e := range r.batchSubmitted {
		if err := e.hook.OnBatchSubmitted(ctx, j); err != nil {
			r.logHookError("OnBatchSubmitted", e.name, err)
		}
	}
}

// EmitBatchStarted notifies all extensions that implement BatchStarted.
func (r *Registry) EmitBatchStarted(ctx context.Context, j *batch.Job) {
	for _, e := range r.batchStarted {
		if err := e.hook.OnBatchStarted(ctx, j); err != nil {
			r.logHookError("OnBatchStarted", e.name, err)
		}
	}
}

// EmitBatchFinished notifies all extensions that implement BatchFinished.
func (r *Registry) EmitBatchFinished(ctx context.Context, j *batch.Job, status batch.Status, elapsed time.Duration) {
	for _, e := range r.batchFinished {
		if err := e.hook.OnBatchFinished(ctx, j, status, elapsed); err != nil {
			r.logHookError("OnBatchFinished", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Item event emitters
// ──────────────────────────────────────────────────

// EmitItemCompleted notifies all extensions that implement ItemCompleted.
func (r *Registry) EmitItemCompleted(ctx context.Context, j *batch.Job, out batch.ItemOutcome) {
	for _, e := range r.itemCompleted {
		if err := e.hook.OnItemCompleted(ctx, j, out); err != nil {
			r.logHookError("OnItemCompleted", e.name, err)
		}
	}
}

// EmitItemFailed notifies all extensions that implement ItemFailed.
func (r *Registry) EmitItemFailed(ctx context.Context, j *batch.Job, fail batch.ItemError) {
	for _, e := range r.itemFailed {
		if err := e.hook.OnItemFailed(ctx, j, fail); err != nil {
			r.logHookError("OnItemFailed", e.name, err)
		}
	}
}

// EmitItemRetrying notifies all extensions that implement ItemRetrying.
func (r *Registry) EmitItemRetrying(ctx context.Context, j *batch.Job, index, attempt int, delay time.Duration) {
	for _, e := range r.itemRetrying {
		if err := e.hook.OnItemRetrying(ctx, j, index, attempt, delay); err != nil {
			r.logHookError("OnItemRetrying", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Shutdown
// ──────────────────────────────────────────────────

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a hook failure. Hook errors are observability-only;
// they never affect batch execution.
func (r *Registry) logHookError(hook, extension string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extension),
		slog.String("error", err.Error()),
	)
}
