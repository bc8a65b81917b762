package batchflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/batchflow/batch"
	"github.com/xraph/batchflow/ext"
	"github.com/xraph/batchflow/id"
	"github.com/xraph/batchflow/middleware"
	"github.com/xraph/batchflow/resource"
	"github.com/xraph/batchflow/worker"
)

// submission pairs a queued job with the processor that will drive it.
type submission struct {
	job  *batch.Job
	proc batch.Processor
}

// Registry is the process-wide control surface for batch jobs: it accepts
// submissions into a single intake queue, drains it with a bounded pool of
// batch runners, answers progress queries, and aggregates cumulative
// statistics. Construct one explicitly and pass it around — there is no
// global instance.
type Registry struct {
	config     Config
	logger     *slog.Logger
	extensions *ext.Registry
	executor   *worker.Executor
	monitor    *resource.Monitor

	// Option staging, consumed by New.
	pendingExts []ext.Extension
	pendingMws  []middleware.Middleware

	mu      sync.Mutex
	jobs    map[string]*batch.Job
	counted map[string]bool
	stats   cumulativeStats
	running bool
	stopped bool

	intake chan submission
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// cumulativeStats holds counters updated exactly once per job, on its
// terminal transition. Guarded by Registry.mu.
type cumulativeStats struct {
	totalJobs      int
	completedJobs  int
	failedJobs     int
	itemsProcessed int
	durationSum    time.Duration
}

// New creates a Registry with the given options. Call Start before
// submitting work.
func New(opts ...Option) (*Registry, error) {
	r := &Registry{
		config:  DefaultConfig(),
		logger:  slog.Default(),
		jobs:    make(map[string]*batch.Job),
		counted: make(map[string]bool),
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	r.extensions = ext.NewRegistry(r.logger)
	for _, e := range r.pendingExts {
		r.extensions.Register(e)
	}
	r.pendingExts = nil

	if r.monitor == nil && r.config.Resource.Enabled {
		r.monitor = resource.NewMonitor(
			resource.WithMaxMemoryPercent(r.config.Resource.MaxMemoryPercent),
			resource.WithMaxCPUPercent(r.config.Resource.MaxCPUPercent),
			resource.WithLogger(r.logger),
		)
	}

	execOpts := []worker.Option{
		worker.WithMonitor(r.monitor),
		worker.WithAdmissionInterval(r.config.AdmissionInterval),
		worker.WithAttemptTimeout(r.config.AttemptTimeout),
	}
	if len(r.pendingMws) > 0 {
		execOpts = append(execOpts, worker.WithMiddleware(r.pendingMws...))
	}
	r.pendingMws = nil

	r.executor = worker.NewExecutor(r.extensions, r.logger, execOpts...)
	r.intake = make(chan submission, r.config.QueueCapacity)

	return r, nil
}

// Extensions returns the extension registry.
func (r *Registry) Extensions() *ext.Registry { return r.extensions }

// Start launches the batch runner pool (and the janitor, when configured).
// It returns immediately and is a no-op when already running.
func (r *Registry) Start(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running || r.stopped {
		return nil
	}
	r.running = true

	runners := r.config.MaxConcurrentBatches
	if runners < 1 {
		runners = 1
	}

	r.logger.Info("batch registry starting",
		slog.Int("queue_capacity", r.config.QueueCapacity),
		slog.Int("max_concurrent_batches", runners),
		slog.Bool("throttling", r.monitor != nil),
	)

	for range runners {
		r.wg.Add(1)
		go r.runnerLoop()
	}

	if r.config.CleanupInterval > 0 {
		r.wg.Add(1)
		go r.janitorLoop()
	}

	return nil
}

// Stop shuts the registry down. New submissions are rejected immediately;
// running batches are waited for until the context deadline. In-flight
// processor calls are never hard-killed.
func (r *Registry) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	r.stopped = true
	r.mu.Unlock()

	r.logger.Info("batch registry stopping")
	close(r.stopCh)

	// The configured shutdown budget applies when the caller's context
	// carries no deadline of its own.
	if _, ok := ctx.Deadline(); !ok && r.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.ShutdownTimeout)
		defer cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("batch registry stopped gracefully")
	case <-ctx.Done():
		r.logger.Warn("batch registry shutdown timed out with batches still running")
	}

	// Submissions acknowledged but never picked up by a runner must still
	// reach a terminal state; otherwise they stay queued forever.
	r.drainIntake()

	r.extensions.EmitShutdown(ctx)
	return nil
}

// SubmitRaw validates and enqueues a batch with a pre-erased processor.
// It never blocks: a full intake queue rejects the submission with
// ErrQueueFull and leaves no trace of it. On success the returned ID is
// immediately queryable through GetStatus. Most callers want the typed
// Submit.
func (r *Registry) SubmitRaw(ctx context.Context, name string, items []any, proc batch.Processor, cfg batch.Config) (id.BatchID, error) {
	if proc == nil {
		return id.Nil, ErrNilProcessor
	}
	if err := cfg.Validate(); err != nil {
		return id.Nil, err
	}

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return id.Nil, ErrStopped
	}
	if !r.running {
		r.mu.Unlock()
		return id.Nil, ErrNotStarted
	}

	// Enqueue before registering so a rejected submission never appears in
	// the job map or the counters. Holding the lock across both keeps Stop
	// from observing a registered job that is not yet in the queue.
	j := batch.NewJob(name, items, cfg)
	select {
	case r.intake <- submission{job: j, proc: proc}:
	default:
		r.mu.Unlock()
		return id.Nil, ErrQueueFull
	}
	r.jobs[j.ID().String()] = j
	r.stats.totalJobs++
	r.mu.Unlock()

	r.extensions.EmitBatchSubmitted(ctx, j)

	r.logger.Info("batch submitted",
		slog.String("batch_id", j.ID().String()),
		slog.String("batch_name", name),
		slog.Int("total_items", len(items)),
	)

	return j.ID(), nil
}

// Submit validates and enqueues a typed batch. The generic processor is
// wrapped in a closure that asserts the item type before calling the typed
// function, so the engine core stays type-erased.
//
// This is a package-level generic function because Go does not allow
// generic methods on non-generic receiver types.
func Submit[T, R any](ctx context.Context, r *Registry, name string, items []T, proc func(ctx context.Context, item T) (R, error), cfg batch.Config) (id.BatchID, error) {
	if proc == nil {
		return id.Nil, ErrNilProcessor
	}

	erased := make([]any, len(items))
	for i, item := range items {
		erased[i] = item
	}

	wrapped := func(ctx context.Context, item any) (any, error) {
		return proc(ctx, item.(T))
	}

	return r.SubmitRaw(ctx, name, erased, wrapped, cfg)
}

// GetStatus returns a read-only snapshot of the batch, or
// ErrBatchNotFound. It never blocks on batch progress.
func (r *Registry) GetStatus(batchID id.BatchID) (batch.Snapshot, error) {
	r.mu.Lock()
	j, ok := r.jobs[batchID.String()]
	r.mu.Unlock()

	if !ok {
		return batch.Snapshot{}, ErrBatchNotFound
	}
	return j.Snapshot(), nil
}

// Cancel requests cooperative cancellation of a queued or processing
// batch. No new items are admitted; in-flight items run to completion and
// their outcomes are still recorded. Returns false when the batch is
// unknown or already terminal.
func (r *Registry) Cancel(batchID id.BatchID) bool {
	r.mu.Lock()
	j, ok := r.jobs[batchID.String()]
	r.mu.Unlock()

	if !ok {
		return false
	}

	if !j.RequestCancel() {
		return false
	}

	r.logger.Info("batch cancelled",
		slog.String("batch_id", batchID.String()),
	)
	return true
}

// ListActive returns snapshots of all queued or processing batches.
func (r *Registry) ListActive() []batch.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	var active []batch.Snapshot
	for _, j := range r.jobs {
		if !j.Status().Terminal() {
			active = append(active, j.Snapshot())
		}
	}
	return active
}

// Cleanup purges batches that have been terminal for longer than maxAge
// and returns the number removed. This bounds memory growth; it is never
// needed for correctness.
func (r *Registry) Cleanup(maxAge time.Duration) int {
	cutoff := time.Now().UTC().Add(-maxAge)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, j := range r.jobs {
		snap := j.Snapshot()
		if snap.CompletedAt != nil && snap.CompletedAt.Before(cutoff) {
			delete(r.jobs, key)
			delete(r.counted, key)
			removed++
		}
	}

	if removed > 0 {
		r.logger.Debug("purged terminal batches",
			slog.Int("removed", removed),
			slog.Duration("max_age", maxAge),
		)
	}
	return removed
}

// runnerLoop consumes the intake queue and drives one batch at a time to
// its terminal state. The pool of runners bounds how many batches execute
// concurrently; per-batch item concurrency is bounded by the batch's own
// MaxWorkers.
func (r *Registry) runnerLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.stopCh:
			return
		case sub := <-r.intake:
			// A submission picked up after shutdown began is never run;
			// it is finalized as cancelled instead.
			select {
			case <-r.stopCh:
				r.abandon(sub.job)
				continue
			default:
			}

			r.executor.Run(context.Background(), sub.proc, sub.job)
			r.recordTerminal(sub.job)
		}
	}
}

// drainIntake empties the intake queue after the runners have stopped,
// finalizing every leftover submission as cancelled.
func (r *Registry) drainIntake() {
	for {
		select {
		case sub := <-r.intake:
			r.abandon(sub.job)
		default:
			return
		}
	}
}

// abandon finalizes a submission that will never be dispatched. The job
// becomes cancelled, the finished event fires, and the statistics fold —
// the same terminal guarantees a dispatched batch gets.
func (r *Registry) abandon(j *batch.Job) {
	if j.RequestCancel() {
		r.logger.Warn("batch abandoned at shutdown",
			slog.String("batch_id", j.ID().String()),
			slog.String("batch_name", j.Name()),
		)
	}
	r.extensions.EmitBatchFinished(context.Background(), j, batch.StatusCancelled, 0)
	r.recordTerminal(j)
}

// janitorLoop periodically purges old terminal batches.
func (r *Registry) janitorLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.Cleanup(r.config.CleanupMaxAge)
		}
	}
}

// recordTerminal folds a finished batch into the cumulative statistics,
// exactly once per batch regardless of how it reached its terminal state.
func (r *Registry) recordTerminal(j *batch.Job) {
	snap := j.Snapshot()

	r.mu.Lock()
	defer r.mu.Unlock()

	key := j.ID().String()
	if r.counted[key] {
		return
	}
	r.counted[key] = true

	switch snap.Status {
	case batch.StatusCompleted, batch.StatusCompletedWithErrors:
		r.stats.completedJobs++
	case batch.StatusFailed, batch.StatusCancelled:
		r.stats.failedJobs++
	}
	r.stats.itemsProcessed += snap.ProcessedCount
	r.stats.durationSum += snap.Duration
}
