// Package worker provides the batch execution engine — an Executor that
// drives a single batch job to completion: sub-batch partitioning, a
// semaphore-bounded item pool, per-item retry with backoff, admission
// throttling under resource pressure, and job-level timeout handling.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/xraph/batchflow/batch"
	"github.com/xraph/batchflow/ext"
	"github.com/xraph/batchflow/middleware"
	"github.com/xraph/batchflow/resource"
)

// DefaultAdmissionInterval is how long a worker waits between admission
// re-checks while the resource monitor reports pressure.
const DefaultAdmissionInterval = 500 * time.Millisecond

// Executor drives batch jobs. One Executor is shared across jobs; all
// per-job state lives on the Job itself.
type Executor struct {
	extensions        *ext.Registry
	monitor           *resource.Monitor
	admissionInterval time.Duration
	attemptTimeout    time.Duration
	mws               []middleware.Middleware
	mw                middleware.Middleware
	logger            *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithMonitor sets the resource monitor consulted before admitting each
// item. A nil monitor disables admission throttling.
func WithMonitor(m *resource.Monitor) Option {
	return func(e *Executor) { e.monitor = m }
}

// WithAdmissionInterval sets the wait between admission re-checks while
// the monitor reports pressure.
func WithAdmissionInterval(d time.Duration) Option {
	return func(e *Executor) { e.admissionInterval = d }
}

// WithAttemptTimeout sets a default per-attempt ceiling applied to every
// processor call. Zero means attempts are unbounded (the processor is
// expected to respect its own I/O timeouts).
func WithAttemptTimeout(d time.Duration) Option {
	return func(e *Executor) { e.attemptTimeout = d }
}

// WithMiddleware appends middleware to the per-attempt chain. When none
// is supplied the default stack is recover → metrics → logging → timeout.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(e *Executor) { e.mws = append(e.mws, mws...) }
}

// NewExecutor creates an Executor with the given dependencies.
func NewExecutor(extensions *ext.Registry, logger *slog.Logger, opts ...Option) *Executor {
	e := &Executor{
		extensions:        extensions,
		admissionInterval: DefaultAdmissionInterval,
		logger:            logger,
	}
	for _, opt := range opts {
		opt(e)
	}

	if len(e.mws) == 0 {
		e.mws = []middleware.Middleware{
			middleware.Recover(logger),
			middleware.Metrics(),
			middleware.Logging(logger),
			middleware.Timeout(logger),
		}
	}
	e.mw = middleware.Chain(e.mws...)

	return e
}

// Run drives one job to its terminal state and returns that state.
//
// Items are dispatched in consecutive sub-batches of Config.BatchSize;
// concurrently in-flight item calls never exceed Config.MaxWorkers.
// Cancellation is cooperative: once requested, no new items are admitted
// but in-flight calls run to completion and their outcomes are recorded.
// When the job timeout elapses, items not yet dispatched are recorded as
// timed-out failures and the executor stops waiting for new admissions.
func (e *Executor) Run(ctx context.Context, proc batch.Processor, j *batch.Job) batch.Status {
	if !j.MarkProcessing() {
		// Cancelled (or otherwise terminal) before dispatch. Still a
		// terminal outcome, so the finished event fires for it too.
		status := j.Status()
		e.extensions.EmitBatchFinished(ctx, j, status, 0)
		return status
	}

	e.extensions.EmitBatchStarted(ctx, j)

	cfg := j.Config()
	start := time.Now()

	e.logger.Info("batch started",
		slog.String("batch_id", j.ID().String()),
		slog.String("batch_name", j.Name()),
		slog.Int("total_items", len(j.Items())),
		slog.Int("max_workers", cfg.MaxWorkers),
		slog.Int("batch_size", cfg.BatchSize),
	)

	runCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	sem := semaphore.NewWeighted(int64(cfg.MaxWorkers))
	var wg sync.WaitGroup
	var aborted atomic.Bool

	items := j.Items()

dispatch:
	for batchStart := 0; batchStart < len(items); batchStart += cfg.BatchSize {
		end := min(batchStart+cfg.BatchSize, len(items))

		for idx := batchStart; idx < end; idx++ {
			if j.CancelRequested() || aborted.Load() {
				break dispatch
			}

			if !e.waitAdmission(runCtx, j) {
				e.handleDispatchStop(runCtx, j, items, idx)
				break dispatch
			}

			if err := sem.Acquire(runCtx, 1); err != nil {
				e.handleDispatchStop(runCtx, j, items, idx)
				break dispatch
			}

			// Cancellation or abort may have landed while blocked on the
			// semaphore; never admit past either.
			if j.CancelRequested() || aborted.Load() {
				sem.Release(1)
				break dispatch
			}

			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				defer sem.Release(1)
				e.runItem(runCtx, proc, j, idx, &aborted)
			}(idx)
		}
	}

	// In-flight items always run to completion; there is no hard kill.
	wg.Wait()

	status := e.finalize(ctx, j, time.Since(start))
	return status
}

// waitAdmission blocks until the resource monitor admits new work, the
// context ends, or the job is cancelled/aborted. It returns false only
// when dispatch must stop because the context ended.
func (e *Executor) waitAdmission(ctx context.Context, j *batch.Job) bool {
	if e.monitor == nil {
		return true
	}

	for !e.monitor.CheckAdmission(ctx) {
		if j.CancelRequested() {
			return true // dispatch loop re-checks and stops without recording
		}

		e.logger.Info("resource pressure high, pausing admission",
			slog.String("batch_id", j.ID().String()),
			slog.Duration("recheck_in", e.admissionInterval),
		)

		select {
		case <-ctx.Done():
			return false
		case <-time.After(e.admissionInterval):
		}
	}

	return true
}

// handleDispatchStop records not-yet-dispatched items when dispatch stops
// early. On job timeout every remaining item is recorded as a timed-out
// failure; on cancellation (or registry shutdown) remaining items are left
// unrecorded — they were never started.
func (e *Executor) handleDispatchStop(ctx context.Context, j *batch.Job, items []any, fromIdx int) {
	if j.CancelRequested() || !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return
	}

	e.logger.Warn("batch timeout elapsed, abandoning pending items",
		slog.String("batch_id", j.ID().String()),
		slog.Int("pending_items", len(items)-fromIdx),
	)

	for idx := fromIdx; idx < len(items); idx++ {
		fail := batch.ItemError{
			Index:    idx,
			Item:     items[idx],
			Error:    batch.ErrTimedOut.Error(),
			Attempts: 0,
		}
		j.RecordFailure(fail)
		e.extensions.EmitItemFailed(ctx, j, fail)
	}
}

// runItem processes a single item through the middleware chain, applying
// the retry policy until success or exhaustion. Failures never propagate:
// they are recorded on the job as outcomes.
func (e *Executor) runItem(ctx context.Context, proc batch.Processor, j *batch.Job, idx int, aborted *atomic.Bool) {
	item := j.Items()[idx]
	policy := j.Config().Retry

	var value any
	terminal := func(ctx context.Context) error {
		v, err := proc(ctx, item)
		if err != nil {
			return err
		}
		value = v
		return nil
	}

	for attempt := 0; ; attempt++ {
		it := &batch.Item{
			BatchID:        j.ID().String(),
			BatchName:      j.Name(),
			Index:          idx,
			Attempt:        attempt,
			Payload:        item,
			AttemptTimeout: e.attemptTimeout,
		}

		attemptErr := e.mw(ctx, it, terminal)
		if attemptErr == nil {
			out := batch.ItemOutcome{Index: idx, Item: item, Value: value, Attempts: attempt + 1}
			j.RecordSuccess(out)
			e.extensions.EmitItemCompleted(ctx, j, out)
			return
		}

		if policy.ShouldRetry(attempt) {
			delay := policy.Delay(attempt)
			e.extensions.EmitItemRetrying(ctx, j, idx, attempt, delay)

			e.logger.Info("item scheduled for retry",
				slog.String("batch_id", j.ID().String()),
				slog.Int("item_index", idx),
				slog.Int("attempt", attempt),
				slog.Int("max_retries", policy.MaxRetries),
				slog.Duration("delay", delay),
				slog.String("error", attemptErr.Error()),
			)

			if sleepCtx(ctx, delay) {
				continue
			}
			// Context ended mid-backoff: the retry budget is cut short and
			// the last attempt's error stands.
		}

		fail := batch.ItemError{Index: idx, Item: item, Error: attemptErr.Error(), Attempts: attempt + 1}
		j.RecordFailure(fail)
		e.extensions.EmitItemFailed(ctx, j, fail)

		e.logger.Warn("item failed after exhausting retries",
			slog.String("batch_id", j.ID().String()),
			slog.Int("item_index", idx),
			slog.Int("attempts", attempt+1),
			slog.String("error", attemptErr.Error()),
		)

		if !j.Config().ContinueOnError {
			aborted.Store(true)
		}
		return
	}
}

// finalize computes and applies the terminal status, then emits
// BatchFinished. A job cancelled mid-run keeps its cancelled status; the
// finalize here becomes a no-op transition but the finished event still
// fires exactly once per run — either here or from the pre-cancelled
// early return.
func (e *Executor) finalize(ctx context.Context, j *batch.Job, elapsed time.Duration) batch.Status {
	snap := j.Snapshot()

	var status batch.Status
	switch {
	case j.CancelRequested():
		status = batch.StatusCancelled
	case snap.ErrorsCount == 0:
		status = batch.StatusCompleted
	case !j.Config().ContinueOnError:
		status = batch.StatusFailed
	case snap.ErrorsCount >= snap.TotalItems:
		status = batch.StatusFailed
	default:
		status = batch.StatusCompletedWithErrors
	}

	j.Finalize(status)
	e.extensions.EmitBatchFinished(ctx, j, status, elapsed)

	e.logger.Info("batch finished",
		slog.String("batch_id", j.ID().String()),
		slog.String("batch_name", j.Name()),
		slog.String("status", string(status)),
		slog.Int("processed", snap.ProcessedCount),
		slog.Int("errors", snap.ErrorsCount),
		slog.Duration("elapsed", elapsed),
	)

	return status
}

// sleepCtx sleeps for d, returning false if the context ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
