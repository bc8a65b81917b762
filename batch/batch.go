// Package batch defines the data model for batch jobs: configuration,
// status lifecycle, per-item outcomes, and the processor contract. The
// worker package drives these types; the root registry owns them.
package batch

import (
	"context"
	"errors"
	"time"

	"github.com/xraph/batchflow/backoff"
)

// Status represents the lifecycle state of a batch job.
// Transitions only move forward: queued → processing → terminal.
type Status string

const (
	// StatusQueued means the batch is waiting for a batch runner.
	StatusQueued Status = "queued"
	// StatusProcessing means the executor is driving the batch.
	StatusProcessing Status = "processing"
	// StatusCompleted means every item succeeded.
	StatusCompleted Status = "completed"
	// StatusCompletedWithErrors means the batch finished with a mix of
	// successes and failures under ContinueOnError.
	StatusCompletedWithErrors Status = "completed_with_errors"
	// StatusFailed means the batch aborted on error or every item failed.
	StatusFailed Status = "failed"
	// StatusCancelled means the batch was cancelled before finishing.
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCompletedWithErrors, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Processor is the caller-supplied processing function invoked once per
// item attempt. It must be safe to call concurrently from multiple workers;
// any state shared across calls is the caller's to synchronize. Processors
// must respect their own I/O timeouts — the engine never hard-kills an
// in-flight call.
type Processor func(ctx context.Context, item any) (any, error)

// Validation errors returned at submission time.
var (
	ErrInvalidMaxWorkers = errors.New("batch: max_workers must be >= 1")
	ErrInvalidBatchSize  = errors.New("batch: batch_size must be >= 1")
	ErrInvalidMaxRetries = errors.New("batch: max_retries must be >= 0")
)

// ErrTimedOut is recorded as the failure cause for items still pending
// when the job-level timeout elapses.
var ErrTimedOut = errors.New("batch: job timeout elapsed before item was processed")

// Config is the per-job policy, immutable for the job's lifetime.
type Config struct {
	// MaxWorkers bounds concurrently in-flight item calls for this job.
	MaxWorkers int `json:"max_workers" yaml:"max_workers"`

	// BatchSize is the chunk granularity for sub-batch dispatch. The last
	// sub-batch may be shorter.
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// Timeout is the wall-clock ceiling for the whole job, measured from
	// job start. Zero means no ceiling.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Retry governs per-item retry after a failed attempt.
	Retry backoff.Policy `json:"-" yaml:"-"`

	// ContinueOnError keeps the job running past unrecoverable item
	// failures. When false the first exhausted failure aborts the job.
	ContinueOnError bool `json:"continue_on_error" yaml:"continue_on_error"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxWorkers:      4,
		BatchSize:       10,
		Retry:           backoff.DefaultPolicy(),
		ContinueOnError: true,
	}
}

// Validate rejects configurations that must never enter the queue.
func (c Config) Validate() error {
	if c.MaxWorkers < 1 {
		return ErrInvalidMaxWorkers
	}
	if c.BatchSize < 1 {
		return ErrInvalidBatchSize
	}
	if c.Retry.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}
	return nil
}

// Item describes one item attempt flowing through the middleware chain.
type Item struct {
	// BatchID identifies the owning job.
	BatchID string
	// BatchName is the caller-facing job name.
	BatchName string
	// Index is the item's position in the submitted collection.
	Index int
	// Attempt is the 0-indexed attempt number.
	Attempt int
	// Payload is the opaque work descriptor.
	Payload any
	// AttemptTimeout bounds a single processor call; zero means none.
	AttemptTimeout time.Duration
}

// ItemOutcome records one successfully processed item. Outcomes carry the
// item reference so callers can re-correlate: result order is not
// guaranteed to match submission order.
type ItemOutcome struct {
	Index    int `json:"index"`
	Item     any `json:"-"`
	Value    any `json:"-"`
	Attempts int `json:"attempts"`
}

// ItemError records one item whose retries were exhausted.
type ItemError struct {
	Index    int    `json:"index"`
	Item     any    `json:"-"`
	Error    string `json:"error"`
	Attempts int    `json:"attempts"`
}
