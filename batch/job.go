package batch

import (
	"slices"
	"sync"
	"time"

	"github.com/xraph/batchflow/id"
)

// Job is one submitted unit of work: an ordered item collection plus the
// policy to process it under. A Job is exclusively owned by the registry
// for its lifetime; the executor mutates results and counters through the
// methods below, which take the job's lock.
type Job struct {
	mu sync.Mutex

	id     id.BatchID
	name   string
	items  []any
	config Config

	status          Status
	results         []ItemOutcome
	errors          []ItemError
	processedCount  int
	cancelRequested bool

	submittedAt time.Time
	startedAt   time.Time
	completedAt *time.Time
}

// NewJob creates a queued job. Config must already be validated.
func NewJob(name string, items []any, config Config) *Job {
	return &Job{
		id:          id.NewBatchID(),
		name:        name,
		items:       items,
		config:      config,
		status:      StatusQueued,
		submittedAt: time.Now().UTC(),
	}
}

// ID returns the job's unique identifier.
func (j *Job) ID() id.BatchID { return j.id }

// Name returns the caller-facing job name.
func (j *Job) Name() string { return j.name }

// Config returns the job's immutable configuration.
func (j *Job) Config() Config { return j.config }

// Items returns the submitted item collection. The slice is owned by the
// job and must be treated as read-only.
func (j *Job) Items() []any { return j.items }

// Status returns the current lifecycle status.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// MarkProcessing transitions queued → processing and stamps the start
// time. Returns false if the job is no longer queued (e.g. cancelled
// before dispatch).
func (j *Job) MarkProcessing() bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status != StatusQueued {
		return false
	}
	j.status = StatusProcessing
	j.startedAt = time.Now().UTC()
	return true
}

// RecordSuccess appends a successful outcome and advances the processed
// counter.
func (j *Job) RecordSuccess(out ItemOutcome) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.results = append(j.results, out)
	j.processedCount++
}

// RecordFailure appends an exhausted failure and advances the processed
// counter.
func (j *Job) RecordFailure(fail ItemError) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.errors = append(j.errors, fail)
	j.processedCount++
}

// Finalize moves the job into the given terminal status. The first
// terminal transition wins and stamps the end time exactly once; later
// calls are no-ops returning false.
func (j *Job) Finalize(status Status) bool {
	if !status.Terminal() {
		return false
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status.Terminal() {
		return false
	}
	j.status = status
	now := time.Now().UTC()
	j.completedAt = &now
	return true
}

// RequestCancel transitions a queued or processing job to cancelled and
// flags the executor to stop admitting new items. In-flight items run to
// completion and their outcomes are still recorded. Returns false if the
// job is already terminal.
func (j *Job) RequestCancel() bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status.Terminal() {
		return false
	}
	j.status = StatusCancelled
	j.cancelRequested = true
	now := time.Now().UTC()
	j.completedAt = &now
	return true
}

// CancelRequested reports whether cancellation has been requested.
func (j *Job) CancelRequested() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelRequested
}

// ErrorCount returns the number of exhausted item failures so far.
func (j *Job) ErrorCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.errors)
}

// Snapshot is a read-only copy of a job's externally visible state.
type Snapshot struct {
	BatchID         id.BatchID    `json:"batch_id"`
	Name            string        `json:"name"`
	Status          Status        `json:"status"`
	TotalItems      int           `json:"total_items"`
	ProcessedCount  int           `json:"processed_count"`
	ProgressPercent float64       `json:"progress_percent"`
	ErrorsCount     int           `json:"errors_count"`
	Results         []ItemOutcome `json:"results"`
	Errors          []ItemError   `json:"errors"`
	SubmittedAt     time.Time     `json:"submitted_at"`
	StartedAt       time.Time     `json:"start_time"`
	CompletedAt     *time.Time    `json:"end_time,omitempty"`
	Duration        time.Duration `json:"duration"`
}

// Snapshot returns a consistent copy of the job's state under its lock.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()

	total := len(j.items)
	progress := 0.0
	if total > 0 {
		progress = float64(j.processedCount) / float64(total) * 100
	}

	var duration time.Duration
	switch {
	case j.startedAt.IsZero():
		// Not started yet.
	case j.completedAt != nil:
		duration = j.completedAt.Sub(j.startedAt)
	default:
		duration = time.Since(j.startedAt)
	}

	return Snapshot{
		BatchID:         j.id,
		Name:            j.name,
		Status:          j.status,
		TotalItems:      total,
		ProcessedCount:  j.processedCount,
		ProgressPercent: progress,
		ErrorsCount:     len(j.errors),
		Results:         slices.Clone(j.results),
		Errors:          slices.Clone(j.errors),
		SubmittedAt:     j.submittedAt,
		StartedAt:       j.startedAt,
		CompletedAt:     j.completedAt,
		Duration:        duration,
	}
}
