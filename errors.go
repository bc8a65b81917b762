package batchflow

import "errors"

var (
	// Lifecycle errors.
	ErrNotStarted = errors.New("batchflow: registry not started")
	ErrStopped    = errors.New("batchflow: registry stopped")

	// Not found errors.
	ErrBatchNotFound = errors.New("batchflow: batch not found")

	// Submission errors.
	ErrNilProcessor = errors.New("batchflow: nil processor")
	ErrQueueFull    = errors.New("batchflow: submission queue full")
)
