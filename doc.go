// Package batchflow provides a composable batch orchestration engine for
// document-generation pipelines. It accepts an arbitrary collection of work
// items, executes a caller-supplied processor across a bounded worker pool,
// applies per-item retry with backoff, throttles admission under resource
// pressure, and aggregates live progress and statistics.
//
// Batchflow is designed as a library, not a service. Construct a Registry,
// submit batches as ordinary Go slices with a processing function, and poll
// snapshots or register extensions for lifecycle events.
//
// # Quick Start
//
//	reg, err := batchflow.New(
//	    batchflow.WithLogger(logger),
//	    batchflow.WithQueueCapacity(64),
//	)
//
//	_ = reg.Start(ctx)
//	defer reg.Stop(ctx)
//
//	batchID, err := batchflow.Submit(ctx, reg, "render-bills", files, renderOne, batch.Config{
//	    MaxWorkers: 4,
//	    BatchSize:  10,
//	})
//
// # Architecture
//
// Each subsystem lives in its own package: batch (job data model), worker
// (executor), backoff (retry policy), resource (admission monitor), render
// (engine fallback chain), middleware (per-attempt execution pipeline),
// ext (lifecycle hooks), observability (metrics). The root package holds
// the Registry — the single explicit control surface; there is no hidden
// process-wide singleton.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based,
// compile-time safe identifiers.
package batchflow
