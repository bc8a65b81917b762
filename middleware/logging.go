package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/batchflow/batch"
)

// Logging returns middleware that logs each item attempt and its outcome.
// Attempt starts log at Debug to keep high-volume batches quiet; failures
// log at Warn because the retry policy above may still recover them.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, it *batch.Item, next Handler) error {
		logger.Debug("item attempt started",
			slog.String("batch_id", it.BatchID),
			slog.String("batch_name", it.BatchName),
			slog.Int("item_index", it.Index),
			slog.Int("attempt", it.Attempt),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Warn("item attempt failed",
				slog.String("batch_id", it.BatchID),
				slog.Int("item_index", it.Index),
				slog.Int("attempt", it.Attempt),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Debug("item attempt completed",
				slog.String("batch_id", it.BatchID),
				slog.Int("item_index", it.Index),
				slog.Int("attempt", it.Attempt),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
