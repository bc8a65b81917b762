package middleware

import (
	"context"
	"log/slog"

	"github.com/xraph/batchflow/batch"
)

// Timeout returns middleware that bounds a single processor attempt.
// If the item carries a non-zero AttemptTimeout, a context.WithTimeout
// wraps the handler call. When the deadline is exceeded the context is
// cancelled and a well-behaved processor should return
// context.DeadlineExceeded.
func Timeout(logger *slog.Logger) Middleware {
	return func(ctx context.Context, it *batch.Item, next Handler) error {
		if it.AttemptTimeout > 0 {
			logger.Debug("attempt timeout set",
				slog.String("batch_id", it.BatchID),
				slog.Int("item_index", it.Index),
				slog.Duration("timeout", it.AttemptTimeout),
			)
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, it.AttemptTimeout)
			defer cancel()
		}
		return next(ctx)
	}
}
