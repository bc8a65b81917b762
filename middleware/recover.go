package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/batchflow/batch"
)

// Recover returns middleware that recovers from panics in the handler
// chain. Panics are converted to errors and logged with a stack trace, so
// a panicking processor fails only its own item and never crosses the
// worker-pool boundary.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, it *batch.Item, next Handler) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("item processor panicked",
					slog.String("batch_id", it.BatchID),
					slog.Int("item_index", it.Index),
					slog.Int("attempt", it.Attempt),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				retErr = fmt.Errorf("panic processing item %d: %v", it.Index, r)
			}
		}()
		return next(ctx)
	}
}
