package search

import (
	"context"
	"log/slog"
	"time"

	tferrors "github.com/Aman-CERP/tcodefinder/internal/errors"
)

// boundedCall races fn against a per-stage deadline. On success it returns
// fn's value and true; on error or deadline it logs at warn level and returns
// the fallback and false. fn receives a child context carrying the deadline
// and should honor cancellation, but even a stuck fn cannot delay the caller
// past the budget.
func boundedCall[T any](ctx context.Context, logger *slog.Logger, stage string, budget time.Duration, fallback T, fn func(context.Context) (T, error)) (T, bool) {
	callCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	ch := make(chan outcome, 1)
	start := time.Now()
	go func() {
		v, err := fn(callCtx)
		ch <- outcome{value: v, err: err}
	}()

	select {
	case out := <-ch:
		if out.err != nil {
			logger.Warn("stage failed, using fallback",
				"stage", stage,
				"elapsed", time.Since(start).Round(time.Millisecond).String(),
				"error", out.err)
			return fallback, false
		}
		return out.value, true
	case <-callCtx.Done():
		logger.Warn("stage deadline exceeded, using fallback",
			"stage", stage,
			"budget", budget.String(),
			"error", tferrors.TimeoutError(stage, callCtx.Err()))
		return fallback, false
	}
}
