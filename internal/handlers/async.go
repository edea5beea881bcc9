package handlers

import (
	"context"
	"sync"
	"time"

	"placestats-edge/pkg/logging/logging"

	"go.uber.org/zap"
)

// backgroundWriter runs work after the response has been sent. The work
// outlives the request context but is tracked, so shutdown can wait for it.
type backgroundWriter struct {
	wg      sync.WaitGroup
	timeout time.Duration
}

func newBackgroundWriter(timeout time.Duration) *backgroundWriter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &backgroundWriter{timeout: timeout}
}

// Go schedules fn. The request's values (logger, request id) carry over;
// its cancellation does not.
func (b *backgroundWriter) Go(ctx context.Context, op string, fn func(ctx context.Context) error) {
	detached := context.WithoutCancel(ctx)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		ctx, cancel := context.WithTimeout(detached, b.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			logging.L(ctx).Warn("async operation failed", zap.String("op", op), zap.Error(err))
			return
		}
		logging.L(ctx).Debug("async operation succeeded", zap.String("op", op))
	}()
}

// Wait blocks until every scheduled operation has finished or ctx is done.
func (b *backgroundWriter) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
