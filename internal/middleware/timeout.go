package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"placestats-edge/pkg/logging/logging"

	"go.uber.org/zap"
)

// Timeout puts a deadline on the request context. The handler runs on the
// calling goroutine and writes its own response; upstream calls observe the
// deadline and fail, so an overrunning stats request ends as a 502.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))

			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				logging.L(ctx).Warn("request deadline exceeded", zap.Duration("timeout", d))
			}
		})
	}
}
