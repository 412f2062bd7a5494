package obs

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Time measures an operation and logs its duration when the returned
// function runs. Use it as `defer obs.Time(ctx, "op")(&err)`.
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	reqID := middleware.GetReqID(ctx)

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			slog.DebugContext(ctx, "op failed", "req_id", reqID, "op", name, "dur_ms", dur.Milliseconds(), "err", *errp)
			return
		}
		slog.DebugContext(ctx, "op done", "req_id", reqID, "op", name, "dur_ms", dur.Milliseconds())
	}
}
