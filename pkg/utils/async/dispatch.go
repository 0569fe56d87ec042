package async

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/quantrail/riskforge/pkg/utils/logging"
)

// Dispatch executes a handler function asynchronously in a new goroutine.
// The engine uses it for progress notifications so a slow observer can
// never stall the sampling loop. It creates a background context but
// preserves the logger, and recovers panics.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	bgCtx := context.Background()
	if logger := logging.From(ctx); logger != nil {
		bgCtx = logging.With(bgCtx, logger)
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.From(bgCtx).Error("panic in async handler", "panic", r)
			}
		}()

		if err := handler(bgCtx); err != nil {
			logging.From(bgCtx).Error("async handler failed", "error", goerr.Unwrap(err))
		}
	}()
}
