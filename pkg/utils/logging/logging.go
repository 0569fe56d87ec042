// Package logging carries the process-wide structured logger and its
// context propagation. The CLI swaps in the configured handler at
// startup; simulation internals pick the logger out of their context so
// long-running sampling never reaches for global state directly.
package logging

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

var (
	mu sync.RWMutex

	// JSON on stdout until the CLI configures something better
	defaultLogger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
)

// Default returns the current process-wide logger
func Default() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger. Called once by the CLI
// after flags are parsed.
func SetDefault(logger *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = logger
}

type ctxLoggerKey struct{}

// With embeds a logger into the context for downstream use
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}

// From extracts the logger carried by the context, or Default when the
// context carries none
func From(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxLoggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return Default()
}
