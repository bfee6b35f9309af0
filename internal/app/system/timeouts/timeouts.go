// Package timeouts holds the deadlines applied to document store and
// identity calls.
//
// Guidelines:
//   - Ping: health checks
//   - Short: single-document reads and writes
//   - Snapshot: opening a subscription and reading its initial result set
//   - Long: operations that touch blob storage or several collections
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing     = 2 * time.Second
	DefaultShort    = 5 * time.Second
	DefaultSnapshot = 10 * time.Second
	DefaultLong     = 30 * time.Second
)

var mu sync.RWMutex

var (
	ping     = DefaultPing
	short    = DefaultShort
	snapshot = DefaultSnapshot
	long     = DefaultLong
)

func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

func Short() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return short
}

func Snapshot() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return snapshot
}

func Long() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return long
}

// Config overrides the defaults. Zero fields are ignored.
type Config struct {
	Ping     time.Duration
	Short    time.Duration
	Snapshot time.Duration
	Long     time.Duration
}

// Configure applies cfg. Call it at startup before serving.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Short > 0 {
		short = cfg.Short
	}
	if cfg.Snapshot > 0 {
		snapshot = cfg.Snapshot
	}
	if cfg.Long > 0 {
		long = cfg.Long
	}
}

// Reset restores the defaults. Tests use it.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping = DefaultPing
	short = DefaultShort
	snapshot = DefaultSnapshot
	long = DefaultLong
}

func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Short: short, Snapshot: snapshot, Long: long}
}

// WithTimeout is context.WithTimeout whose cancel logs a warning when the
// deadline was hit.
//
//	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), log, "upload profile photo")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
