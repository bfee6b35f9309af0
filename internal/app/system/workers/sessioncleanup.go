// internal/app/system/workers/sessioncleanup.go
package workers

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper closes sessions that have gone idle and reports how many.
type Sweeper interface {
	Sweep() int
}

// SessionCleanup is a background worker that closes idle hub sessions.
type SessionCleanup struct {
	hub      Sweeper
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSessionCleanup creates a cleanup worker that sweeps hub every interval.
func NewSessionCleanup(hub Sweeper, logger *zap.Logger, interval time.Duration) *SessionCleanup {
	return &SessionCleanup{
		hub:      hub,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background cleanup loop.
func (w *SessionCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("session cleanup worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish. Safe to call twice.
func (w *SessionCleanup) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("session cleanup worker stopped")
}

func (w *SessionCleanup) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.cleanup()
		}
	}
}

func (w *SessionCleanup) cleanup() {
	if n := w.hub.Sweep(); n > 0 {
		w.log.Info("closed idle sessions", zap.Int("count", n))
	}
}
