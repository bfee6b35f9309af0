package testutil

import (
	"context"
	"sync"

	"github.com/dalemusser/clubhub/internal/app/store/audit"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// AuditRecorder keeps audit events in memory.
type AuditRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *AuditRecorder) Log(ctx context.Context, e audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of the recorded events.
func (r *AuditRecorder) Events() []audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.Event(nil), r.events...)
}

// Types returns the recorded event types in order.
func (r *AuditRecorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventType
	}
	return out
}

// NewAuditLogger returns an audit logger that stores every event in a new
// recorder.
func NewAuditLogger() (*auditlog.Logger, *AuditRecorder) {
	rec := &AuditRecorder{}
	return auditlog.New(rec, zap.NewNop(), auditlog.Config{Auth: "db", Admin: "db"}), rec
}
