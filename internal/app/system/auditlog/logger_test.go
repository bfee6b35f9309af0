package auditlog_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/clubhub/internal/app/store/audit"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recorder struct {
	events []audit.Event
}

func (r *recorder) Log(_ context.Context, e audit.Event) error {
	r.events = append(r.events, e)
	return nil
}

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(context.Background(), audit.Event{EventType: "test"})
	logger.SignInSuccess(context.Background(), req, "a@club.org", "password")
	logger.SignOut(context.Background(), req, "a@club.org")
}

func TestLogger_Log_ConfigOff(t *testing.T) {
	rec := &recorder{}
	logger := auditlog.New(rec, zap.NewNop(), auditlog.Config{Auth: "off", Admin: "off"})

	logger.SignUp(context.Background(), nil, "a@club.org")
	logger.UserApproved(context.Background(), nil, "root@club.org", "a@club.org")

	if len(rec.events) != 0 {
		t.Errorf("expected no events when config is 'off', got %d", len(rec.events))
	}
}

func TestLogger_Log_ConfigDB(t *testing.T) {
	rec := &recorder{}
	core, logs := observer.New(zap.InfoLevel)
	logger := auditlog.New(rec, zap.New(core), auditlog.Config{Auth: "db", Admin: "db"})

	req := httptest.NewRequest("POST", "/api/profiles/a@club.org/role", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.9")
	logger.RoleChanged(context.Background(), req, "root@club.org", "a@club.org", "member", "admin")

	if len(rec.events) != 1 {
		t.Fatalf("expected 1 stored event, got %d", len(rec.events))
	}
	e := rec.events[0]
	if e.Category != audit.CategoryAdmin || e.EventType != audit.EventRoleChanged {
		t.Errorf("unexpected event: %+v", e)
	}
	if e.ActorEmail != "root@club.org" || e.TargetEmail != "a@club.org" {
		t.Errorf("unexpected emails: %+v", e)
	}
	if e.IP != "10.0.0.9" {
		t.Errorf("IP = %q, want forwarded address", e.IP)
	}
	if e.Details["to"] != "admin" {
		t.Errorf("details = %v", e.Details)
	}
	if logs.Len() != 0 {
		t.Errorf("expected no zap output for 'db', got %d entries", logs.Len())
	}
}

func TestLogger_Log_ConfigLog(t *testing.T) {
	rec := &recorder{}
	core, logs := observer.New(zap.InfoLevel)
	logger := auditlog.New(rec, zap.New(core), auditlog.Config{Auth: "log", Admin: "log"})

	logger.SignInDenied(context.Background(), nil, "b@club.org")

	if len(rec.events) != 0 {
		t.Errorf("expected nothing stored for 'log', got %d", len(rec.events))
	}
	entries := logs.FilterMessage("audit event").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 zap entry, got %d", len(entries))
	}
	if entries[0].Level != zap.WarnLevel {
		t.Errorf("failed events should log at warn, got %v", entries[0].Level)
	}
}

func TestLogger_NilStoreSkipsDB(t *testing.T) {
	logger := auditlog.New(nil, nil, auditlog.Config{Auth: "all", Admin: "all"})
	logger.SubmissionApproved(context.Background(), nil, "root@club.org", "projects", "p1")
}
