// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/clubhub/internal/app/store/audit"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for sign-in, sign-up and sign-out events.
	// Values: "all" (store + zap), "db" (store only), "log" (zap only), "off" (disabled)
	Auth string
	// Admin controls logging for moderation and profile administration events.
	// Values: "all" (store + zap), "db" (store only), "log" (zap only), "off" (disabled)
	Admin string
}

// Recorder persists audit events. *audit.Store satisfies it.
type Recorder interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger provides convenience methods for logging audit events.
// It logs to a Recorder (when one is configured) and to zap.
type Logger struct {
	store  Recorder
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. store may be nil, in which case "db"
// destinations are skipped.
func New(store Recorder, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

func userAgent(r *http.Request) string {
	if r == nil {
		return ""
	}
	return r.UserAgent()
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.ActorEmail != "" {
		fields = append(fields, zap.String("actor_email", event.ActorEmail))
	}
	if event.TargetEmail != "" {
		fields = append(fields, zap.String("target_email", event.TargetEmail))
	}
	if event.TargetID != "" {
		fields = append(fields, zap.String("target_id", event.TargetID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = "all"
	}
	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}
	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func (l *Logger) auth(ctx context.Context, r *http.Request, eventType, email string, success bool, reason string, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		ActorEmail:    email,
		IP:            getClientIP(r),
		UserAgent:     userAgent(r),
		Success:       success,
		FailureReason: reason,
		Details:       details,
	})
}

func (l *Logger) admin(ctx context.Context, r *http.Request, eventType, actor, targetEmail, targetID string, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:    audit.CategoryAdmin,
		EventType:   eventType,
		ActorEmail:  actor,
		TargetEmail: targetEmail,
		TargetID:    targetID,
		IP:          getClientIP(r),
		UserAgent:   userAgent(r),
		Success:     true,
		Details:     details,
	})
}

// --- Authentication Events ---

// SignInSuccess logs a successful sign-in. method is "password" or the provider name.
func (l *Logger) SignInSuccess(ctx context.Context, r *http.Request, email, method string) {
	l.auth(ctx, r, audit.EventSignInSuccess, email, true, "", map[string]string{"method": method})
}

// SignInFailed logs a rejected credential or provider exchange.
func (l *Logger) SignInFailed(ctx context.Context, r *http.Request, email, method, reason string) {
	l.auth(ctx, r, audit.EventSignInFailed, email, false, reason, map[string]string{"method": method})
}

// SignInDenied logs a sign-in refused because the profile was denied.
func (l *Logger) SignInDenied(ctx context.Context, r *http.Request, email string) {
	l.auth(ctx, r, audit.EventSignInDenied, email, false, "profile_denied", nil)
}

func (l *Logger) SignUp(ctx context.Context, r *http.Request, email string) {
	l.auth(ctx, r, audit.EventSignUp, email, true, "", nil)
}

func (l *Logger) SignOut(ctx context.Context, r *http.Request, email string) {
	l.auth(ctx, r, audit.EventSignOut, email, true, "", nil)
}

// --- Profile Administration Events ---

func (l *Logger) RoleChanged(ctx context.Context, r *http.Request, actor, target, from, to string) {
	l.admin(ctx, r, audit.EventRoleChanged, actor, target, "", map[string]string{"from": from, "to": to})
}

func (l *Logger) UploadToggled(ctx context.Context, r *http.Request, actor, target string, canUpload bool) {
	l.admin(ctx, r, audit.EventUploadToggled, actor, target, "", map[string]string{"can_upload": boolToString(canUpload)})
}

func (l *Logger) UserApproved(ctx context.Context, r *http.Request, actor, target string) {
	l.admin(ctx, r, audit.EventUserApproved, actor, target, "", nil)
}

func (l *Logger) UserDenied(ctx context.Context, r *http.Request, actor, target string) {
	l.admin(ctx, r, audit.EventUserDenied, actor, target, "", nil)
}

func (l *Logger) UserDeleted(ctx context.Context, r *http.Request, actor, target string) {
	l.admin(ctx, r, audit.EventUserDeleted, actor, target, "", nil)
}

// --- Content Events ---

func (l *Logger) SubmissionApproved(ctx context.Context, r *http.Request, actor, kind, id string) {
	l.admin(ctx, r, audit.EventSubmissionApproved, actor, "", id, map[string]string{"kind": kind})
}

func (l *Logger) SubmissionRejected(ctx context.Context, r *http.Request, actor, kind, id, reason string) {
	l.admin(ctx, r, audit.EventSubmissionRejected, actor, "", id, map[string]string{"kind": kind, "reason": reason})
}

func (l *Logger) SubmissionDeleted(ctx context.Context, r *http.Request, actor, kind, id string) {
	l.admin(ctx, r, audit.EventSubmissionDeleted, actor, "", id, map[string]string{"kind": kind})
}

// LeaderChanged logs a leadership entry change. action is "added", "updated",
// "deleted" or "visibility".
func (l *Logger) LeaderChanged(ctx context.Context, r *http.Request, actor, id, action string, order int) {
	l.admin(ctx, r, audit.EventLeaderChanged, actor, "", id, map[string]string{"action": action, "order": strconv.Itoa(order)})
}

func (l *Logger) AnnouncementChanged(ctx context.Context, r *http.Request, actor, id, action string) {
	l.admin(ctx, r, audit.EventAnnouncementChanged, actor, "", id, map[string]string{"action": action})
}

func boolToString(b bool) string {
	return strconv.FormatBool(b)
}
