// Package auth binds each browser to its hub session through a signed cookie
// and guards routes by the session's role.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/portal"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/app/system/sessionhub"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const sidKey = "sid"

type ctxKey string

const portalKey ctxKey = "portal"

// SessionManager owns the cookie store and the hub it points into.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
	hub   *sessionhub.Hub
	log   *zap.Logger
}

// NewSessionManager builds the cookie store.
//
// In production (secure=true) cookies are Secure + SameSite=None; in local
// dev over http://localhost use secure=false so cookies are accepted.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, hub *sessionhub.Hub, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "clubhub-session"
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, hub: hub, log: logger}, nil
}

// LoadPortal puts the request's portal Store into the context. A browser
// whose cookie names a live hub session gets that session; any other
// request is served from the hub's shared signed-out Store. Sessions are
// opened by Begin, never here.
func (m *SessionManager) LoadPortal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// a tampered or stale cookie reads as no session
		sess, _ := m.store.Get(r, m.name)

		sid, _ := sess.Values[sidKey].(string)
		p, ok := m.hub.Get(sid)
		if !ok {
			p = m.hub.Public()
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), portalKey, p)))
	})
}

// Begin returns r bound to a hub session of its own. When r was served from
// the shared Store, a session is opened and its cookie set on w.
func (m *SessionManager) Begin(w http.ResponseWriter, r *http.Request) *http.Request {
	if p := Portal(r); p != nil && !p.Shared() {
		return r
	}
	sess, _ := m.store.Get(r, m.name)
	sid, p := m.hub.Create()
	sess.Values[sidKey] = sid
	if err := sess.Save(r, w); err != nil {
		m.log.Error("session cookie save failed", zap.Error(err))
	}
	return WithPortal(r, p)
}

// Portal returns the Store LoadPortal attached, or nil.
func Portal(r *http.Request) *portal.Store {
	p, _ := r.Context().Value(portalKey).(*portal.Store)
	return p
}

// CurrentSession returns the signed-in session, or nil.
func CurrentSession(r *http.Request) *portal.Session {
	if p := Portal(r); p != nil {
		return p.CurrentSession()
	}
	return nil
}

// WithPortal returns r carrying p. For handler tests.
func WithPortal(r *http.Request, p *portal.Store) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), portalKey, p))
}

// RequireSignedIn answers 401 unless the session is signed in.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentSession(r) == nil {
			respond.JSON(w, http.StatusUnauthorized, map[string]string{"error": "You must be signed in."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole answers 401 when signed out and 403 unless the session's
// role is at least min.
func RequireRole(min models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := CurrentSession(r)
			if s == nil {
				respond.JSON(w, http.StatusUnauthorized, map[string]string{"error": "You must be signed in."})
				return
			}
			if !s.Role().AtLeast(min) {
				respond.JSON(w, http.StatusForbidden, map[string]string{"error": "You do not have permission to perform this action."})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Destroy closes the browser's hub session and expires its cookie.
func (m *SessionManager) Destroy(w http.ResponseWriter, r *http.Request) {
	sess, _ := m.store.Get(r, m.name)
	if sid, ok := sess.Values[sidKey].(string); ok {
		m.hub.Remove(sid)
	}
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		m.log.Error("session cookie clear failed", zap.Error(err))
	}
}
