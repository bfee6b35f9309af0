package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/clubhub/internal/app/store/profiles"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/docstore/memstore"
	"github.com/dalemusser/clubhub/internal/app/system/identity"
	"github.com/dalemusser/clubhub/internal/app/system/portal"
	"github.com/dalemusser/clubhub/internal/app/system/sessionhub"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.uber.org/zap"
)

type fixture struct {
	docs *memstore.Store
	dir  *identity.MemoryDirectory
	hub  *sessionhub.Hub
	sm   *auth.SessionManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{docs: memstore.New(), dir: identity.NewMemoryDirectory()}
	f.hub = sessionhub.New(func(shared bool) *portal.Store {
		return portal.New(portal.Deps{Docs: f.docs, Identity: identity.NewClient(f.dir, nil), Shared: shared})
	}, time.Hour, nil)
	t.Cleanup(f.hub.Close)

	sm, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "test-session", "", 24*time.Hour, false, f.hub, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	f.sm = sm
	return f
}

func (f *fixture) account(t *testing.T, email string, role models.Role) {
	t.Helper()
	ctx := context.Background()
	id, err := f.dir.Create(ctx, email, "secret-pass", "Test")
	if err != nil {
		t.Fatalf("create identity: %v", err)
	}
	err = profiles.New(f.docs).Upsert(ctx, models.Profile{
		Email: email, UID: id.UID, Name: "Test", Role: role, Status: models.ProfileApproved,
	})
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
}

func ok(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func TestNewSessionManager_EmptyKey(t *testing.T) {
	if _, err := auth.NewSessionManager("", "s", "", time.Hour, false, nil, zap.NewNop()); err == nil {
		t.Error("expected error for empty session key")
	}
}

func TestLoadPortal_CookielessRequestsShareThePublicStore(t *testing.T) {
	f := newFixture(t)
	var seen []*portal.Store
	h := f.sm.LoadPortal(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, auth.Portal(r))
	}))

	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/content/projects", nil))
		if len(rec.Result().Cookies()) != 0 {
			t.Fatalf("request %d set a cookie", i)
		}
	}

	if f.hub.Len() != 0 {
		t.Errorf("hub sessions = %d, want 0", f.hub.Len())
	}
	for _, c := range []string{models.CollectionProjects, models.CollectionLeadership, models.CollectionProfiles} {
		if n := f.docs.Subscribers(c); n != 1 {
			t.Errorf("%s subscriptions = %d, want 1", c, n)
		}
	}
	for i, p := range seen {
		if p == nil || !p.Shared() || p != seen[0] {
			t.Fatalf("request %d got portal %v, want the shared store", i, p)
		}
	}
}

func TestBegin_ReusesSessionFromCookie(t *testing.T) {
	f := newFixture(t)
	var seen []*portal.Store
	h := f.sm.LoadPortal(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, auth.Portal(f.sm.Begin(w, r)))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/auth/signin", nil))
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "test-session" {
		t.Fatalf("cookies = %v", cookies)
	}

	req := httptest.NewRequest("POST", "/auth/signin", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if len(rec.Result().Cookies()) != 0 {
		t.Error("known session re-issued a cookie")
	}

	if len(seen) != 2 || seen[0] == nil || seen[0].Shared() || seen[0] != seen[1] {
		t.Fatalf("portals = %v, want the same private store twice", seen)
	}
	if f.hub.Len() != 1 {
		t.Errorf("hub sessions = %d, want 1", f.hub.Len())
	}
}

func TestLoadPortal_TamperedCookieIsSignedOut(t *testing.T) {
	f := newFixture(t)
	var got *portal.Store
	h := f.sm.LoadPortal(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.Portal(r)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "test-session", Value: "forged"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got == nil || !got.Shared() {
		t.Errorf("portal = %v, want the shared store", got)
	}
	if f.hub.Len() != 0 {
		t.Errorf("hub sessions = %d, want 0", f.hub.Len())
	}
}

func TestRequireSignedIn(t *testing.T) {
	f := newFixture(t)
	f.account(t, "u@club.org", models.RoleUser)
	_, p := f.hub.Create()
	h := auth.RequireSignedIn(http.HandlerFunc(ok))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, auth.WithPortal(httptest.NewRequest("GET", "/profile", nil), p))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("signed out: status = %d, want 401", rec.Code)
	}

	if _, err := p.SignIn(context.Background(), "u@club.org", "secret-pass"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, auth.WithPortal(httptest.NewRequest("GET", "/profile", nil), p))
	if rec.Code != http.StatusOK {
		t.Errorf("signed in: status = %d, want 200", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	f := newFixture(t)
	f.account(t, "u@club.org", models.RoleUser)
	f.account(t, "a@club.org", models.RoleAdmin)
	h := auth.RequireRole(models.RoleAdmin)(http.HandlerFunc(ok))

	cases := []struct {
		email string
		want  int
	}{
		{"", http.StatusUnauthorized},
		{"u@club.org", http.StatusForbidden},
		{"a@club.org", http.StatusOK},
	}
	for _, tc := range cases {
		_, p := f.hub.Create()
		if tc.email != "" {
			if _, err := p.SignIn(context.Background(), tc.email, "secret-pass"); err != nil {
				t.Fatalf("SignIn %s: %v", tc.email, err)
			}
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, auth.WithPortal(httptest.NewRequest("GET", "/members", nil), p))
		if rec.Code != tc.want {
			t.Errorf("%q: status = %d, want %d", tc.email, rec.Code, tc.want)
		}
	}
}

func TestDestroy(t *testing.T) {
	f := newFixture(t)
	h := f.sm.LoadPortal(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.sm.Begin(w, r)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/auth/signin", nil))
	cookie := rec.Result().Cookies()[0]

	req := httptest.NewRequest("POST", "/auth/signout", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	f.sm.Destroy(rec, req)

	if f.hub.Len() != 0 {
		t.Errorf("hub sessions = %d, want 0", f.hub.Len())
	}
	out := rec.Result().Cookies()
	if len(out) != 1 || out[0].MaxAge >= 0 {
		t.Errorf("cookie not expired: %v", out)
	}
}
