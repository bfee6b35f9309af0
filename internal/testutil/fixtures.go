package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/clubhub/internal/app/store/profiles"
	"github.com/dalemusser/clubhub/internal/app/system/blobstore"
	"github.com/dalemusser/clubhub/internal/app/system/docstore/memstore"
	"github.com/dalemusser/clubhub/internal/app/system/identity"
	"github.com/dalemusser/clubhub/internal/app/system/moderation"
	"github.com/dalemusser/clubhub/internal/app/system/portal"
	"github.com/dalemusser/clubhub/internal/app/system/sessionhub"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Password is the password every fixture account is created with.
const Password = "secret-pass"

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that call a handler method directly.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Env is an in-memory portal backend: document store, identity directory,
// blob store, and a session hub over them.
type Env struct {
	Docs  *memstore.Store
	Dir   *identity.MemoryDirectory
	Blobs *blobstore.Memory
	Clock *moderation.Clock
	Hub   *sessionhub.Hub

	// Exchanger, when set before a session is opened, enables federated sign-in.
	Exchanger identity.Exchanger
}

// NewEnv builds an Env whose sessions are closed when the test ends.
func NewEnv(t *testing.T) *Env {
	t.Helper()
	e := &Env{
		Docs:  memstore.New(),
		Dir:   identity.NewMemoryDirectory(),
		Blobs: blobstore.NewMemory("http://blobs.test"),
		Clock: moderation.NewClock(nil),
	}
	e.Hub = sessionhub.New(func(shared bool) *portal.Store {
		return portal.New(portal.Deps{
			Docs:     e.Docs,
			Identity: identity.NewClient(e.Dir, e.Exchanger),
			Blobs:    e.Blobs,
			Clock:    e.Clock,
			Logger:   zap.NewNop(),
			Shared:   shared,
		})
	}, time.Hour, zap.NewNop())
	t.Cleanup(e.Hub.Close)
	return e
}

// Account registers an identity and an approved profile with role.
func (e *Env) Account(t *testing.T, email, name string, role models.Role) {
	t.Helper()
	ctx := context.Background()
	id, err := e.Dir.Create(ctx, email, Password, name)
	if err != nil {
		t.Fatalf("create identity %s: %v", email, err)
	}
	err = profiles.New(e.Docs).Upsert(ctx, models.Profile{
		Email:     email,
		UID:       id.UID,
		Name:      name,
		Role:      role,
		Status:    models.ProfileApproved,
		CanUpload: role.AtLeast(models.RoleMember),
		CreatedAt: e.Clock.Next(),
	})
	if err != nil {
		t.Fatalf("create profile %s: %v", email, err)
	}
}

// Portal returns a signed-out hub session.
func (e *Env) Portal(t *testing.T) *portal.Store {
	t.Helper()
	_, p := e.Hub.Create()
	return p
}

// SignedIn returns a hub session signed in as email.
func (e *Env) SignedIn(t *testing.T, email string) *portal.Store {
	t.Helper()
	p := e.Portal(t)
	if _, err := p.SignIn(context.Background(), email, Password); err != nil {
		t.Fatalf("sign in %s: %v", email, err)
	}
	return p
}
