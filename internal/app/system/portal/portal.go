// Package portal is the session store: one signed-in (or signed-out) view of
// the club portal.
//
// A Store pairs the external identity with its Profile, keeps the filtered
// subscriptions the session is entitled to open, folds their events into
// per-collection views, and exposes the mutation operations. Every
// operation checks role policy before it writes.
//
// Locking: mu guards the session and every view. It is never held while
// calling the document store, the identity provider, or the blob store,
// because those may deliver events back into the Store synchronously.
package portal

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/clubhub/internal/app/store/announcements"
	"github.com/dalemusser/clubhub/internal/app/store/leadership"
	"github.com/dalemusser/clubhub/internal/app/store/profiles"
	"github.com/dalemusser/clubhub/internal/app/store/submissions"
	"github.com/dalemusser/clubhub/internal/app/system/blobstore"
	"github.com/dalemusser/clubhub/internal/app/system/docstore"
	"github.com/dalemusser/clubhub/internal/app/system/identity"
	"github.com/dalemusser/clubhub/internal/app/system/merge"
	"github.com/dalemusser/clubhub/internal/app/system/moderation"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.uber.org/zap"
)

// Deps are the collaborators a Store is built from.
type Deps struct {
	Docs     docstore.Store
	Identity identity.Provider
	Blobs    blobstore.Store   // nil disables uploads
	Clock    *moderation.Clock // shared across sessions so createdAt stays monotonic
	Logger   *zap.Logger
	Now      func() time.Time

	// Shared marks a Store served to every signed-out browser. It keeps the
	// public tier open and refuses to sign in.
	Shared bool
}

// Session is the signed-in identity paired with its Profile.
type Session struct {
	Identity identity.Identity `json:"identity"`
	Profile  models.Profile    `json:"profile"`
}

func (s Session) Email() string { return s.Profile.Email }
func (s Session) Role() models.Role { return s.Profile.Role }
func (s Session) Status() models.ProfileStatus { return s.Profile.Status }

// CanUpload ORs the stored flag with the right implied by role.
func (s Session) CanUpload() bool { return s.Profile.EffectiveCanUpload() }

// DisplayName prefers the stored profile name.
func (s Session) DisplayName() string {
	if s.Profile.Name != "" {
		return s.Profile.Name
	}
	return s.Identity.DisplayName
}

// PhotoURL prefers the stored profile photo.
func (s Session) PhotoURL() string {
	if s.Profile.PhotoURL != "" {
		return s.Profile.PhotoURL
	}
	return s.Identity.PhotoURL
}

// view is the part of merge.View the subscription plumbing uses.
type view interface {
	Apply(source string, ev docstore.Event) error
	DropSource(source string)
	Clear()
}

type Store struct {
	docs     docstore.Store
	prov     identity.Provider
	blobs    blobstore.Store
	resolver *identity.Resolver
	profiles *profiles.Store
	subs     *submissions.Store
	leaders  *leadership.Store
	notices  *announcements.Store
	flow     *moderation.Workflow
	clock    *moderation.Clock
	log      *zap.Logger
	now      func() time.Time
	shared   bool

	resolveMu sync.Mutex // one resolve in flight
	syncMu    sync.Mutex // one Sync in flight

	mu          sync.Mutex
	session     *Session
	gen         uint64 // bumped on every sign-out
	resolveErr  error  // last resolve failure, read by SignIn
	open        map[string]*token
	dirty       bool // session role or status changed; tiers need replanning
	forceOut    bool // own profile was removed or denied
	version     uint64
	closed      bool
	unsubscribe func()

	submissionViews map[models.Kind]*merge.View[models.Submission]
	leaderView      *merge.View[models.Leader]
	noticeView      *merge.View[models.Announcement]
	profileView     *merge.View[models.Profile]
	views           map[string]view // collection -> view
}

// New builds a Store, attaches it to the identity provider, and opens the
// tiers for the provider's current identity.
func New(d Deps) *Store {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.Clock == nil {
		d.Clock = moderation.NewClock(d.Now)
	}
	profileStore := profiles.New(d.Docs)
	subStore := submissions.New(d.Docs)

	s := &Store{
		docs:     d.Docs,
		prov:     d.Identity,
		blobs:    d.Blobs,
		resolver: identity.NewResolver(profileStore, d.Logger),
		profiles: profileStore,
		subs:     subStore,
		leaders:  leadership.New(d.Docs),
		notices:  announcements.New(d.Docs),
		flow:     moderation.New(subStore, d.Clock, d.Logger),
		clock:    d.Clock,
		log:      d.Logger,
		now:      d.Now,
		shared:   d.Shared,
		open:     make(map[string]*token),
	}
	s.initViews()
	s.unsubscribe = d.Identity.OnIdentityChange(s.onIdentity)
	return s
}

// Close detaches from the identity provider and closes every subscription.
// The Store is unusable afterwards.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsub := s.unsubscribe
	handles := s.killAllLocked()
	s.clearViewsLocked()
	s.session = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	closeAll(handles)
}

// CurrentSession returns a copy of the session, or nil when signed out.
func (s *Store) CurrentSession() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	cp := *s.session
	return &cp
}

// Shared reports whether the Store is the signed-out view shared by every
// browser without a session of its own.
func (s *Store) Shared() bool { return s.shared }

// Version increases every time a view or the session changes.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Sync replans subscriptions if the session's role or status changed since
// the last plan, and signs out if the session's profile was removed or
// denied. Changes made through this Store call it themselves; changes made
// elsewhere are picked up in the background.
func (s *Store) Sync(ctx context.Context) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	s.mu.Lock()
	dirty, out := s.dirty, s.forceOut
	s.dirty, s.forceOut = false, false
	s.mu.Unlock()

	if out {
		if err := s.prov.SignOut(ctx); err != nil {
			s.log.Warn("forced sign-out failed", zap.Error(err))
		}
		return
	}
	if dirty {
		s.replan(ctx)
	}
}
