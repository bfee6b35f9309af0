package portal

import (
	"context"
	"errors"
	"sort"

	"github.com/dalemusser/clubhub/internal/app/system/docstore"
	"github.com/dalemusser/clubhub/internal/app/system/merge"
	"github.com/dalemusser/clubhub/internal/app/system/tiers"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.uber.org/zap"
)

// token tracks one open subscription. Once dead, its events are dropped.
type token struct {
	spec tiers.Spec
	sub  docstore.Subscription // nil until Subscribe returns
	dead bool
}

func (s *Store) initViews() {
	s.submissionViews = make(map[models.Kind]*merge.View[models.Submission], len(models.AllKinds))
	s.views = make(map[string]view)
	for _, k := range models.AllKinds {
		v := merge.New(docstore.Decode[models.Submission], newestSubmissionFirst)
		s.submissionViews[k] = v
		s.views[k.Collection()] = v
	}
	s.leaderView = merge.New(docstore.Decode[models.Leader], func(a, b models.Leader) bool {
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID < b.ID
	})
	s.noticeView = merge.New(docstore.Decode[models.Announcement], func(a, b models.Announcement) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	s.profileView = merge.New(docstore.Decode[models.Profile], func(a, b models.Profile) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.Email < b.Email
	})
	s.views[models.CollectionLeadership] = s.leaderView
	s.views[models.CollectionAnnouncements] = s.noticeView
	s.views[models.CollectionProfiles] = s.profileView
}

func newestSubmissionFirst(a, b models.Submission) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}

// replan brings the open subscriptions in line with the current session.
// Tiers that stay implied are left open.
func (s *Store) replan(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	var viewer *tiers.Viewer
	if s.session != nil {
		viewer = &tiers.Viewer{Email: s.session.Email(), Role: s.session.Role()}
	}
	specs := make(map[string]tiers.Spec, len(s.open))
	for key, tok := range s.open {
		specs[key] = tok.spec
	}
	toClose, toOpen := tiers.Diff(specs, tiers.Plan(viewer, s.now()))

	var handles []docstore.Subscription
	for _, spec := range toClose {
		if h := s.killLocked(spec.Key()); h != nil {
			handles = append(handles, h)
		}
	}
	fresh := make([]*token, 0, len(toOpen))
	for _, spec := range toOpen {
		tok := &token{spec: spec}
		s.open[spec.Key()] = tok
		fresh = append(fresh, tok)
	}
	if len(toClose) > 0 {
		s.version++
	}
	s.mu.Unlock()

	closeAll(handles)
	for _, tok := range fresh {
		s.subscribe(ctx, tok)
	}
	if len(toClose)+len(toOpen) > 0 {
		s.log.Debug("subscriptions replanned",
			zap.Int("closed", len(toClose)),
			zap.Int("opened", len(toOpen)))
	}
}

func (s *Store) subscribe(ctx context.Context, tok *token) {
	spec := tok.spec
	h, err := s.docs.Subscribe(ctx, spec.Collection, spec.Filter, func(ev docstore.Event) {
		s.deliver(tok, ev)
	})
	if err != nil {
		s.mu.Lock()
		if !tok.dead {
			s.killLocked(spec.Key())
		}
		s.mu.Unlock()
		s.logSubscribeFailure(spec, err)
		return
	}

	s.mu.Lock()
	dead := tok.dead
	if !dead {
		tok.sub = h
	}
	s.mu.Unlock()
	if dead {
		h.Close()
	}
}

// deliver folds one event into the views. Events for a dead token are dropped.
func (s *Store) deliver(tok *token, ev docstore.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.dead {
		return
	}
	spec := tok.spec

	if ev.Err != nil {
		s.killLocked(spec.Key())
		s.version++
		s.logSubscribeFailure(spec, ev.Err)
		return
	}

	if spec.Collection == models.CollectionProfiles && spec.Tier == tiers.Own {
		s.applySelfLocked(spec, ev)
		return
	}

	v := s.views[spec.Collection]
	if v == nil {
		return
	}
	if err := v.Apply(spec.Key(), ev); err != nil {
		s.log.Warn("undecodable document skipped",
			zap.String("collection", spec.Collection),
			zap.Error(err))
	}
	s.version++
}

// applySelfLocked refreshes the session profile from the own-profile
// subscription. A role or status change marks the tiers for replanning.
func (s *Store) applySelfLocked(spec tiers.Spec, ev docstore.Event) {
	if s.session == nil || s.session.Email() != spec.Scope {
		return
	}
	for _, ch := range ev.Changes {
		if ch.ID != spec.Scope {
			continue
		}
		if ch.Type == docstore.Removed {
			s.forceOut = true
			s.log.Info("signed-in profile removed", zap.String("email", spec.Scope))
			continue
		}
		p, err := docstore.Decode[models.Profile](ch.Doc)
		if err != nil {
			s.log.Warn("undecodable profile skipped", zap.String("email", spec.Scope), zap.Error(err))
			continue
		}
		prev := s.session.Profile
		s.session.Profile = p
		s.version++
		if p.Status == models.ProfileDenied {
			s.forceOut = true
		}
		if p.Role != prev.Role || p.Status != prev.Status {
			s.dirty = true
		}
	}
	if s.dirty || s.forceOut {
		go s.Sync(context.Background())
	}
}

func (s *Store) logSubscribeFailure(spec tiers.Spec, err error) {
	fields := []zap.Field{
		zap.String("collection", spec.Collection),
		zap.String("tier", string(spec.Tier)),
		zap.String("filter", spec.Filter.String()),
		zap.Error(err),
	}
	if errors.Is(err, docstore.ErrPermission) {
		s.log.Warn("subscription refused by backend", fields...)
		return
	}
	s.log.Error("subscription failed", fields...)
}

// killLocked marks the token for key dead, forgets it, and drops what it
// contributed. It returns the handle to close once mu is released.
func (s *Store) killLocked(key string) docstore.Subscription {
	tok, ok := s.open[key]
	if !ok {
		return nil
	}
	tok.dead = true
	delete(s.open, key)
	if v := s.views[tok.spec.Collection]; v != nil {
		v.DropSource(key)
	}
	return tok.sub
}

func (s *Store) killAllLocked() []docstore.Subscription {
	keys := make([]string, 0, len(s.open))
	for key := range s.open {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var handles []docstore.Subscription
	for _, key := range keys {
		if h := s.killLocked(key); h != nil {
			handles = append(handles, h)
		}
	}
	return handles
}

func (s *Store) clearViewsLocked() {
	for _, v := range s.views {
		v.Clear()
	}
	s.version++
}

func closeAll(handles []docstore.Subscription) {
	for _, h := range handles {
		h.Close()
	}
}
