// Package memstore is an in-process docstore.Store. Writes are delivered to
// matching subscriptions synchronously, before the write call returns, so
// tests can observe views without waiting.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/dalemusser/clubhub/internal/app/system/docstore"
	"go.mongodb.org/mongo-driver/bson"
)

// Rule decides whether a subscription is allowed. A non-nil error is
// delivered to the handler as the subscription's only event.
type Rule func(collection string, filter docstore.Filter) error

type Store struct {
	mu    sync.Mutex
	docs  map[string]map[string]bson.Raw
	subs  map[string]map[*sub]struct{}
	rule  Rule
	fails map[string]error // collection -> injected write error
}

type sub struct {
	s      *Store
	coll   string
	filter docstore.Filter
	fn     docstore.Handler
	held   map[string]struct{}
	closed bool
}

func New() *Store {
	return &Store{
		docs:  make(map[string]map[string]bson.Raw),
		subs:  make(map[string]map[*sub]struct{}),
		fails: make(map[string]error),
	}
}

// SetRule installs a subscription rule. Nil allows everything.
func (s *Store) SetRule(r Rule) {
	s.mu.Lock()
	s.rule = r
	s.mu.Unlock()
}

// FailWrites makes every write to collection return err until cleared with nil.
func (s *Store) FailWrites(collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fails, collection)
		return
	}
	s.fails[collection] = err
}

// Subscribers returns the number of open subscriptions on collection.
func (s *Store) Subscribers(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[collection])
}

func (s *Store) Subscribe(ctx context.Context, collection string, filter docstore.Filter, fn docstore.Handler) (docstore.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sb := &sub{s: s, coll: collection, filter: filter, fn: fn, held: make(map[string]struct{})}
	if s.rule != nil {
		if err := s.rule(collection, filter); err != nil {
			sb.closed = true
			fn(docstore.Event{Err: err})
			return sb, nil
		}
	}

	ids := make([]string, 0, len(s.docs[collection]))
	for id, raw := range s.docs[collection] {
		if filter.Matches(raw) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	ev := docstore.Event{Full: true, Changes: make([]docstore.Change, 0, len(ids))}
	for _, id := range ids {
		sb.held[id] = struct{}{}
		ev.Changes = append(ev.Changes, docstore.Change{Type: docstore.Added, ID: id, Doc: s.docs[collection][id]})
	}

	if s.subs[collection] == nil {
		s.subs[collection] = make(map[*sub]struct{})
	}
	s.subs[collection][sb] = struct{}{}
	fn(ev)
	return sb, nil
}

func (sb *sub) Close() {
	sb.s.mu.Lock()
	defer sb.s.mu.Unlock()
	if sb.closed {
		return
	}
	sb.closed = true
	delete(sb.s.subs[sb.coll], sb)
}

func (s *Store) Create(ctx context.Context, collection string, doc any) error {
	raw, id, err := docstore.Marshal(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writable(ctx, collection); err != nil {
		return err
	}
	if _, ok := s.docs[collection][id]; ok {
		return docstore.ErrExists
	}
	s.put(collection, id, raw)
	return nil
}

func (s *Store) Set(ctx context.Context, collection string, doc any) error {
	raw, id, err := docstore.Marshal(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writable(ctx, collection); err != nil {
		return err
	}
	s.put(collection, id, raw)
	return nil
}

func (s *Store) Update(ctx context.Context, collection, id string, patch docstore.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writable(ctx, collection); err != nil {
		return err
	}
	cur, ok := s.docs[collection][id]
	if !ok {
		return docstore.ErrNotFound
	}
	var m bson.D
	if err := bson.Unmarshal(cur, &m); err != nil {
		return err
	}
	for k, v := range patch {
		m = setField(m, k, v)
	}
	b, err := bson.Marshal(m)
	if err != nil {
		return err
	}
	s.put(collection, id, b)
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writable(ctx, collection); err != nil {
		return err
	}
	if _, ok := s.docs[collection][id]; !ok {
		return docstore.ErrNotFound
	}
	delete(s.docs[collection], id)
	s.notify(collection, id, nil)
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	raw, ok := s.docs[collection][id]
	s.mu.Unlock()
	if !ok {
		return docstore.ErrNotFound
	}
	return bson.Unmarshal(raw, out)
}

func (s *Store) writable(ctx context.Context, collection string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.fails[collection]
}

// put stores raw and notifies subscribers. Caller holds mu.
func (s *Store) put(collection, id string, raw bson.Raw) {
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string]bson.Raw)
	}
	s.docs[collection][id] = raw
	s.notify(collection, id, raw)
}

// notify delivers the change for id to every subscription on collection.
// raw is nil for deletes. Caller holds mu.
func (s *Store) notify(collection, id string, raw bson.Raw) {
	for sb := range s.subs[collection] {
		_, had := sb.held[id]
		match := raw != nil && sb.filter.Matches(raw)
		var ch docstore.Change
		switch {
		case match && !had:
			sb.held[id] = struct{}{}
			ch = docstore.Change{Type: docstore.Added, ID: id, Doc: raw}
		case match && had:
			ch = docstore.Change{Type: docstore.Modified, ID: id, Doc: raw}
		case !match && had:
			delete(sb.held, id)
			ch = docstore.Change{Type: docstore.Removed, ID: id}
		default:
			continue
		}
		sb.fn(docstore.Event{Changes: []docstore.Change{ch}})
	}
}

func setField(d bson.D, key string, v any) bson.D {
	for i, e := range d {
		if e.Key != key {
			continue
		}
		if v == nil {
			return append(d[:i], d[i+1:]...)
		}
		d[i].Value = v
		return d
	}
	if v == nil {
		return d
	}
	return append(d, bson.E{Key: key, Value: v})
}
