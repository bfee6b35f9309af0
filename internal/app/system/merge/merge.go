// Package merge folds change events from several overlapping subscriptions
// into one deduplicated, ordered view.
//
// Every id remembers which sources currently hold it. A document stays in
// the view while at least one live source holds it, so a removal reported by
// one tier never hides a copy another tier still returns. The stored value
// is whichever source wrote last; all sources read the same underlying
// document, so they converge.
//
// A View is not safe for concurrent use; callers hold their own lock.
package merge

import (
	"sort"

	"github.com/dalemusser/clubhub/internal/app/system/docstore"
	"go.mongodb.org/mongo-driver/bson"
)

type entry[T any] struct {
	val     T
	sources map[string]struct{}
}

type View[T any] struct {
	decode func(bson.Raw) (T, error)
	less   func(a, b T) bool
	items  map[string]*entry[T]
}

// New returns an empty view. less orders List output.
func New[T any](decode func(bson.Raw) (T, error), less func(a, b T) bool) *View[T] {
	return &View[T]{decode: decode, less: less, items: make(map[string]*entry[T])}
}

// Apply folds ev from source into the view. Undecodable documents are
// skipped; the first decode error is returned after the rest are applied.
func (v *View[T]) Apply(source string, ev docstore.Event) error {
	var firstErr error

	if ev.Full {
		present := make(map[string]struct{}, len(ev.Changes))
		for _, ch := range ev.Changes {
			present[ch.ID] = struct{}{}
		}
		for id, e := range v.items {
			if _, ok := e.sources[source]; !ok {
				continue
			}
			if _, ok := present[id]; !ok {
				v.release(id, source)
			}
		}
	}

	for _, ch := range ev.Changes {
		switch ch.Type {
		case docstore.Added, docstore.Modified:
			val, err := v.decode(ch.Doc)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			e, ok := v.items[ch.ID]
			if !ok {
				e = &entry[T]{sources: make(map[string]struct{}, 1)}
				v.items[ch.ID] = e
			}
			e.val = val
			e.sources[source] = struct{}{}
		case docstore.Removed:
			v.release(ch.ID, source)
		}
	}
	return firstErr
}

// DropSource forgets everything source contributed.
func (v *View[T]) DropSource(source string) {
	for id, e := range v.items {
		if _, ok := e.sources[source]; ok {
			v.release(id, source)
		}
	}
}

// Clear empties the view.
func (v *View[T]) Clear() {
	v.items = make(map[string]*entry[T])
}

func (v *View[T]) Len() int { return len(v.items) }

func (v *View[T]) Get(id string) (T, bool) {
	e, ok := v.items[id]
	if !ok {
		var zero T
		return zero, false
	}
	return e.val, true
}

// List returns every visible document in order.
func (v *View[T]) List() []T {
	out := make([]T, 0, len(v.items))
	for _, e := range v.items {
		out = append(out, e.val)
	}
	v.sort(out)
	return out
}

// SourceList returns, in order, the documents source currently holds.
func (v *View[T]) SourceList(source string) []T {
	out := make([]T, 0)
	for _, e := range v.items {
		if _, ok := e.sources[source]; ok {
			out = append(out, e.val)
		}
	}
	v.sort(out)
	return out
}

func (v *View[T]) sort(items []T) {
	if v.less == nil {
		return
	}
	sort.SliceStable(items, func(i, j int) bool { return v.less(items[i], items[j]) })
}

func (v *View[T]) release(id, source string) {
	e, ok := v.items[id]
	if !ok {
		return
	}
	delete(e.sources, source)
	if len(e.sources) == 0 {
		delete(v.items, id)
	}
}
