// Package docstore defines the document store contract the portal core
// depends on: filtered real-time subscriptions that deliver ordered
// add/modify/remove changes, plus single-document CRUD.
//
// Two implementations exist: memstore (in-process, used in dev mode and
// tests) and mongostore (MongoDB with change streams).
package docstore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned by Get, Update, and Delete when the id does not exist.
	ErrNotFound = errors.New("docstore: document not found")
	// ErrExists is returned by Create when the id is already taken.
	ErrExists = errors.New("docstore: document already exists")
	// ErrPermission is delivered (or returned) when the backend refuses a query.
	ErrPermission = errors.New("docstore: permission denied")
	// ErrMissingID is returned when a document has no string _id.
	ErrMissingID = errors.New("docstore: document has no _id")
)

// ChangeType classifies one change in an Event.
type ChangeType int

const (
	Added ChangeType = iota + 1
	Modified
	Removed
)

func (t ChangeType) String() string {
	switch t {
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	}
	return fmt.Sprintf("ChangeType(%d)", int(t))
}

// Change is one document entering, changing within, or leaving a subscription's result set.
// Doc is nil for Removed.
type Change struct {
	Type ChangeType
	ID   string
	Doc  bson.Raw
}

// Event is one delivery to a subscription handler.
//
// Full is true for the initial snapshot, which lists every matching document
// as Added; anything the handler held from this subscription that is not in a
// full snapshot is gone. Err is set when the subscription failed; no further
// events follow an error.
type Event struct {
	Full    bool
	Changes []Change
	Err     error
}

// Handler receives events for one subscription, one at a time, in delivery order.
// Handlers must not call back into the Store that delivers to them.
type Handler func(Event)

// Subscription is an open real-time query.
type Subscription interface {
	// Close stops delivery. It is safe to call more than once.
	Close()
}

// Patch is a partial update. A nil value removes the field.
type Patch map[string]any

// Store is the document store contract.
type Store interface {
	// Subscribe opens a real-time query on collection. The handler receives a
	// full snapshot first, then incremental changes.
	Subscribe(ctx context.Context, collection string, filter Filter, fn Handler) (Subscription, error)

	// Create inserts doc, which must carry a string _id.
	Create(ctx context.Context, collection string, doc any) error
	// Set creates or replaces the document with doc's _id.
	Set(ctx context.Context, collection string, doc any) error
	// Update applies patch to the document with id.
	Update(ctx context.Context, collection, id string, patch Patch) error
	// Delete removes the document with id.
	Delete(ctx context.Context, collection, id string) error
	// Get decodes the document with id into out.
	Get(ctx context.Context, collection, id string, out any) error
}

// NewID returns a fresh document id.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// Decode unmarshals a change document into T.
func Decode[T any](raw bson.Raw) (T, error) {
	var v T
	err := bson.Unmarshal(raw, &v)
	return v, err
}

// Marshal encodes doc and returns it with its string _id.
func Marshal(doc any) (bson.Raw, string, error) {
	b, err := bson.Marshal(doc)
	if err != nil {
		return nil, "", err
	}
	raw := bson.Raw(b)
	id, ok := raw.Lookup("_id").StringValueOK()
	if !ok || id == "" {
		return nil, "", ErrMissingID
	}
	return raw, id, nil
}
