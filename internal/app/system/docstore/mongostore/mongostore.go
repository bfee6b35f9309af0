// Package mongostore implements docstore.Store on MongoDB. Subscriptions
// combine a change stream with an initial Find; the filter is evaluated
// locally on each full document so leaving the result set is reported as a
// removal. Change streams require a replica set.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dalemusser/clubhub/internal/app/system/docstore"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// codeUnauthorized is the server error code for a refused operation.
const codeUnauthorized = 13

type Store struct {
	db  *mongo.Database
	log *zap.Logger
}

func New(db *mongo.Database, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, log: logger}
}

type changeEvent struct {
	OperationType string `bson:"operationType"`
	DocumentKey   struct {
		ID string `bson:"_id"`
	} `bson:"documentKey"`
	FullDocument bson.Raw `bson:"fullDocument"`
}

type subscription struct {
	cancel context.CancelFunc
	once   sync.Once
}

func (s *subscription) Close() { s.once.Do(s.cancel) }

// Subscribe opens the change stream before reading the initial result set
// so no write between the two is lost. The initial snapshot is delivered
// before Subscribe returns; later events arrive on a separate goroutine.
func (s *Store) Subscribe(ctx context.Context, collection string, filter docstore.Filter, fn docstore.Handler) (docstore.Subscription, error) {
	c := s.db.Collection(collection)

	openCtx, cancelOpen := context.WithTimeout(ctx, timeouts.Snapshot())
	defer cancelOpen()

	stream, err := c.Watch(openCtx, mongo.Pipeline{},
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, mapErr(err)
	}

	cur, err := c.Find(openCtx, filter.BSON(), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		_ = stream.Close(context.Background())
		return nil, mapErr(err)
	}
	held := make(map[string]struct{})
	initial := docstore.Event{Full: true}
	for cur.Next(openCtx) {
		raw := make(bson.Raw, len(cur.Current))
		copy(raw, cur.Current)
		id, ok := raw.Lookup("_id").StringValueOK()
		if !ok {
			continue
		}
		held[id] = struct{}{}
		initial.Changes = append(initial.Changes, docstore.Change{Type: docstore.Added, ID: id, Doc: raw})
	}
	if err := cur.Err(); err != nil {
		_ = cur.Close(context.Background())
		_ = stream.Close(context.Background())
		return nil, mapErr(err)
	}
	_ = cur.Close(context.Background())

	fn(initial)

	subCtx, cancel := context.WithCancel(context.Background())
	sub := &subscription{cancel: cancel}
	go s.follow(subCtx, collection, stream, filter, held, fn)
	return sub, nil
}

func (s *Store) follow(ctx context.Context, collection string, stream *mongo.ChangeStream, filter docstore.Filter, held map[string]struct{}, fn docstore.Handler) {
	defer func() { _ = stream.Close(context.Background()) }()

	for stream.Next(ctx) {
		var ev changeEvent
		if err := stream.Decode(&ev); err != nil {
			s.log.Warn("change stream decode failed", zap.String("collection", collection), zap.Error(err))
			continue
		}
		switch ev.OperationType {
		case "insert", "update", "replace", "delete":
		case "drop", "invalidate", "dropDatabase":
			fn(docstore.Event{Err: fmt.Errorf("mongostore: %s on %s", ev.OperationType, collection)})
			return
		default:
			continue
		}

		id := ev.DocumentKey.ID
		_, had := held[id]
		match := ev.FullDocument != nil && filter.Matches(ev.FullDocument)
		var ch docstore.Change
		switch {
		case match && !had:
			held[id] = struct{}{}
			ch = docstore.Change{Type: docstore.Added, ID: id, Doc: ev.FullDocument}
		case match && had:
			ch = docstore.Change{Type: docstore.Modified, ID: id, Doc: ev.FullDocument}
		case !match && had:
			delete(held, id)
			ch = docstore.Change{Type: docstore.Removed, ID: id}
		default:
			continue
		}
		if ctx.Err() != nil {
			return
		}
		fn(docstore.Event{Changes: []docstore.Change{ch}})
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		fn(docstore.Event{Err: mapErr(err)})
	}
}

func (s *Store) Create(ctx context.Context, collection string, doc any) error {
	raw, _, err := docstore.Marshal(doc)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()
	if _, err := s.db.Collection(collection).InsertOne(ctx, raw); err != nil {
		if wafflemongo.IsDup(err) {
			return docstore.ErrExists
		}
		return mapErr(err)
	}
	return nil
}

func (s *Store) Set(ctx context.Context, collection string, doc any) error {
	raw, id, err := docstore.Marshal(doc)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()
	_, err = s.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, raw, options.Replace().SetUpsert(true))
	return mapErr(err)
}

func (s *Store) Update(ctx context.Context, collection, id string, patch docstore.Patch) error {
	set := bson.M{}
	unset := bson.M{}
	for k, v := range patch {
		if v == nil {
			unset[k] = ""
			continue
		}
		set[k] = v
	}
	upd := bson.M{}
	if len(set) > 0 {
		upd["$set"] = set
	}
	if len(unset) > 0 {
		upd["$unset"] = unset
	}
	if len(upd) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()
	res, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, upd)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()
	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapErr(err)
	}
	if res.DeletedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return docstore.ErrNotFound
	}
	return mapErr(err)
}

// mapErr translates authorization failures to docstore.ErrPermission.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorCode(codeUnauthorized) {
		return fmt.Errorf("%w: %v", docstore.ErrPermission, err)
	}
	return err
}
