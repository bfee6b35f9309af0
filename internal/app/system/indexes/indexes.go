// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/clubhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var problems []string

	if err := ensureProfiles(ctx, db, logger); err != nil {
		problems = append(problems, models.CollectionProfiles+": "+err.Error())
	}
	for _, k := range models.AllKinds {
		if err := ensureSubmissions(ctx, db.Collection(k.Collection()), logger); err != nil {
			problems = append(problems, k.Collection()+": "+err.Error())
		}
	}
	if err := ensureLeadership(ctx, db, logger); err != nil {
		problems = append(problems, models.CollectionLeadership+": "+err.Error())
	}
	if err := ensureAnnouncements(ctx, db, logger); err != nil {
		problems = append(problems, models.CollectionAnnouncements+": "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isUnique(b *bool) bool { return b != nil && *b }

func listIndexes(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := map[string]existingIndex{} // sig -> index
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

// ensureIndexSet creates each desired index, reusing one with the same key
// pattern and uniqueness and replacing one whose options differ. Names are
// aligned to the desired name.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, want []mongo.IndexModel, logger *zap.Logger) error {
	existing, err := listIndexes(ctx, coll)
	if err != nil {
		// a missing collection lists as an error on some servers; create anyway
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range want {
		var name string
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		log := logger.With(
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig))

		if ex, ok := existing[sig]; ok {
			if isUnique(unique) == isUnique(ex.Unique) && (name == "" || ex.Name == name) {
				log.Debug("reusing existing index")
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop existing index failed", zap.String("existing", ex.Name), zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if wafflemongo.IsDup(err) && isUnique(unique) {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			log.Warn("index ensure failed", zap.Error(err))
			continue
		}
		log.Info("index ensured",
			zap.Bool("unique", isUnique(unique)),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Per-collection index sets                                                  */
/* -------------------------------------------------------------------------- */

// Profiles are keyed by email (_id). The subscription tiers filter on
// status; the admin list sorts by folded name.
func ensureProfiles(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	return ensureIndexSet(ctx, db.Collection(models.CollectionProfiles), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "uid", Value: 1}},
			Options: options.Index().SetName("idx_profile_uid"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_profile_status_name"),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}},
			Options: options.Index().SetName("idx_profile_role"),
		},
	}, logger)
}

// Submissions are read by status (public tier) and by author (own tier),
// both newest first.
func ensureSubmissions(ctx context.Context, coll *mongo.Collection, logger *zap.Logger) error {
	return ensureIndexSet(ctx, coll, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_sub_status_created"),
		},
		{
			Keys:    bson.D{{Key: "author_email", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_sub_author_created"),
		},
	}, logger)
}

func ensureLeadership(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	return ensureIndexSet(ctx, db.Collection(models.CollectionLeadership), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "order", Value: 1}},
			Options: options.Index().SetName("idx_leader_order"),
		},
	}, logger)
}

// Announcements are filtered by expiry. Expired documents are kept; the
// views drop them at read time.
func ensureAnnouncements(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	return ensureIndexSet(ctx, db.Collection(models.CollectionAnnouncements), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("idx_announcement_expires"),
		},
	}, logger)
}
