package testutil

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultTestMongoURI = "mongodb://localhost:27017/?directConnection=true"

// TestContext returns a context bounded for a single test's database work.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// SetupTestDB connects to the test MongoDB (CLUBHUB_TEST_MONGO_URI or a local
// default) and returns a fresh database that is dropped when the test ends.
// The test is skipped when no server answers.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("CLUBHUB_TEST_MONGO_URI")
	if uri == "" {
		uri = defaultTestMongoURI
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(2*time.Second))
	if err != nil {
		t.Skipf("mongo unavailable: %v", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("mongo unavailable: %v", err)
	}

	name := "clubhub_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	db := client.Database(name)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

// RequireReplicaSet skips the test unless db's server supports change streams.
func RequireReplicaSet(t *testing.T, db *mongo.Database) {
	t.Helper()
	ctx, cancel := TestContext()
	defer cancel()
	cs, err := db.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		t.Skipf("change streams unavailable: %v", err)
	}
	_ = cs.Close(ctx)
}
