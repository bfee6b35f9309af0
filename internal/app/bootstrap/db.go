// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/clubhub/internal/app/store/audit"
	"github.com/dalemusser/clubhub/internal/app/store/identities"
	"github.com/dalemusser/clubhub/internal/app/store/oauthstate"
	"github.com/dalemusser/clubhub/internal/app/system/blobstore"
	"github.com/dalemusser/clubhub/internal/app/system/docstore/memstore"
	"github.com/dalemusser/clubhub/internal/app/system/docstore/mongostore"
	"github.com/dalemusser/clubhub/internal/app/system/identity"
	"github.com/dalemusser/clubhub/internal/app/system/indexes"
	"github.com/dalemusser/clubhub/internal/app/system/moderation"
	"github.com/dalemusser/clubhub/internal/app/system/portal"
	"github.com/dalemusser/clubhub/internal/app/system/sessionhub"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the document store and builds the backends around it:
// identity directory, OAuth state, audit recorder, blob store, and the hub
// of live portal sessions.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	var deps DBDeps
	timeouts.Configure(appCfg.Timeouts)

	if appCfg.DocStore == DocStoreMemory {
		logger.Info("using in-memory document store")
		deps.Docs = memstore.New()
		deps.Directory = identity.NewMemoryDirectory()
		deps.States = oauthstate.NewMemory()
	} else {
		client, err := connectMongo(ctx, appCfg, logger)
		if err != nil {
			return DBDeps{}, err
		}
		db := client.Database(appCfg.MongoDatabase)
		deps.MongoClient = client
		deps.MongoDatabase = db
		deps.Docs = mongostore.New(db, logger)
		deps.Directory = identities.New(db)
		deps.States = oauthstate.New(db)
		deps.AuditStore = audit.New(db)
	}

	if appCfg.BlobsEnabled() {
		blobs, err := blobstore.NewMinIO(blobstore.MinIOConfig{
			Endpoint:  appCfg.BlobEndpoint,
			AccessKey: appCfg.BlobAccessKey,
			SecretKey: appCfg.BlobSecretKey,
			Bucket:    appCfg.BlobBucket,
			UseSSL:    appCfg.BlobUseSSL,
			PublicURL: appCfg.BlobPublicURL,
		}, logger)
		if err != nil {
			return DBDeps{}, err
		}
		deps.Blobs = blobs
	} else {
		logger.Info("blob store not configured; uploads disabled")
	}

	var exchanger identity.Exchanger
	if appCfg.GoogleEnabled() {
		redirect := strings.TrimRight(appCfg.BaseURL, "/") + "/auth/google/callback"
		exchanger = identity.NewGoogle(appCfg.GoogleClientID, appCfg.GoogleClientSecret, redirect)
	}

	clock := moderation.NewClock(nil)
	deps.Sessions = sessionhub.New(func(shared bool) *portal.Store {
		return portal.New(portal.Deps{
			Docs:     deps.Docs,
			Identity: identity.NewClient(deps.Directory, exchanger),
			Blobs:    deps.Blobs,
			Clock:    clock,
			Logger:   logger,
			Shared:   shared,
		})
	}, appCfg.SessionIdle, logger)
	deps.Sessions.SetLimit(appCfg.MaxSessions)
	deps.Cleanup = workers.NewSessionCleanup(deps.Sessions, logger, sweepInterval(appCfg.SessionIdle))

	return deps, nil
}

func connectMongo(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(appCfg.MongoURI)
	if appCfg.MongoMaxPoolSize > 0 {
		opts.SetMaxPoolSize(appCfg.MongoMaxPoolSize)
	}
	if appCfg.MongoMinPoolSize > 0 {
		opts.SetMinPoolSize(appCfg.MongoMinPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool", appCfg.MongoMaxPoolSize))
	return client, nil
}

// sweepInterval checks for idle sessions a few times per idle window.
func sweepInterval(idle time.Duration) time.Duration {
	iv := idle / 4
	if iv < time.Minute {
		iv = time.Minute
	}
	return iv
}

type bucketEnsurer interface {
	EnsureBucket(ctx context.Context) error
}

// EnsureSchema creates indexes, the blob bucket, the resource catalog and
// the super admin profile. Every step is idempotent.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if db := deps.MongoDatabase; db != nil {
		if err := indexes.EnsureAll(ctx, db, logger); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
		if err := identities.New(db).EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure identity indexes: %w", err)
		}
		if err := audit.New(db).EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure audit indexes: %w", err)
		}
		if err := oauthstate.New(db).EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure oauth state indexes: %w", err)
		}
	}

	if b, ok := deps.Blobs.(bucketEnsurer); ok {
		if err := b.EnsureBucket(ctx); err != nil {
			return err
		}
	}

	if appCfg.SeedResources {
		if err := seedResources(ctx, deps, logger); err != nil {
			return fmt.Errorf("seed resources: %w", err)
		}
	}

	if appCfg.SuperAdminEmail != "" {
		if err := ensureSuperAdmin(ctx, deps, appCfg.SuperAdminEmail, logger); err != nil {
			return fmt.Errorf("ensure super admin: %w", err)
		}
	}
	return nil
}
