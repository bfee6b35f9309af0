// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/clubhub/internal/app/store/oauthstate"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/app/system/blobstore"
	"github.com/dalemusser/clubhub/internal/app/system/docstore"
	"github.com/dalemusser/clubhub/internal/app/system/identity"
	"github.com/dalemusser/clubhub/internal/app/system/sessionhub"
	"github.com/dalemusser/clubhub/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the backends shared by every request.
//
// In memory mode MongoClient, MongoDatabase and AuditStore are nil.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	Docs       docstore.Store
	Directory  identity.Directory
	States     oauthstate.Tokens
	AuditStore auditlog.Recorder
	Blobs      blobstore.Store // nil disables uploads

	Sessions *sessionhub.Hub
	Cleanup  *workers.SessionCleanup
}
