// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
)

// Document store modes.
const (
	DocStoreMongo  = "mongo"
	DocStoreMemory = "memory"
)

// AppConfig holds ClubHub configuration.
//
// WAFFLE's CoreConfig covers ports, TLS, logging and CORS. Everything the
// portal itself needs lives here and is passed to each lifecycle hook.
type AppConfig struct {
	// Document store
	DocStore         string // "mongo" or "memory"; memory keeps everything in-process
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Browser sessions
	SessionKey    string        // signs the session cookie (must be strong in production)
	SessionName   string        // cookie name
	SessionDomain string        // blank means current host
	SessionMaxAge time.Duration // cookie lifetime
	SessionIdle   time.Duration // hub sessions idle this long are closed
	MaxSessions   int           // live hub sessions; the least recently used is closed past this

	// Blob storage (S3-compatible). Uploads are disabled when BlobEndpoint is empty.
	BlobEndpoint  string
	BlobAccessKey string
	BlobSecretKey string
	BlobBucket    string
	BlobUseSSL    bool
	BlobPublicURL string

	// Google sign-in. Disabled when GoogleClientID is empty.
	GoogleClientID     string
	GoogleClientSecret string

	// BaseURL is the public origin, used for the OAuth redirect URL.
	BaseURL string

	// SuperAdminEmail is promoted (or created) as super_admin on startup.
	SuperAdminEmail string
	// SeedResources upserts the built-in resource catalog on startup.
	SeedResources bool

	// Timeouts overrides the default operation deadlines. Zero fields keep the default.
	Timeouts timeouts.Config

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth  string
	AuditLogAdmin string
}

// BlobsEnabled reports whether an S3-compatible store is configured.
func (c AppConfig) BlobsEnabled() bool { return c.BlobEndpoint != "" }

// GoogleEnabled reports whether Google sign-in is configured.
func (c AppConfig) GoogleEnabled() bool { return c.GoogleClientID != "" }
