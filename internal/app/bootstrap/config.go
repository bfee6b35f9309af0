// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for ClubHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: CLUBHUB_MONGO_URI, CLUBHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "docstore", Default: DocStoreMongo, Desc: "Document store: 'mongo' or 'memory'"},
	{Name: "mongo_uri", Default: "mongodb://localhost:27017/?replicaSet=rs0", Desc: "MongoDB connection URI (change streams need a replica set)"},
	{Name: "mongo_database", Default: "clubhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "clubhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime"},
	{Name: "session_idle", Default: "2h", Desc: "Close live sessions idle this long"},
	{Name: "max_sessions", Default: 10000, Desc: "Maximum live signed-in sessions; least recently used is closed first"},

	// Blob storage
	{Name: "blob_endpoint", Default: "", Desc: "S3-compatible endpoint host:port (blank disables uploads)"},
	{Name: "blob_access_key", Default: "", Desc: "Blob store access key"},
	{Name: "blob_secret_key", Default: "", Desc: "Blob store secret key"},
	{Name: "blob_bucket", Default: "clubhub", Desc: "Blob store bucket"},
	{Name: "blob_use_ssl", Default: true, Desc: "Use TLS for the blob endpoint"},
	{Name: "blob_public_url", Default: "", Desc: "Public URL prefix for stored objects (blank uses endpoint/bucket)"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Public base URL (OAuth redirect)"},

	{Name: "superadmin_email", Default: "", Desc: "Email of the super admin (promotes/creates on startup)"},
	{Name: "seed_resources", Default: true, Desc: "Upsert the built-in resource catalog on startup"},

	// Operation deadlines
	{Name: "timeout_ping", Default: "2s", Desc: "Health check deadline"},
	{Name: "timeout_short", Default: "5s", Desc: "Single-document read/write deadline"},
	{Name: "timeout_snapshot", Default: "10s", Desc: "Subscription open + initial snapshot deadline"},
	{Name: "timeout_long", Default: "30s", Desc: "Blob upload and multi-collection deadline"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// Precedence is flags > env (WAFFLE_* for core, CLUBHUB_* for app) >
// config files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CLUBHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		DocStore:         appValues.String("docstore"),
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 30*24*time.Hour),
		SessionIdle:   appValues.Duration("session_idle", 2*time.Hour),
		MaxSessions:   appValues.Int("max_sessions"),

		BlobEndpoint:  appValues.String("blob_endpoint"),
		BlobAccessKey: appValues.String("blob_access_key"),
		BlobSecretKey: appValues.String("blob_secret_key"),
		BlobBucket:    appValues.String("blob_bucket"),
		BlobUseSSL:    appValues.Bool("blob_use_ssl"),
		BlobPublicURL: appValues.String("blob_public_url"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		BaseURL: appValues.String("base_url"),

		SuperAdminEmail: appValues.String("superadmin_email"),
		SeedResources:   appValues.Bool("seed_resources"),

		Timeouts: timeouts.Config{
			Ping:     appValues.Duration("timeout_ping", timeouts.DefaultPing),
			Short:    appValues.Duration("timeout_short", timeouts.DefaultShort),
			Snapshot: appValues.Duration("timeout_snapshot", timeouts.DefaultSnapshot),
			Long:     appValues.Duration("timeout_long", timeouts.DefaultLong),
		},

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),
	}

	return coreCfg, appCfg, nil
}

var auditModes = map[string]bool{"all": true, "db": true, "log": true, "off": true}

// ValidateConfig rejects configurations that cannot start.
//
// The Mongo URI is only checked in mongo mode; memory mode never dials.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	switch appCfg.DocStore {
	case DocStoreMongo:
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
	case DocStoreMemory:
		if coreCfg != nil && coreCfg.Env == "prod" {
			logger.Warn("memory document store in prod: data is lost on restart")
		}
	default:
		return fmt.Errorf("docstore must be %q or %q, got %q", DocStoreMongo, DocStoreMemory, appCfg.DocStore)
	}

	if appCfg.SessionIdle <= 0 {
		return fmt.Errorf("session_idle must be positive, got %s", appCfg.SessionIdle)
	}
	if appCfg.MaxSessions < 0 {
		return fmt.Errorf("max_sessions must not be negative, got %d", appCfg.MaxSessions)
	}
	if !auditModes[appCfg.AuditLogAuth] || !auditModes[appCfg.AuditLogAdmin] {
		return fmt.Errorf("audit_log_auth and audit_log_admin must be one of all, db, log, off")
	}
	if appCfg.BlobsEnabled() && appCfg.BlobBucket == "" {
		return fmt.Errorf("blob_bucket is required when blob_endpoint is set")
	}
	if appCfg.GoogleEnabled() && (appCfg.GoogleClientSecret == "" || appCfg.BaseURL == "") {
		return fmt.Errorf("google sign-in requires google_client_secret and base_url")
	}
	return nil
}
