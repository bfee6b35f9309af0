// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	announcementsfeature "github.com/dalemusser/clubhub/internal/app/features/announcements"
	authflowfeature "github.com/dalemusser/clubhub/internal/app/features/authflow"
	contentfeature "github.com/dalemusser/clubhub/internal/app/features/content"
	healthfeature "github.com/dalemusser/clubhub/internal/app/features/health"
	leadersfeature "github.com/dalemusser/clubhub/internal/app/features/leaders"
	membersfeature "github.com/dalemusser/clubhub/internal/app/features/members"
	profilefeature "github.com/dalemusser/clubhub/internal/app/features/profile"
	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler.
//
// Every request is bound to its live portal session by the session cookie,
// or to the shared signed-out Store when it has none; feature routers read
// it with auth.Portal(r). Sessions are opened only by sign-in and sign-up. The JSON surface is:
//
//	/health          liveness and database ping
//	/auth            sign-in, sign-up, sign-out, Google OAuth
//	/content/{kind}  submissions and moderation
//	/announcements   announcements (signed in)
//	/leadership      leadership roster
//	/members         profiles and member administration
//	/profile         the caller's own profile
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain,
		appCfg.SessionMaxAge, secure, deps.Sessions, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	auditLog := auditlog.New(deps.AuditStore, logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	r := chi.NewRouter()

	// Health check sits outside the session middleware so probes do not
	// open hub sessions.
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Sessions, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Group(func(r chi.Router) {
		r.Use(sessionMgr.LoadPortal)

		authHandler := authflowfeature.NewHandler(deps.States, auditLog, logger)
		authHandler.Limits = ratelimit.NewSignInLimiter()
		authHandler.BeginSession = sessionMgr.Begin
		authHandler.EndSession = sessionMgr.Destroy
		r.Mount("/auth", authflowfeature.Routes(authHandler))

		contentHandler := contentfeature.NewHandler(auditLog, logger)
		r.Mount("/content", contentfeature.Routes(contentHandler))

		noticesHandler := announcementsfeature.NewHandler(auditLog, logger)
		r.Mount("/announcements", announcementsfeature.Routes(noticesHandler))

		leadersHandler := leadersfeature.NewHandler(auditLog, logger)
		r.Mount("/leadership", leadersfeature.Routes(leadersHandler))

		membersHandler := membersfeature.NewHandler(auditLog, logger)
		r.Mount("/members", membersfeature.Routes(membersHandler))

		profileHandler := profilefeature.NewHandler(logger)
		r.Mount("/profile", profilefeature.Routes(profileHandler))
	})

	return r, nil
}
