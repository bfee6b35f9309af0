// internal/app/features/members/handler.go
package members

import (
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler owns the member directory and profile administration.
type Handler struct {
	Audit *auditlog.Logger
	Log   *zap.Logger
}

// NewHandler constructs a members Handler.
func NewHandler(audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Audit: audit, Log: logger}
}

func emailParam(r *http.Request) string {
	return models.NormalizeEmail(chi.URLParam(r, "email"))
}

func actor(r *http.Request) string {
	if s := auth.CurrentSession(r); s != nil {
		return s.Email()
	}
	return ""
}
