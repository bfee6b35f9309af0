// internal/app/features/content/handler.go
package content

import (
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/system/auditlog"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/domain/errs"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves the four moderated content kinds: projects, resources,
// opportunities and blog posts.
type Handler struct {
	Audit *auditlog.Logger
	Log   *zap.Logger
}

// NewHandler constructs a content Handler.
func NewHandler(audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Audit: audit, Log: logger}
}

// kindParam resolves the {kind} URL segment. It accepts the kind value or
// the collection name; an unknown kind has already been answered with 404.
func (h *Handler) kindParam(w http.ResponseWriter, r *http.Request) (models.Kind, bool) {
	k, ok := models.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		respond.Error(w, r, h.Log, errs.NotFound("Unknown content kind."))
		return "", false
	}
	return k, true
}
