// internal/app/features/content/list.go
package content

import (
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/domain/errs"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type listResponse struct {
	Kind  models.Kind         `json:"kind"`
	Items []models.Submission `json:"items"`
}

// ServeList handles GET /content/{kind}: the caller's merged view, newest first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}
	items := auth.Portal(r).Submissions(kind)
	if items == nil {
		items = []models.Submission{}
	}
	respond.OK(w, listResponse{Kind: kind, Items: items})
}

// ServeOne handles GET /content/{kind}/{id}. Items outside the caller's
// view are reported as not found.
func (h *Handler) ServeOne(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	for _, s := range auth.Portal(r).Submissions(kind) {
		if s.ID == id {
			respond.OK(w, s)
			return
		}
	}
	respond.Error(w, r, h.Log, errs.NotFound("That "+kind.Label()+" no longer exists."))
}
