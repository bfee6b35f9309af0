// internal/app/features/announcements/announcements.go
package announcements

import (
	"net/http"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/portal"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type createRequest struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ExpiresAt time.Time `json:"expires_at"`
}

// List handles GET /announcements: unexpired announcements, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items := auth.Portal(r).Announcements()
	if items == nil {
		items = []models.Announcement{}
	}
	respond.OK(w, map[string]any{"items": items})
}

// Create handles POST /announcements.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	a, err := auth.Portal(r).AddAnnouncement(r.Context(), portal.AnnouncementInput{
		Title:     req.Title,
		Content:   req.Content,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.AnnouncementChanged(r.Context(), r, auth.CurrentSession(r).Email(), a.ID, "created")
	respond.JSON(w, http.StatusCreated, a)
}

// Delete handles DELETE /announcements/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := auth.Portal(r).DeleteAnnouncement(r.Context(), id); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.AnnouncementChanged(r.Context(), r, auth.CurrentSession(r).Email(), id, "deleted")
	w.WriteHeader(http.StatusNoContent)
}
