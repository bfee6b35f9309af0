// internal/app/features/leaders/leaders.go
package leaders

import (
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/portal"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type leaderRequest struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	Bio       string `json:"bio"`
	ImageURL  string `json:"image_url"`
	Order     int    `json:"order"`
	IsVisible *bool  `json:"is_visible"`
}

// input converts the request; visibility defaults to shown.
func (req leaderRequest) input() portal.LeaderInput {
	visible := true
	if req.IsVisible != nil {
		visible = *req.IsVisible
	}
	return portal.LeaderInput{
		Name:      req.Name,
		Role:      req.Role,
		Bio:       req.Bio,
		ImageURL:  req.ImageURL,
		Order:     req.Order,
		IsVisible: visible,
	}
}

// ServeList handles GET /leadership. Hidden entries are listed for admins only.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	items := auth.Portal(r).Leadership()
	if items == nil {
		items = []models.Leader{}
	}
	respond.OK(w, map[string]any{"items": items})
}

// HandleCreate handles POST /leadership.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req leaderRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	l, err := auth.Portal(r).AddLeader(r.Context(), req.input())
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.LeaderChanged(r.Context(), r, actor(r), l.ID, "created", l.Order)
	respond.JSON(w, http.StatusCreated, l)
}

// HandleUpdate handles PUT /leadership/{id}; the body replaces the entry.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req leaderRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	l, err := auth.Portal(r).UpdateLeader(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.LeaderChanged(r.Context(), r, actor(r), l.ID, "updated", l.Order)
	respond.OK(w, l)
}

// HandleToggle handles POST /leadership/{id}/toggle.
func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	visible, err := auth.Portal(r).ToggleLeaderVisibility(r.Context(), id)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	action := "hidden"
	if visible {
		action = "shown"
	}
	h.Audit.LeaderChanged(r.Context(), r, actor(r), id, action, 0)
	respond.OK(w, map[string]any{"id": id, "is_visible": visible})
}

// HandleDelete handles DELETE /leadership/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := auth.Portal(r).DeleteLeader(r.Context(), id); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.LeaderChanged(r.Context(), r, actor(r), id, "deleted", 0)
	w.WriteHeader(http.StatusNoContent)
}

func actor(r *http.Request) string {
	if s := auth.CurrentSession(r); s != nil {
		return s.Email()
	}
	return ""
}
