// internal/app/features/content/moderate.go
package content

import (
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/go-chi/chi/v5"
)

type rejectRequest struct {
	Reason string `json:"reason"`
}

type statusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// HandleApprove handles POST /content/{kind}/{id}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := auth.Portal(r).Approve(r.Context(), kind, id); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.SubmissionApproved(r.Context(), r, actor(r), string(kind), id)
	respond.OK(w, statusResponse{ID: id, Status: "approved"})
}

// HandleReject handles POST /content/{kind}/{id}/reject with {"reason": "..."}.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}
	var req rejectRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := auth.Portal(r).Reject(r.Context(), kind, id, req.Reason); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.SubmissionRejected(r.Context(), r, actor(r), string(kind), id, req.Reason)
	respond.OK(w, statusResponse{ID: id, Status: "rejected"})
}

// HandleDelete handles DELETE /content/{kind}/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.kindParam(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := auth.Portal(r).Delete(r.Context(), kind, id); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.SubmissionDeleted(r.Context(), r, actor(r), string(kind), id)
	w.WriteHeader(http.StatusNoContent)
}

func actor(r *http.Request) string {
	if s := auth.CurrentSession(r); s != nil {
		return s.Email()
	}
	return ""
}
