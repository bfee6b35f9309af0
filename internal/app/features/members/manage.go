// internal/app/features/members/manage.go
package members

import (
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/domain/errs"
	"github.com/dalemusser/clubhub/internal/domain/models"
)

type roleRequest struct {
	Role string `json:"role"`
}

// HandleRole handles POST /members/{email}/role with {"role": "member"}.
func (h *Handler) HandleRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	role, ok := models.ParseRole(req.Role)
	if !ok {
		respond.Error(w, r, h.Log, errs.Validation("Unknown role."))
		return
	}
	email := emailParam(r)
	p := auth.Portal(r)
	from := ""
	for _, prof := range p.Profiles() {
		if prof.Email == email {
			from = string(prof.Role)
			break
		}
	}
	if err := p.UpdateRole(r.Context(), email, role); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.RoleChanged(r.Context(), r, actor(r), email, from, string(role))
	respond.OK(w, map[string]string{"email": email, "role": string(role)})
}

// HandleToggleUpload handles POST /members/{email}/upload.
func (h *Handler) HandleToggleUpload(w http.ResponseWriter, r *http.Request) {
	email := emailParam(r)
	next, err := auth.Portal(r).ToggleUpload(r.Context(), email)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.UploadToggled(r.Context(), r, actor(r), email, next)
	respond.OK(w, map[string]any{"email": email, "can_upload": next})
}

// HandleApprove handles POST /members/{email}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	email := emailParam(r)
	if err := auth.Portal(r).ApproveUser(r.Context(), email); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.UserApproved(r.Context(), r, actor(r), email)
	respond.OK(w, map[string]string{"email": email, "status": string(models.ProfileApproved)})
}

// HandleDeny handles POST /members/{email}/deny. A denied member is signed
// out of any open session and cannot sign in again.
func (h *Handler) HandleDeny(w http.ResponseWriter, r *http.Request) {
	email := emailParam(r)
	if err := auth.Portal(r).DenyUser(r.Context(), email); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.UserDenied(r.Context(), r, actor(r), email)
	respond.OK(w, map[string]string{"email": email, "status": string(models.ProfileDenied)})
}

// HandleDelete handles DELETE /members/{email}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	email := emailParam(r)
	if err := auth.Portal(r).DeleteUser(r.Context(), email); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Audit.UserDeleted(r.Context(), r, actor(r), email)
	w.WriteHeader(http.StatusNoContent)
}
