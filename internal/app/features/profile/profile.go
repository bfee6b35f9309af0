// internal/app/features/profile/profile.go
package profile

import (
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/formutil"
	"github.com/dalemusser/clubhub/internal/app/system/portal"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/domain/models"
)

type profileResponse struct {
	Profile   models.Profile `json:"profile"`
	CanUpload bool           `json:"can_upload"`
}

func body(s *portal.Session) profileResponse {
	return profileResponse{Profile: s.Profile, CanUpload: s.CanUpload()}
}

// ServeProfile handles GET /profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, body(auth.CurrentSession(r)))
}

// HandleUpdate handles PATCH /profile: a multipart form with an optional
// "display_name" field and an optional "photo" image.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := formutil.ParseMultipart(w, r); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	var upd portal.ProfileUpdate
	if vals, ok := r.MultipartForm.Value["display_name"]; ok && len(vals) > 0 {
		name := vals[0]
		upd.DisplayName = &name
	}
	photo, closeFn, err := formutil.Image(r, "photo")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	defer closeFn()
	upd.Photo = photo

	s, err := auth.Portal(r).UpdateProfile(r.Context(), upd)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, body(s))
}

type membershipRequest struct {
	Reason string `json:"reason"`
}

// HandleRequestMembership handles POST /profile/membership. The profile
// becomes pending until an admin approves or denies it.
func (h *Handler) HandleRequestMembership(w http.ResponseWriter, r *http.Request) {
	var req membershipRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	p := auth.Portal(r)
	if err := p.RequestMembership(r.Context(), req.Reason); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusAccepted, body(p.CurrentSession()))
}
