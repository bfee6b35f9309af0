// internal/app/features/members/list.go
package members

import (
	"net/http"
	"strings"

	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/app/system/respond"
	"github.com/dalemusser/clubhub/internal/domain/models"
)

type listResponse struct {
	Items       []models.Profile `json:"items"`
	SuperAdmins int              `json:"super_admins,omitempty"`
}

// ServeList handles GET /members. Optional filters: ?status=pending and
// ?role=member.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	p := auth.Portal(r)
	status := models.ProfileStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	role := models.Role(strings.TrimSpace(r.URL.Query().Get("role")))

	items := []models.Profile{}
	for _, prof := range p.Profiles() {
		if status != "" && prof.Status != status {
			continue
		}
		if role != "" && prof.Role != role {
			continue
		}
		items = append(items, prof)
	}

	resp := listResponse{Items: items}
	if s := p.CurrentSession(); s != nil && s.Role().IsAdmin() {
		resp.SuperAdmins = p.SuperAdmins()
	}
	respond.OK(w, resp)
}
