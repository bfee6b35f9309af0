// internal/app/features/members/routes.go
package members

import (
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all member routes under the path where the caller mounts it.
// Typically: r.Mount("/members", members.Routes(handler))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Directory: approved profiles, or every profile for admins.
	r.Get("/", h.ServeList)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleAdmin))

		pr.Post("/{email}/role", h.HandleRole)
		pr.Post("/{email}/upload", h.HandleToggleUpload)
		pr.Post("/{email}/approve", h.HandleApprove)
		pr.Post("/{email}/deny", h.HandleDeny)
		pr.Delete("/{email}", h.HandleDelete)
	})

	return r
}
