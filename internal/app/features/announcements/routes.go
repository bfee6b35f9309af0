// internal/app/features/announcements/routes.go
package announcements

import (
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the announcement routes. Announcements are for signed-in
// visitors only; posting and deleting additionally need an admin, which
// the portal enforces.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Delete("/{id}", h.Delete)
	return r
}
