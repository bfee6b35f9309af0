// internal/app/features/profile/routes.go
package profile

import (
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the self-service profile routes. Typically:
// r.Mount("/profile", profile.Routes(h))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.ServeProfile)
	r.Patch("/", h.HandleUpdate)
	r.Post("/membership", h.HandleRequestMembership)
	return r
}
