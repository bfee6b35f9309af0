// internal/app/features/leaders/routes.go
package leaders

import (
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the leadership routes. Typically: r.Mount("/leadership", leaders.Routes(h))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleAdmin))
		pr.Post("/", h.HandleCreate)
		pr.Put("/{id}", h.HandleUpdate)
		pr.Post("/{id}/toggle", h.HandleToggle)
		pr.Delete("/{id}", h.HandleDelete)
	})
	return r
}
