// internal/app/features/content/routes.go
package content

import (
	"github.com/dalemusser/clubhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the content routes. Typically: r.Mount("/content", content.Routes(h))
//
// Listing is open to everyone; what each caller sees depends on their
// session. Role checks for moderation happen in the portal.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/{kind}", h.ServeList)
	r.Get("/{kind}/{id}", h.ServeOne)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Post("/{kind}", h.HandleSubmit)
		pr.Post("/{kind}/images", h.HandleImage)

		pr.Post("/{kind}/{id}/approve", h.HandleApprove)
		pr.Post("/{kind}/{id}/reject", h.HandleReject)
		pr.Delete("/{kind}/{id}", h.HandleDelete)
	})

	return r
}
