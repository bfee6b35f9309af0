package authflow

import "github.com/go-chi/chi/v5"

// Routes returns the router mounted under /auth.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/session", h.ServeSession)
	r.Post("/signin", h.HandleSignIn)
	r.Post("/signup", h.HandleSignUp)
	r.Post("/signout", h.HandleSignOut)
	r.Get("/google", h.StartGoogle)
	r.Get("/google/callback", h.FinishGoogle)
	return r
}
