// internal/app/features/onboarding/routes.go
package onboarding

import (
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for onboarding endpoints, mounted under
// /api/onboarding.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Post("/accept", h.ServeAccept)

	return r
}
