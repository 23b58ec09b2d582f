// internal/app/features/agencies/routes.go
package agencies

import (
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for agency endpoints, mounted under
// /api/agencies. Every route requires a signed-in caller.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Post("/", h.ServeUpsert)
	r.Get("/{agencyID}", h.ServeGet)
	r.Patch("/{agencyID}", h.ServeUpdate)
	r.Delete("/{agencyID}", h.ServeDelete)
	r.Get("/{agencyID}/notifications", h.ServeNotifications)

	return r
}
