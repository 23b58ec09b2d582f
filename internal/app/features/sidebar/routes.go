// internal/app/features/sidebar/routes.go
package sidebar

import (
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for sidebar endpoints, mounted under
// /api/sidebar. Every route requires a signed-in caller.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/context", h.ServeContext)
	r.Get("/agency", h.ServeAgencySidebar)
	r.Get("/subaccount/{subAccountID}", h.ServeSubAccountSidebar)

	return r
}
