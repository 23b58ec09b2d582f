// internal/app/features/subaccounts/routes.go
package subaccounts

import (
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for sub-account endpoints, mounted under
// /api/subaccounts. Every route requires a signed-in caller.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.ServeUpsert)
	r.Get("/{subAccountID}", h.ServeGet)
	r.Patch("/{subAccountID}", h.ServeUpdate)
	r.Delete("/{subAccountID}", h.ServeDelete)

	return r
}
