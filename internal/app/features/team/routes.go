// internal/app/features/team/routes.go
package team

import (
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for team endpoints, mounted under /api/team.
// Every route requires a signed-in caller; the handler gates on roles.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/members", h.ServeMembers)
	r.Patch("/members/{userID}", h.ServeUpdateMember)
	r.Delete("/members/{userID}", h.ServeDeleteMember)
	r.Post("/permissions", h.ServeSetPermission)
	r.Get("/invitations", h.ServeInvitations)
	r.Post("/invitations", h.ServeInvite)

	return r
}
