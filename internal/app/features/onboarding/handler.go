// internal/app/features/onboarding/handler.go
package onboarding

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/auth"
	onboardingsvc "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/onboarding"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler exposes invitation redemption over HTTP. The OAuth callback
// already redeems invitations on sign-in; this endpoint covers callers
// whose invitation arrived after their session was established.
type Handler struct {
	Onboarding *onboardingsvc.Service
	Log        *zap.Logger
}

// NewHandler creates an onboarding Handler.
func NewHandler(onboard *onboardingsvc.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Onboarding: onboard,
		Log:        logger,
	}
}

// acceptResponse carries the caller's agency binding after redemption.
// AgencyID is empty when the caller has no invitation and no binding.
type acceptResponse struct {
	AgencyID string `json:"agencyId"`
}

// ServeAccept handles POST /api/onboarding/accept. It redeems the caller's
// pending invitation, if any, and returns the resulting agency binding.
func (h *Handler) ServeAccept(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	caller, ok := auth.CurrentCaller(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	agencyID, err := h.Onboarding.AcceptInvitation(ctx, onboardingsvc.Claims{
		Subject:   caller.Subject,
		Name:      caller.Name,
		Email:     caller.Email,
		AvatarURL: caller.AvatarURL,
	})
	if err != nil {
		h.Log.Error("invitation redemption failed", zap.Error(err),
			zap.String("email", caller.Email))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(acceptResponse{AgencyID: agencyID})
}
