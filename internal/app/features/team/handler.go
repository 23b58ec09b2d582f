// internal/app/features/team/handler.go
package team

import (
	"context"
	"encoding/json"
	"net/http"

	invitationstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/invitations"
	permissionstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/permissions"
	subaccountstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/subaccounts"
	userstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/users"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/activity"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/auth"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/htmlsanitize"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/identity"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/timeouts"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves the team management endpoints of the caller's agency:
// member listing, member updates and removal, access grants, and
// invitations.
type Handler struct {
	Users       *userstore.Store
	Permissions *permissionstore.Store
	SubAccounts *subaccountstore.Store
	Invitations *invitationstore.Store
	Activity    *activity.Logger
	Identity    identity.Syncer
	Log         *zap.Logger
}

// NewHandler creates a team Handler.
func NewHandler(users *userstore.Store, permissions *permissionstore.Store, subAccounts *subaccountstore.Store, invitations *invitationstore.Store, act *activity.Logger, syncer identity.Syncer, logger *zap.Logger) *Handler {
	return &Handler{
		Users:       users,
		Permissions: permissions,
		SubAccounts: subAccounts,
		Invitations: invitations,
		Activity:    act,
		Identity:    syncer,
		Log:         logger,
	}
}

func (h *Handler) currentUser(ctx context.Context, r *http.Request) (models.User, bool) {
	caller, ok := auth.CurrentCaller(r)
	if !ok {
		return models.User{}, false
	}
	user, err := h.Users.GetByEmail(ctx, caller.Email)
	if err != nil {
		return models.User{}, false
	}
	return user, true
}

func isAgencyAdmin(u models.User) bool {
	return u.Role == models.RoleAgencyOwner || u.Role == models.RoleAgencyAdmin
}

// memberRow is a team member with their sub-account grants attached.
type memberRow struct {
	models.User
	Permissions []models.Permission `json:"permissions"`
}

// ServeMembers handles GET /api/team/members. It lists the caller's agency
// members, each with their access grants, sorted by folded name.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, ok := h.currentUser(ctx, r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if user.AgencyID == "" {
		http.Error(w, "no agency", http.StatusNotFound)
		return
	}

	members, err := h.Users.ListByAgency(ctx, user.AgencyID)
	if err != nil {
		h.Log.Error("member list failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	out := make([]memberRow, 0, len(members))
	for _, m := range members {
		perms, err := h.Permissions.ListByEmail(ctx, m.Email)
		if err != nil {
			h.Log.Error("permission list failed", zap.Error(err),
				zap.String("email", m.Email))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if perms == nil {
			perms = []models.Permission{}
		}
		out = append(out, memberRow{User: m, Permissions: perms})
	}

	writeJSON(w, http.StatusOK, out)
}

type updateMemberRequest struct {
	Name      string      `json:"name"`
	AvatarURL string      `json:"avatarUrl"`
	Role      models.Role `json:"role"`
}

// ServeUpdateMember handles PATCH /api/team/members/{userID}. Owner or
// admin only. A role change is mirrored to the identity provider; mirror
// failures are logged, never surfaced.
func (h *Handler) ServeUpdateMember(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, ok := h.currentUser(ctx, r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if !isAgencyAdmin(user) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	target, err := h.Users.GetByID(ctx, chi.URLParam(r, "userID"))
	if err != nil {
		if err == userstore.ErrNotFound {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		h.Log.Error("user lookup failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if target.AgencyID != user.AgencyID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var req updateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Role != "" {
		if !req.Role.IsValid() {
			http.Error(w, "invalid role", http.StatusUnprocessableEntity)
			return
		}
		// Ownership moves at agency creation, not through team edits.
		if req.Role == models.RoleAgencyOwner && target.Role != models.RoleAgencyOwner {
			http.Error(w, "cannot promote to agency owner", http.StatusUnprocessableEntity)
			return
		}
	}

	updated, err := h.Users.UpdateByEmail(ctx, target.Email, userstore.UserUpdate{
		Name:      htmlsanitize.StripTags(req.Name),
		AvatarURL: req.AvatarURL,
		Role:      req.Role,
	})
	if err != nil {
		h.Log.Error("member update failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if req.Role != "" {
		_ = h.Identity.SetRole(ctx, updated.ID, updated.Role)
	}

	if err := h.Activity.Log(ctx, activity.Entry{
		Description: "Updated " + updated.Name + " information",
		ActorEmail:  user.Email,
		AgencyID:    user.AgencyID,
	}); err != nil {
		h.Log.Warn("recording member update activity failed", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, updated)
}

// ServeDeleteMember handles DELETE /api/team/members/{userID}. Owner only.
// The member's access grants and mirrored claims go with them.
func (h *Handler) ServeDeleteMember(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, ok := h.currentUser(ctx, r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if user.Role != models.RoleAgencyOwner {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	target, err := h.Users.GetByID(ctx, chi.URLParam(r, "userID"))
	if err != nil {
		if err == userstore.ErrNotFound {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		h.Log.Error("user lookup failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if target.AgencyID != user.AgencyID || target.ID == user.ID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	if _, err := h.Permissions.DeleteByEmail(ctx, target.Email); err != nil {
		h.Log.Error("permission cleanup failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := h.Users.Delete(ctx, target.ID); err != nil {
		h.Log.Error("member delete failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	_ = h.Identity.Clear(ctx, target.ID)

	h.Log.Info("team member removed",
		zap.String("user_id", target.ID),
		zap.String("removed_by", user.ID))

	w.WriteHeader(http.StatusNoContent)
}

type permissionRequest struct {
	Email        string `json:"email"`
	SubAccountID string `json:"subAccountId"`
	Access       bool   `json:"access"`
}

// ServeSetPermission handles POST /api/team/permissions. Owner or admin
// only; the sub-account must belong to the caller's agency. A grant is
// recorded on the sub-account's feed; a revocation keeps the row with
// access=false.
func (h *Handler) ServeSetPermission(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, ok := h.currentUser(ctx, r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if !isAgencyAdmin(user) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var req permissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.SubAccountID == "" {
		http.Error(w, "email and subAccountId are required", http.StatusUnprocessableEntity)
		return
	}

	sub, err := h.SubAccounts.GetByID(ctx, req.SubAccountID)
	if err != nil {
		if err == subaccountstore.ErrNotFound {
			http.Error(w, "sub-account not found", http.StatusNotFound)
			return
		}
		h.Log.Error("sub-account lookup failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if sub.AgencyID != user.AgencyID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	perm, err := h.Permissions.Set(ctx, req.Email, req.SubAccountID, req.Access)
	if err != nil {
		h.Log.Error("permission set failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if req.Access {
		granteeName := req.Email
		if grantee, err := h.Users.GetByEmail(ctx, req.Email); err == nil {
			granteeName = grantee.Name
		}
		if err := h.Activity.Log(ctx, activity.Entry{
			Description:  "Gave " + granteeName + " access to | " + sub.Name,
			ActorEmail:   user.Email,
			SubAccountID: sub.ID,
		}); err != nil {
			h.Log.Warn("recording permission activity failed", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, perm)
}

type inviteRequest struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

// ServeInvite handles POST /api/team/invitations. Owner or admin only.
// The invitation is pending until the invitee signs in with that email.
func (h *Handler) ServeInvite(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, ok := h.currentUser(ctx, r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if user.AgencyID == "" || !isAgencyAdmin(user) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	inv, err := h.Invitations.Create(ctx, models.Invitation{
		Email:    req.Email,
		AgencyID: user.AgencyID,
		Role:     req.Role,
	})
	if err != nil {
		switch err {
		case invitationstore.ErrMissingEmail, invitationstore.ErrOwnerInvite, invitationstore.ErrInvalidRole:
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case invitationstore.ErrDuplicateEmail:
			http.Error(w, "an invitation for this email is already pending", http.StatusConflict)
		default:
			h.Log.Error("invitation create failed", zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	if err := h.Activity.Log(ctx, activity.Entry{
		Description: "Invited " + inv.Email,
		ActorEmail:  user.Email,
		AgencyID:    user.AgencyID,
	}); err != nil {
		h.Log.Warn("recording invitation activity failed", zap.Error(err))
	}

	writeJSON(w, http.StatusCreated, inv)
}

// ServeInvitations handles GET /api/team/invitations. Owner or admin only.
func (h *Handler) ServeInvitations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, ok := h.currentUser(ctx, r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if user.AgencyID == "" || !isAgencyAdmin(user) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	invs, err := h.Invitations.ListByAgency(ctx, user.AgencyID)
	if err != nil {
		h.Log.Error("invitation list failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if invs == nil {
		invs = []models.Invitation{}
	}

	writeJSON(w, http.StatusOK, invs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
