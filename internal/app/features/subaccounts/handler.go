// internal/app/features/subaccounts/handler.go
package subaccounts

import (
	"context"
	"encoding/json"
	"net/http"

	subaccountstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/subaccounts"
	userstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/users"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/access"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/activity"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/auth"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/htmlsanitize"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/timeouts"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves the sub-account endpoints. Creation and deletion are
// agency-admin operations; reads go through the access service so grants
// are honored.
type Handler struct {
	SubAccounts *subaccountstore.Store
	Users       *userstore.Store
	Access      *access.Service
	Activity    *activity.Logger
	Log         *zap.Logger
}

// NewHandler creates a sub-accounts Handler.
func NewHandler(subAccounts *subaccountstore.Store, users *userstore.Store, accessSvc *access.Service, act *activity.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		SubAccounts: subAccounts,
		Users:       users,
		Access:      accessSvc,
		Activity:    act,
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

type upsertRequest struct {
	ID             string `json:"id"`
	AgencyID       string `json:"agencyId"`
	Name           string `json:"name"`
	CompanyEmail   string `json:"companyEmail"`
	SubAccountLogo string `json:"subAccountLogo"`
}

// ServeUpsert handles POST /api/subaccounts. A first insert seeds the
// owner's access grant, the default pipeline, and the default sidebar
// options; repeats update in place. Owner or admin of the owning agency
// only.
func (h *Handler) ServeUpsert(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, ok := h.currentUser(ctx, r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if user.AgencyID == "" || user.AgencyID != req.AgencyID || !isAgencyAdmin(user) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	creating := req.ID == ""
	if !creating {
		if _, err := h.SubAccounts.GetByID(ctx, req.ID); err == subaccountstore.ErrNotFound {
			creating = true
		}
	}

	sub, err := h.SubAccounts.Upsert(ctx, models.SubAccount{
		ID:             req.ID,
		AgencyID:       req.AgencyID,
		Name:           htmlsanitize.StripTags(req.Name),
		CompanyEmail:   req.CompanyEmail,
		SubAccountLogo: req.SubAccountLogo,
	})
	if err != nil {
		switch err {
		case subaccountstore.ErrMissingCompanyEmail, subaccountstore.ErrNoAgencyOwner:
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			h.Log.Error("sub-account upsert failed", zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	if err := h.Activity.Log(ctx, activity.Entry{
		Description:  "updated sub account | " + sub.Name,
		ActorEmail:   user.Email,
		SubAccountID: sub.ID,
	}); err != nil {
		h.Log.Warn("recording sub-account activity failed", zap.Error(err))
	}

	status := http.StatusOK
	if creating {
		status = http.StatusCreated
	}
	writeJSON(w, status, sub)
}

// ServeGet handles GET /api/subaccounts/{subAccountID}. The caller needs an
// access grant (or an agency owner/admin role) for the sub-account.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, ok := h.currentUser(ctx, r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	sub, err := h.SubAccounts.GetByID(ctx, chi.URLParam(r, "subAccountID"))
	if err != nil {
		if err == subaccountstore.ErrNotFound {
			http.Error(w, "sub-account not found", http.StatusNotFound)
			return
		}
		h.Log.Error("sub-account lookup failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	allowed, err := h.Access.CanAccessSubAccount(ctx, user, sub)
	if err != nil {
		h.Log.Error("access check failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !allowed {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	writeJSON(w, http.StatusOK, sub)
}

// ServeList handles GET /api/subaccounts. It returns the sub-accounts the
// caller holds an access grant for.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, ok := h.currentUser(ctx, r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	subs, err := h.Access.VisibleSubAccounts(ctx, user)
	if err != nil {
		if err == access.ErrNoAgency {
			http.Error(w, "no agency", http.StatusNotFound)
			return
		}
		h.Log.Error("visible sub-account list failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, subs)
}

type updateRequest struct {
	Name           string `json:"name"`
	CompanyEmail   string `json:"companyEmail"`
	SubAccountLogo string `json:"subAccountLogo"`
}

// ServeUpdate handles PATCH /api/subaccounts/{subAccountID}. Owner or admin
// of the owning agency only.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, ok := h.currentUser(ctx, r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	subAccountID := chi.URLParam(r, "subAccountID")
	sub, err := h.SubAccounts.GetByID(ctx, subAccountID)
	if err != nil {
		if err == subaccountstore.ErrNotFound {
			http.Error(w, "sub-account not found", http.StatusNotFound)
			return
		}
		h.Log.Error("sub-account lookup failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if user.AgencyID != sub.AgencyID || !isAgencyAdmin(user) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.SubAccounts.Update(ctx, subAccountID, subaccountstore.SubAccountUpdate{
		Name:           htmlsanitize.StripTags(req.Name),
		CompanyEmail:   req.CompanyEmail,
		SubAccountLogo: req.SubAccountLogo,
	}); err != nil {
		h.Log.Error("sub-account update failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	sub, err = h.SubAccounts.GetByID(ctx, subAccountID)
	if err != nil {
		h.Log.Error("sub-account reload failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if err := h.Activity.Log(ctx, activity.Entry{
		Description:  "updated sub account | " + sub.Name,
		ActorEmail:   user.Email,
		SubAccountID: sub.ID,
	}); err != nil {
		h.Log.Warn("recording sub-account activity failed", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, sub)
}

// ServeDelete handles DELETE /api/subaccounts/{subAccountID}. Owner or
// admin of the owning agency only. The deletion activity is recorded on
// the agency feed before the cascade removes the sub-account's own rows.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	user, ok := h.currentUser(ctx, r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	subAccountID := chi.URLParam(r, "subAccountID")
	sub, err := h.SubAccounts.GetByID(ctx, subAccountID)
	if err != nil {
		if err == subaccountstore.ErrNotFound {
			http.Error(w, "sub-account not found", http.StatusNotFound)
			return
		}
		h.Log.Error("sub-account lookup failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if user.AgencyID != sub.AgencyID || !isAgencyAdmin(user) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	if err := h.Activity.Log(ctx, activity.Entry{
		Description: "Deleted a subaccount | " + sub.Name,
		ActorEmail:  user.Email,
		AgencyID:    sub.AgencyID,
	}); err != nil {
		h.Log.Warn("recording sub-account delete activity failed", zap.Error(err))
	}

	deleted, err := h.SubAccounts.Delete(ctx, subAccountID)
	if err != nil {
		h.Log.Error("sub-account delete failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.Log.Info("sub-account deleted",
		zap.String("sub_account_id", subAccountID),
		zap.String("deleted_by", user.ID),
		zap.Int64("rows", deleted))

	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
