// internal/app/features/sidebar/handler.go
package sidebar

import (
	"context"
	"encoding/json"
	"net/http"

	agencystore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/agencies"
	permissionstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/permissions"
	userstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/users"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/access"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/auth"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/timeouts"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler resolves what the signed-in caller's navigation shows: the
// branded logo, the scope's sidebar options, and the sub-accounts the
// caller may switch into.
type Handler struct {
	Users       *userstore.Store
	Agencies    *agencystore.Store
	Permissions *permissionstore.Store
	Access      *access.Service
	Log         *zap.Logger
}

// NewHandler creates a sidebar Handler.
func NewHandler(users *userstore.Store, agencies *agencystore.Store, permissions *permissionstore.Store, accessSvc *access.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Users:       users,
		Agencies:    agencies,
		Permissions: permissions,
		Access:      accessSvc,
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

// agencySidebarResponse is the agency-scope navigation payload.
type agencySidebarResponse struct {
	Logo        string                 `json:"logo"`
	Options     []models.SidebarOption `json:"options"`
	SubAccounts []models.SubAccount    `json:"subAccounts"`
}

// ServeAgencySidebar handles GET /api/sidebar/agency. The logo follows the
// branding cascade; sub-accounts are filtered to what the caller may see.
func (h *Handler) ServeAgencySidebar(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, ok := h.currentUser(ctx, r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	sb, err := h.Access.AgencySidebar(ctx, user)
	if err != nil {
		if err == access.ErrNoAgency {
			http.Error(w, "no agency", http.StatusNotFound)
			return
		}
		h.Log.Error("agency sidebar failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	subs, err := h.Access.VisibleSubAccounts(ctx, user)
	if err != nil {
		h.Log.Error("visible sub-account list failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if subs == nil {
		subs = []models.SubAccount{}
	}

	writeJSON(w, http.StatusOK, agencySidebarResponse{
		Logo:        sb.Logo,
		Options:     sb.Options,
		SubAccounts: subs,
	})
}

// ServeSubAccountSidebar handles GET /api/sidebar/subaccount/{subAccountID}.
// The caller needs access to the sub-account.
func (h *Handler) ServeSubAccountSidebar(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, ok := h.currentUser(ctx, r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	sb, err := h.Access.SubAccountSidebar(ctx, user, chi.URLParam(r, "subAccountID"))
	if err != nil {
		switch err {
		case access.ErrNoAccess:
			http.Error(w, "forbidden", http.StatusForbidden)
		default:
			h.Log.Error("sub-account sidebar failed", zap.Error(err))
			http.Error(w, "sub-account not found", http.StatusNotFound)
		}
		return
	}

	writeJSON(w, http.StatusOK, sb)
}

// contextResponse is the caller's full navigation context: their user
// record, the agency they belong to (if any), and their access grants.
type contextResponse struct {
	User        models.User         `json:"user"`
	Agency      *models.Agency      `json:"agency,omitempty"`
	Permissions []models.Permission `json:"permissions"`
}

// ServeContext handles GET /api/sidebar/context.
func (h *Handler) ServeContext(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, ok := h.currentUser(ctx, r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	resp := contextResponse{User: user}

	if user.AgencyID != "" {
		agency, err := h.Agencies.GetByID(ctx, user.AgencyID)
		if err != nil && err != agencystore.ErrNotFound {
			h.Log.Error("agency lookup failed", zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if err == nil {
			resp.Agency = &agency
		}
	}

	perms, err := h.Permissions.ListByEmail(ctx, user.Email)
	if err != nil {
		h.Log.Error("permission list failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if perms == nil {
		perms = []models.Permission{}
	}
	resp.Permissions = perms

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
