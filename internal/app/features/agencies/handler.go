// internal/app/features/agencies/handler.go
package agencies

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	agencystore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/agencies"
	notificationstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/notifications"
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

// Handler serves the agency management endpoints. All routes sit behind
// auth.RequireSignedIn; the handler additionally gates every operation on
// the caller's agency binding and role.
type Handler struct {
	Agencies      *agencystore.Store
	Users         *userstore.Store
	Notifications *notificationstore.Store
	Activity      *activity.Logger
	Identity      identity.Syncer
	Log           *zap.Logger
}

// NewHandler creates an agencies Handler.
func NewHandler(agencies *agencystore.Store, users *userstore.Store, notifications *notificationstore.Store, act *activity.Logger, syncer identity.Syncer, logger *zap.Logger) *Handler {
	return &Handler{
		Agencies:      agencies,
		Users:         users,
		Notifications: notifications,
		Activity:      act,
		Identity:      syncer,
		Log:           logger,
	}
}

// currentUser resolves the signed-in caller's user record.
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
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	CompanyEmail string      `json:"companyEmail"`
	AgencyLogo   string      `json:"agencyLogo"`
	WhiteLabel   bool        `json:"whiteLabel"`
	Plan         models.Plan `json:"plan"`
}

// ServeUpsert handles POST /api/agencies.
//
// With no id (or an unknown one) it creates the agency, seeds the default
// sidebar options, and binds the caller to it as AGENCY_OWNER. With the
// caller's own agency id it updates the details and records an activity
// entry.
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

	creating := user.AgencyID == ""
	if !creating {
		// Updating: the id must name the caller's own agency and the
		// caller must administer it.
		if req.ID != user.AgencyID || !isAgencyAdmin(user) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	agency, err := h.Agencies.Upsert(ctx, models.Agency{
		ID:           req.ID,
		Name:         htmlsanitize.StripTags(req.Name),
		CompanyEmail: req.CompanyEmail,
		AgencyLogo:   req.AgencyLogo,
		WhiteLabel:   req.WhiteLabel,
		Plan:         req.Plan,
	})
	if err != nil {
		if err == agencystore.ErrMissingCompanyEmail {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		h.Log.Error("agency upsert failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if creating {
		// Bind the creator as the agency owner and mirror the role claim.
		if _, err := h.Users.UpdateByEmail(ctx, user.Email, userstore.UserUpdate{
			Role:     models.RoleAgencyOwner,
			AgencyID: agency.ID,
		}); err != nil {
			h.Log.Error("binding agency owner failed", zap.Error(err),
				zap.String("agency_id", agency.ID))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		_ = h.Identity.SetRole(ctx, user.ID, models.RoleAgencyOwner)
		status = http.StatusCreated
	} else {
		if err := h.Activity.Log(ctx, activity.Entry{
			Description: "Updated agency information",
			ActorEmail:  user.Email,
			AgencyID:    agency.ID,
		}); err != nil {
			h.Log.Warn("recording agency update activity failed", zap.Error(err))
		}
	}

	writeJSON(w, status, agency)
}

// ServeGet handles GET /api/agencies/{agencyID}. Only members of the agency
// may read it.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, ok := h.currentUser(ctx, r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	agencyID := chi.URLParam(r, "agencyID")
	if user.AgencyID != agencyID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	agency, err := h.Agencies.GetByID(ctx, agencyID)
	if err != nil {
		if err == agencystore.ErrNotFound {
			http.Error(w, "agency not found", http.StatusNotFound)
			return
		}
		h.Log.Error("agency lookup failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, agency)
}

type updateRequest struct {
	Name         string      `json:"name"`
	CompanyEmail string      `json:"companyEmail"`
	AgencyLogo   string      `json:"agencyLogo"`
	WhiteLabel   *bool       `json:"whiteLabel"`
	Plan         models.Plan `json:"plan"`
}

// ServeUpdate handles PATCH /api/agencies/{agencyID}. Owner or admin only.
// Zero-value fields are left untouched except the logo, which may be
// cleared.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, ok := h.currentUser(ctx, r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	agencyID := chi.URLParam(r, "agencyID")
	if user.AgencyID != agencyID || !isAgencyAdmin(user) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err := h.Agencies.Update(ctx, agencyID, agencystore.AgencyUpdate{
		Name:         htmlsanitize.StripTags(req.Name),
		CompanyEmail: req.CompanyEmail,
		AgencyLogo:   req.AgencyLogo,
		WhiteLabel:   req.WhiteLabel,
		Plan:         req.Plan,
	})
	if err != nil {
		if err == agencystore.ErrNotFound {
			http.Error(w, "agency not found", http.StatusNotFound)
			return
		}
		h.Log.Error("agency update failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if err := h.Activity.Log(ctx, activity.Entry{
		Description: "Updated agency information",
		ActorEmail:  user.Email,
		AgencyID:    agencyID,
	}); err != nil {
		h.Log.Warn("recording agency update activity failed", zap.Error(err))
	}

	agency, err := h.Agencies.GetByID(ctx, agencyID)
	if err != nil {
		h.Log.Error("agency reload failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, agency)
}

// ServeDelete handles DELETE /api/agencies/{agencyID}. Owner only. The
// delete cascades over sub-accounts and everything they own.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	user, ok := h.currentUser(ctx, r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	agencyID := chi.URLParam(r, "agencyID")
	if user.AgencyID != agencyID || user.Role != models.RoleAgencyOwner {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	deleted, err := h.Agencies.Delete(ctx, agencyID)
	if err != nil {
		if err == agencystore.ErrNotFound {
			http.Error(w, "agency not found", http.StatusNotFound)
			return
		}
		h.Log.Error("agency delete failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.Log.Info("agency deleted",
		zap.String("agency_id", agencyID),
		zap.String("deleted_by", user.ID),
		zap.Int64("rows", deleted))

	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// notificationRow is a notification with its acting user attached.
type notificationRow struct {
	models.Notification
	User *models.User `json:"user,omitempty"`
}

// ServeNotifications handles GET /api/agencies/{agencyID}/notifications.
// Rows come back newest first with the acting user joined in; an optional
// ?limit= caps the result.
func (h *Handler) ServeNotifications(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	user, ok := h.currentUser(ctx, r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	agencyID := chi.URLParam(r, "agencyID")
	if user.AgencyID != agencyID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	rows, err := h.Notifications.ListByAgency(ctx, agencyID, limit)
	if err != nil {
		h.Log.Error("notification list failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	// Join the acting users; a deleted user leaves the row without one.
	cache := map[string]*models.User{}
	out := make([]notificationRow, 0, len(rows))
	for _, n := range rows {
		actor, seen := cache[n.UserID]
		if !seen {
			if u, err := h.Users.GetByID(ctx, n.UserID); err == nil {
				actor = &u
			}
			cache[n.UserID] = actor
		}
		out = append(out, notificationRow{Notification: n, User: actor})
	}

	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
