// internal/app/system/activity/logger.go
package activity

// Terminology: Scopes
//   - Agency scope: the notification is visible on the agency dashboard.
//   - Sub-account scope: the notification additionally carries the
//     sub-account it happened in. The owning agency is derived when the
//     caller supplies only the sub-account.

import (
	"context"
	"errors"
	"fmt"

	notificationstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/notifications"
	subaccountstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/subaccounts"
	userstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/users"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/htmlsanitize"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/normalize"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/domain/models"
	"go.uber.org/zap"
)

// ErrMissingScope is returned when an entry names neither an agency nor a
// sub-account. Every activity row must land on some agency's feed.
var ErrMissingScope = errors.New("activity entry needs an agency id or a sub-account id")

// Entry describes one activity to record.
type Entry struct {
	// Description of what happened, e.g. "Updated agency details".
	Description string

	// ActorEmail identifies the acting user. It may be empty only for
	// sub-account-scoped entries; the actor is then resolved from the
	// owning agency's earliest-created user. An agency-only entry with
	// no actor is dropped with a diagnostic.
	ActorEmail string

	// AgencyID scopes the entry to an agency. May be empty when
	// SubAccountID is set; the agency is then derived from the
	// sub-account.
	AgencyID string

	// SubAccountID optionally scopes the entry to a sub-account.
	SubAccountID string
}

// Logger records activity notifications. An unresolvable actor downgrades
// to a warning rather than failing the caller's operation; a missing scope
// is a caller bug and is returned as ErrMissingScope.
type Logger struct {
	users         *userstore.Store
	subAccounts   *subaccountstore.Store
	notifications *notificationstore.Store
	zapLog        *zap.Logger
}

// New creates an activity Logger.
func New(users *userstore.Store, subAccounts *subaccountstore.Store, notifications *notificationstore.Store, zapLog *zap.Logger) *Logger {
	return &Logger{
		users:         users,
		subAccounts:   subAccounts,
		notifications: notifications,
		zapLog:        zapLog,
	}
}

// Log records an activity entry as a notification on the owning agency's
// feed. The stored message is "<actor name> | <description>".
func (l *Logger) Log(ctx context.Context, e Entry) error {
	if e.AgencyID == "" && e.SubAccountID == "" {
		return ErrMissingScope
	}

	agencyID := e.AgencyID
	var subAccountID *string
	if e.SubAccountID != "" {
		sub, err := l.subAccounts.GetByID(ctx, e.SubAccountID)
		if err != nil {
			return fmt.Errorf("resolving sub-account scope: %w", err)
		}
		if agencyID == "" {
			agencyID = sub.AgencyID
		}
		id := e.SubAccountID
		subAccountID = &id
	}

	actor, err := l.resolveActor(ctx, e, agencyID)
	if err != nil {
		if err == userstore.ErrNotFound {
			l.zapLog.Warn("activity entry dropped: no actor could be resolved",
				zap.String("description", e.Description),
				zap.String("agency_id", agencyID),
				zap.String("actor_email", e.ActorEmail))
			return nil
		}
		return err
	}

	desc := htmlsanitize.StripTags(normalize.Description(e.Description))
	n := models.Notification{
		Notification: actor.Name + " | " + desc,
		UserID:       actor.ID,
		AgencyID:     agencyID,
		SubAccountID: subAccountID,
	}
	if _, err := l.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("storing activity notification: %w", err)
	}

	l.zapLog.Info("activity recorded",
		zap.String("actor_id", actor.ID),
		zap.String("agency_id", agencyID),
		zap.String("description", e.Description))
	return nil
}

func (l *Logger) resolveActor(ctx context.Context, e Entry, agencyID string) (models.User, error) {
	if e.ActorEmail != "" {
		return l.users.GetByEmail(ctx, e.ActorEmail)
	}
	// The fallback actor is derived from the sub-account's owning agency.
	// An agency-only entry carries no such derivation, so no actor exists.
	if e.SubAccountID == "" {
		return models.User{}, userstore.ErrNotFound
	}
	return l.users.FirstByAgency(ctx, agencyID)
}
