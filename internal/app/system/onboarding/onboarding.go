// internal/app/system/onboarding/onboarding.go
package onboarding

import (
	"context"
	"fmt"

	invitationstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/invitations"
	userstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/users"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/activity"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/identity"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/domain/models"
	"go.uber.org/zap"
)

// Claims carries the identity-provider view of the caller during
// onboarding.
type Claims struct {
	Subject   string
	Name      string
	Email     string
	AvatarURL string
}

// Service redeems invitations and initializes user records on first
// sign-in.
type Service struct {
	users       *userstore.Store
	invitations *invitationstore.Store
	activity    *activity.Logger
	identity    identity.Syncer
	zapLog      *zap.Logger
}

// New creates an onboarding Service.
func New(users *userstore.Store, invitations *invitationstore.Store, act *activity.Logger, syncer identity.Syncer, zapLog *zap.Logger) *Service {
	return &Service{
		users:       users,
		invitations: invitations,
		activity:    act,
		identity:    syncer,
		zapLog:      zapLog,
	}
}

// AcceptInvitation resolves the caller's agency binding. If a pending
// invitation matches the caller's email it is redeemed: the user record is
// created with the invited role, a "Joined" activity is recorded, the role
// claim is mirrored to the identity provider, and the invitation is
// deleted. Without an invitation the caller's existing binding, if any, is
// returned.
//
// The steps run in redemption order (user, activity, claims, delete) so a
// crash mid-way can be re-driven: a re-run finds the invitation still
// pending and the user already created, and continues from there.
func (s *Service) AcceptInvitation(ctx context.Context, c Claims) (agencyID string, err error) {
	inv, err := s.invitations.GetPendingByEmail(ctx, c.Email)
	if err != nil {
		if err == invitationstore.ErrNotFound {
			return s.existingBinding(ctx, c.Email)
		}
		return "", err
	}

	user, err := s.users.CreateTeamMember(ctx, models.User{
		ID:        c.Subject,
		Name:      c.Name,
		Email:     c.Email,
		AvatarURL: c.AvatarURL,
		Role:      inv.Role,
		AgencyID:  inv.AgencyID,
	})
	if err != nil {
		if err != userstore.ErrDuplicateEmail {
			return "", fmt.Errorf("creating invited user: %w", err)
		}
		// A previous redemption got this far; pick up the existing
		// record and finish the remaining steps.
		user, err = s.users.GetByEmail(ctx, c.Email)
		if err != nil {
			return "", err
		}
	}

	if err := s.activity.Log(ctx, activity.Entry{
		Description: "Joined",
		ActorEmail:  user.Email,
		AgencyID:    inv.AgencyID,
	}); err != nil {
		return "", err
	}

	// Best-effort: a failed mirror is logged by the syncer, not surfaced.
	_ = s.identity.SetRole(ctx, user.ID, inv.Role)

	if err := s.invitations.Delete(ctx, inv.ID); err != nil && err != invitationstore.ErrNotFound {
		return "", fmt.Errorf("retiring invitation: %w", err)
	}

	s.zapLog.Info("invitation redeemed",
		zap.String("user_id", user.ID),
		zap.String("agency_id", inv.AgencyID),
		zap.String("role", string(inv.Role)))
	return inv.AgencyID, nil
}

func (s *Service) existingBinding(ctx context.Context, email string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == userstore.ErrNotFound {
			return "", nil
		}
		return "", err
	}
	return user.AgencyID, nil
}

// InitUser syncs the caller's provider claims into the local user record
// on sign-in, creating it with the default role if it does not exist, and
// mirrors the effective role back to the provider.
func (s *Service) InitUser(ctx context.Context, c Claims) (models.User, error) {
	user, err := s.users.Upsert(ctx, models.User{
		ID:        c.Subject,
		Name:      c.Name,
		Email:     c.Email,
		AvatarURL: c.AvatarURL,
	})
	if err != nil {
		return models.User{}, err
	}

	_ = s.identity.SetRole(ctx, user.ID, user.Role)
	return user, nil
}
