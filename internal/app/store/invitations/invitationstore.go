// internal/app/store/invitations/invitationstore.go
package invitationstore

import (
	"context"
	"errors"
	"time"

	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/normalize"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound       = errors.New("invitation not found")
	ErrDuplicateEmail = errors.New("an invitation for that email already exists")
	ErrMissingEmail   = errors.New("invitation requires an email")
	ErrOwnerInvite    = errors.New("agency owners cannot be invited")
	ErrInvalidRole    = errors.New("invitation role is not valid")
)

// Store manages onboarding invitations. At most one invitation exists per
// email at a time.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("invitations")}
}

// Create records a pending invitation. The owner role is reserved for
// agency creation and cannot be handed out by invitation.
func (s *Store) Create(ctx context.Context, inv models.Invitation) (models.Invitation, error) {
	inv.Email = normalize.Email(inv.Email)
	if inv.Email == "" {
		return models.Invitation{}, ErrMissingEmail
	}
	if inv.Role == models.RoleAgencyOwner {
		return models.Invitation{}, ErrOwnerInvite
	}
	if !inv.Role.IsValid() {
		return models.Invitation{}, ErrInvalidRole
	}
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	inv.Status = models.InvitationPending
	inv.CreatedAt = time.Now().UTC()

	if _, err := s.c.InsertOne(ctx, inv); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Invitation{}, ErrDuplicateEmail
		}
		return models.Invitation{}, err
	}
	return inv, nil
}

// GetPendingByEmail returns the pending invitation for an email, matched
// exactly.
func (s *Store) GetPendingByEmail(ctx context.Context, email string) (models.Invitation, error) {
	var inv models.Invitation
	err := s.c.FindOne(ctx, bson.M{
		"email":  normalize.Email(email),
		"status": models.InvitationPending,
	}).Decode(&inv)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Invitation{}, ErrNotFound
		}
		return models.Invitation{}, err
	}
	return inv, nil
}

// ListByAgency returns an agency's invitations newest first.
func (s *Store) ListByAgency(ctx context.Context, agencyID string) ([]models.Invitation, error) {
	cur, err := s.c.Find(ctx, bson.M{"agency_id": agencyID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var invs []models.Invitation
	if err := cur.All(ctx, &invs); err != nil {
		return nil, err
	}
	return invs, nil
}

// Delete removes an invitation, normally after it has been redeemed.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureIndexes creates indexes for the invitations collection. Email is
// unique so an address can hold only one invitation at a time.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_invitation_email").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "agency_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_invitation_agency_time"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}
