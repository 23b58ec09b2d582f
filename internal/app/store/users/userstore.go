// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/normalize"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("a user with that email already exists")
	ErrOwnerViaTeam   = errors.New("agency owners cannot be created as team members")
	ErrMissingEmail   = errors.New("user requires an email")
)

// Store manages user records. Users are keyed by the identity provider's
// subject; email is unique and is the lookup key when only claims are
// available.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// Upsert creates or refreshes a user keyed by email. A missing role
// defaults to SUBACCOUNT_USER on first creation; an existing record keeps
// its role unless the incoming one is set. Used on sign-in to sync
// provider claims into the local record.
func (s *Store) Upsert(ctx context.Context, u models.User) (models.User, error) {
	u.Email = normalize.Email(u.Email)
	if u.Email == "" {
		return models.User{}, ErrMissingEmail
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Name = normalize.Name(u.Name)
	u.NameCI = text.Fold(u.Name)

	now := time.Now().UTC()
	u.UpdatedAt = now

	set := bson.M{
		"name":       u.Name,
		"name_ci":    u.NameCI,
		"updated_at": now,
	}
	if u.AvatarURL != "" {
		set["avatar_url"] = u.AvatarURL
	}
	if u.Role != "" {
		set["role"] = u.Role
	}
	if u.AgencyID != "" {
		set["agency_id"] = u.AgencyID
	}

	insertRole := u.Role
	if insertRole == "" {
		insertRole = models.RoleSubAccountUser
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{"email": u.Email},
		bson.M{
			"$set": set,
			"$setOnInsert": bson.M{
				"_id":        u.ID,
				"email":      u.Email,
				"created_at": now,
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}

	// On update the caller-supplied id may not match the stored one;
	// reload so the returned record is authoritative.
	if res.UpsertedCount == 0 {
		return s.GetByEmail(ctx, u.Email)
	}
	if u.Role == "" {
		u.Role = insertRole
	}
	u.CreatedAt = now
	return u, nil
}

// CreateTeamMember inserts a user joining an agency team. Owners are never
// created this way; they come from agency creation.
func (s *Store) CreateTeamMember(ctx context.Context, u models.User) (models.User, error) {
	if u.Role == models.RoleAgencyOwner {
		return models.User{}, ErrOwnerViaTeam
	}
	u.Email = normalize.Email(u.Email)
	if u.Email == "" {
		return models.User{}, ErrMissingEmail
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Name = normalize.Name(u.Name)
	u.NameCI = text.Fold(u.Name)

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByID loads a user by identity-provider subject.
func (s *Store) GetByID(ctx context.Context, id string) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByEmail loads a user by exact email match.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

// UserUpdate holds the fields that can be changed on an existing user.
// Empty fields are left untouched.
type UserUpdate struct {
	Name      string
	AvatarURL string
	Role      models.Role
	AgencyID  string
}

// UpdateByEmail modifies an existing user located by exact email match and
// returns the updated record.
func (s *Store) UpdateByEmail(ctx context.Context, email string, upd UserUpdate) (models.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != "" {
		set["name"] = normalize.Name(upd.Name)
		set["name_ci"] = text.Fold(upd.Name)
	}
	if upd.AvatarURL != "" {
		set["avatar_url"] = upd.AvatarURL
	}
	if upd.Role != "" {
		set["role"] = upd.Role
	}
	if upd.AgencyID != "" {
		set["agency_id"] = upd.AgencyID
	}

	email = normalize.Email(email)
	res, err := s.c.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": set})
	if err != nil {
		return models.User{}, err
	}
	if res.MatchedCount == 0 {
		return models.User{}, ErrNotFound
	}
	return s.GetByEmail(ctx, email)
}

// ListByAgency returns the users bound to an agency sorted by name.
func (s *Store) ListByAgency(ctx context.Context, agencyID string) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{"agency_id": agencyID},
		options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// FirstByAgency returns the earliest-created user bound to an agency,
// whatever their role. Used as the fallback actor when an activity entry
// arrives without a signed-in caller.
func (s *Store) FirstByAgency(ctx context.Context, agencyID string) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx,
		bson.M{"agency_id": agencyID},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	).Decode(&u)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

// FirstOwner returns the earliest-created AGENCY_OWNER user of an agency.
func (s *Store) FirstOwner(ctx context.Context, agencyID string) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx,
		bson.M{"agency_id": agencyID, "role": models.RoleAgencyOwner},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	).Decode(&u)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return u, nil
}

// Delete removes a user record. The identity provider account is not
// touched; callers clear provider metadata separately.
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

// EnsureIndexes creates indexes for the users collection. Email is unique.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_user_email").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "agency_id", Value: 1}, {Key: "role", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_user_agency_role"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}
