// internal/app/store/permissions/permissionstore.go
package permissionstore

import (
	"context"
	"errors"
	"time"

	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/normalize"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("permission not found")

// Store manages per-sub-account access grants. Grants are keyed by email
// rather than user id so access can be staged for people who have not
// signed up yet; the email matches the user record exactly, including case.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("permissions")}
}

// Set grants or revokes access for an email on a sub-account. The
// (email, sub-account) pair is the natural key; repeated calls flip the
// access flag in place.
func (s *Store) Set(ctx context.Context, email, subAccountID string, access bool) (models.Permission, error) {
	email = normalize.Email(email)
	now := time.Now().UTC()

	_, err := s.c.UpdateOne(ctx,
		bson.M{"email": email, "sub_account_id": subAccountID},
		bson.M{
			"$set": bson.M{"access": access, "updated_at": now},
			"$setOnInsert": bson.M{
				"_id":        uuid.NewString(),
				"created_at": now,
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return models.Permission{}, err
	}
	return s.Get(ctx, email, subAccountID)
}

// Get loads the permission for an email on a sub-account.
func (s *Store) Get(ctx context.Context, email, subAccountID string) (models.Permission, error) {
	var p models.Permission
	err := s.c.FindOne(ctx,
		bson.M{"email": normalize.Email(email), "sub_account_id": subAccountID},
	).Decode(&p)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Permission{}, ErrNotFound
		}
		return models.Permission{}, err
	}
	return p, nil
}

// HasAccess reports whether an email holds an access=true grant on a
// sub-account. A missing permission counts as no access.
func (s *Store) HasAccess(ctx context.Context, email, subAccountID string) (bool, error) {
	p, err := s.Get(ctx, email, subAccountID)
	if err != nil {
		if err == ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return p.Access, nil
}

// ListByEmail returns all permissions held by an email, granted or not.
func (s *Store) ListByEmail(ctx context.Context, email string) ([]models.Permission, error) {
	cur, err := s.c.Find(ctx, bson.M{"email": normalize.Email(email)})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var perms []models.Permission
	if err := cur.All(ctx, &perms); err != nil {
		return nil, err
	}
	return perms, nil
}

// GrantedSubAccountIDs returns the ids of sub-accounts an email can access.
func (s *Store) GrantedSubAccountIDs(ctx context.Context, email string) ([]string, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"email": normalize.Email(email), "access": true},
		options.Find().SetProjection(bson.M{"sub_account_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var row struct {
			SubAccountID string `bson:"sub_account_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.SubAccountID)
	}
	return ids, cur.Err()
}

// DeleteByEmail removes every permission held by an email. Used when the
// user record is deleted.
func (s *Store) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"email": normalize.Email(email)})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates indexes for the permissions collection. The
// (email, sub_account_id) pair is unique.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}, {Key: "sub_account_id", Value: 1}},
			Options: options.Index().SetName("uniq_permission_email_sub").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "sub_account_id", Value: 1}},
			Options: options.Index().SetName("idx_permission_sub"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}
