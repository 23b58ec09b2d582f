// internal/app/store/sidebaroptions/sidebaroptionstore.go
package sidebaroptionstore

import (
	"context"

	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store reads sidebar options. Writes happen through the agency and
// sub-account stores, which seed options when a record is first created.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("sidebar_options")}
}

// ListByAgency returns the options bound to an agency in creation order.
func (s *Store) ListByAgency(ctx context.Context, agencyID string) ([]models.SidebarOption, error) {
	return s.list(ctx, bson.M{"agency_id": agencyID})
}

// ListBySubAccount returns the options bound to a sub-account in creation
// order.
func (s *Store) ListBySubAccount(ctx context.Context, subAccountID string) ([]models.SidebarOption, error) {
	return s.list(ctx, bson.M{"sub_account_id": subAccountID})
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.SidebarOption, error) {
	cur, err := s.c.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var opts []models.SidebarOption
	if err := cur.All(ctx, &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// EnsureIndexes creates indexes for the sidebar_options collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "agency_id", Value: 1}},
			Options: options.Index().SetName("idx_sidebar_agency"),
		},
		{
			Keys:    bson.D{{Key: "sub_account_id", Value: 1}},
			Options: options.Index().SetName("idx_sidebar_sub"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}
