// internal/app/store/notifications/notificationstore.go
package notificationstore

import (
	"context"
	"errors"
	"time"

	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrMissingScope = errors.New("notification requires an agency id")

// Store manages activity notifications. Rows are append-only; they go away
// only when their agency or sub-account is deleted.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("notifications")}
}

// Create appends a notification. The agency scope is mandatory; the
// sub-account scope is optional.
func (s *Store) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	if n.AgencyID == "" {
		return models.Notification{}, ErrMissingScope
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.Notification{}, err
	}
	return n, nil
}

// ListByAgency returns an agency's notifications newest first. A limit of
// 0 means no limit.
func (s *Store) ListByAgency(ctx context.Context, agencyID string, limit int64) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cur, err := s.c.Find(ctx, bson.M{"agency_id": agencyID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.Notification
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ListBySubAccount returns a sub-account's notifications newest first.
func (s *Store) ListBySubAccount(ctx context.Context, subAccountID string, limit int64) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cur, err := s.c.Find(ctx, bson.M{"sub_account_id": subAccountID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []models.Notification
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// EnsureIndexes creates indexes for the notifications collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "agency_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_notification_agency_time"),
		},
		{
			Keys:    bson.D{{Key: "sub_account_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_notification_sub_time"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}
