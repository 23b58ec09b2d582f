// Package identity mirrors role claims out to the identity provider so
// freshly-issued tokens carry the user's current role. The local user
// record stays authoritative; this mirror is best-effort and failures are
// logged, not retried.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ErrNotFound is returned when no claims are mirrored for a subject.
var ErrNotFound = errors.New("no identity metadata for subject")

// Syncer pushes role claims to the identity provider's per-user metadata.
type Syncer interface {
	SetRole(ctx context.Context, subject string, role models.Role) error
	Clear(ctx context.Context, subject string) error
}

// MongoSyncer keeps the provider-side metadata mirror in a local
// collection, keyed by provider subject. It stands in for a hosted
// provider's private-metadata API.
type MongoSyncer struct {
	c *mongo.Collection
}

// NewMongoSyncer creates a metadata mirror over the given database.
func NewMongoSyncer(db *mongo.Database) *MongoSyncer {
	return &MongoSyncer{c: db.Collection("identity_metadata")}
}

// SetRole records the role claim for a subject.
func (m *MongoSyncer) SetRole(ctx context.Context, subject string, role models.Role) error {
	_, err := m.c.UpdateOne(ctx,
		bson.M{"_id": subject},
		bson.M{"$set": bson.M{"role": role, "updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	return err
}

// Clear drops a subject's mirrored claims, normally on user deletion.
func (m *MongoSyncer) Clear(ctx context.Context, subject string) error {
	_, err := m.c.DeleteOne(ctx, bson.M{"_id": subject})
	return err
}

// Role reads back a subject's mirrored role claim.
func (m *MongoSyncer) Role(ctx context.Context, subject string) (models.Role, error) {
	var row struct {
		Role models.Role `bson:"role"`
	}
	if err := m.c.FindOne(ctx, bson.M{"_id": subject}).Decode(&row); err != nil {
		if err == mongo.ErrNoDocuments {
			return "", ErrNotFound
		}
		return "", err
	}
	return row.Role, nil
}

// LoggingSyncer wraps a Syncer and converts failures into warnings. Claim
// mirroring must never fail the calling operation.
type LoggingSyncer struct {
	next   Syncer
	zapLog *zap.Logger
}

// NewLoggingSyncer wraps next so sync failures are logged and swallowed.
func NewLoggingSyncer(next Syncer, zapLog *zap.Logger) *LoggingSyncer {
	return &LoggingSyncer{next: next, zapLog: zapLog}
}

func (l *LoggingSyncer) SetRole(ctx context.Context, subject string, role models.Role) error {
	if err := l.next.SetRole(ctx, subject, role); err != nil {
		l.zapLog.Warn("identity metadata sync failed",
			zap.String("subject", subject),
			zap.String("role", string(role)),
			zap.Error(err))
	}
	return nil
}

func (l *LoggingSyncer) Clear(ctx context.Context, subject string) error {
	if err := l.next.Clear(ctx, subject); err != nil {
		l.zapLog.Warn("identity metadata clear failed",
			zap.String("subject", subject),
			zap.Error(err))
	}
	return nil
}
