// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	agencystore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/agencies"
	invitationstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/invitations"
	notificationstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/notifications"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/oauthstate"
	permissionstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/permissions"
	sidebaroptionstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/sidebaroptions"
	subaccountstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/subaccounts"
	userstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/users"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB establishes the MongoDB connection used by every store.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connecting to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("pinging MongoDB: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase))

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates the indexes every store relies on: unique natural
// keys (user email, permission pairs, pending invitations), the feed sort
// indexes, and the TTL index that expires abandoned OAuth states.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	ensure := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"agencies", agencystore.New(db).EnsureIndexes},
		{"sub_accounts", subaccountstore.New(db).EnsureIndexes},
		{"users", userstore.New(db).EnsureIndexes},
		{"permissions", permissionstore.New(db).EnsureIndexes},
		{"notifications", notificationstore.New(db).EnsureIndexes},
		{"invitations", invitationstore.New(db).EnsureIndexes},
		{"sidebar_options", sidebaroptionstore.New(db).EnsureIndexes},
		{"oauth_states", oauthstate.New(db).EnsureIndexes},
	}
	for _, e := range ensure {
		if err := e.fn(ctx); err != nil {
			return fmt.Errorf("ensuring %s indexes: %w", e.name, err)
		}
	}

	logger.Info("database indexes ensured")
	return nil
}
