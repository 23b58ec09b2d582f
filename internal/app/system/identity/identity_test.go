package identity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/identity"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/domain/models"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/testutil"
	"go.uber.org/zap"
)

func TestMongoSyncer_SetRoleAndRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	syncer := identity.NewMongoSyncer(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := syncer.SetRole(ctx, "sub-1", models.RoleAgencyAdmin); err != nil {
		t.Fatalf("SetRole failed: %v", err)
	}

	role, err := syncer.Role(ctx, "sub-1")
	if err != nil {
		t.Fatalf("Role failed: %v", err)
	}
	if role != models.RoleAgencyAdmin {
		t.Errorf("Role = %q, want %q", role, models.RoleAgencyAdmin)
	}

	// Overwrite in place.
	if err := syncer.SetRole(ctx, "sub-1", models.RoleAgencyOwner); err != nil {
		t.Fatalf("second SetRole failed: %v", err)
	}
	role, err = syncer.Role(ctx, "sub-1")
	if err != nil {
		t.Fatalf("Role failed: %v", err)
	}
	if role != models.RoleAgencyOwner {
		t.Errorf("Role = %q, want %q", role, models.RoleAgencyOwner)
	}
}

func TestMongoSyncer_Clear(t *testing.T) {
	db := testutil.SetupTestDB(t)
	syncer := identity.NewMongoSyncer(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := syncer.SetRole(ctx, "sub-1", models.RoleSubAccountUser); err != nil {
		t.Fatalf("SetRole failed: %v", err)
	}
	if err := syncer.Clear(ctx, "sub-1"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	_, err := syncer.Role(ctx, "sub-1")
	if err != identity.ErrNotFound {
		t.Errorf("expected ErrNotFound after clear, got %v", err)
	}
}

func TestMongoSyncer_Role_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	syncer := identity.NewMongoSyncer(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := syncer.Role(ctx, "missing")
	if err != identity.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

type failingSyncer struct{}

func (failingSyncer) SetRole(context.Context, string, models.Role) error {
	return errors.New("provider unavailable")
}

func (failingSyncer) Clear(context.Context, string) error {
	return errors.New("provider unavailable")
}

func TestLoggingSyncer_SwallowsFailures(t *testing.T) {
	syncer := identity.NewLoggingSyncer(failingSyncer{}, zap.NewNop())

	if err := syncer.SetRole(context.Background(), "sub-1", models.RoleAgencyAdmin); err != nil {
		t.Errorf("SetRole should swallow failures, got %v", err)
	}
	if err := syncer.Clear(context.Background(), "sub-1"); err != nil {
		t.Errorf("Clear should swallow failures, got %v", err)
	}
}
