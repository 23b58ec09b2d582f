package invitationstore_test

import (
	"testing"

	invitationstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/invitations"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/domain/models"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/testutil"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := invitationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	inv, err := store.Create(ctx, models.Invitation{
		Email:    "invitee@example.com",
		AgencyID: "agency-1",
		Role:     models.RoleSubAccountUser,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if inv.ID == "" {
		t.Error("expected a generated id")
	}
	if inv.Status != models.InvitationPending {
		t.Errorf("Status = %q, want %q", inv.Status, models.InvitationPending)
	}
}

func TestStore_Create_RejectsOwnerRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := invitationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.Invitation{
		Email:    "invitee@example.com",
		AgencyID: "agency-1",
		Role:     models.RoleAgencyOwner,
	})
	if err != invitationstore.ErrOwnerInvite {
		t.Errorf("expected ErrOwnerInvite, got %v", err)
	}
}

func TestStore_Create_RejectsUnknownRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := invitationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.Invitation{
		Email:    "invitee@example.com",
		AgencyID: "agency-1",
		Role:     "SUPERUSER",
	})
	if err != invitationstore.ErrInvalidRole {
		t.Errorf("expected ErrInvalidRole, got %v", err)
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := invitationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	_, err := store.Create(ctx, models.Invitation{
		Email:    "invitee@example.com",
		AgencyID: "agency-1",
		Role:     models.RoleSubAccountUser,
	})
	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	_, err = store.Create(ctx, models.Invitation{
		Email:    "invitee@example.com",
		AgencyID: "agency-2",
		Role:     models.RoleSubAccountGuest,
	})
	if err != invitationstore.ErrDuplicateEmail {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestStore_GetPendingByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := invitationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Invitation{
		Email:    "invitee@example.com",
		AgencyID: "agency-1",
		Role:     models.RoleAgencyAdmin,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.GetPendingByEmail(ctx, "invitee@example.com")
	if err != nil {
		t.Fatalf("GetPendingByEmail failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("ID = %q, want %q", got.ID, created.ID)
	}
	if got.Role != models.RoleAgencyAdmin {
		t.Errorf("Role = %q, want %q", got.Role, models.RoleAgencyAdmin)
	}
}

func TestStore_GetPendingByEmail_ExactMatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := invitationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.Invitation{
		Email:    "Invitee@Example.com",
		AgencyID: "agency-1",
		Role:     models.RoleSubAccountUser,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = store.GetPendingByEmail(ctx, "invitee@example.com")
	if err != invitationstore.ErrNotFound {
		t.Errorf("expected ErrNotFound for differently-cased email, got %v", err)
	}
}

func TestStore_GetPendingByEmail_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := invitationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.GetPendingByEmail(ctx, "missing@example.com")
	if err != invitationstore.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ListByAgency(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := invitationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, email := range []string{"a@example.com", "b@example.com"} {
		_, err := store.Create(ctx, models.Invitation{
			Email:    email,
			AgencyID: "agency-1",
			Role:     models.RoleSubAccountUser,
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	_, err := store.Create(ctx, models.Invitation{
		Email:    "c@example.com",
		AgencyID: "agency-2",
		Role:     models.RoleSubAccountUser,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	invs, err := store.ListByAgency(ctx, "agency-1")
	if err != nil {
		t.Fatalf("ListByAgency failed: %v", err)
	}
	if len(invs) != 2 {
		t.Errorf("expected 2 invitations, got %d", len(invs))
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := invitationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	inv, err := store.Create(ctx, models.Invitation{
		Email:    "invitee@example.com",
		AgencyID: "agency-1",
		Role:     models.RoleSubAccountUser,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.Delete(ctx, inv.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, inv.ID); err != invitationstore.ErrNotFound {
		t.Errorf("expected ErrNotFound on repeat delete, got %v", err)
	}
}

func TestStore_EnsureIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := invitationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("Second EnsureIndexes failed: %v", err)
	}
}
