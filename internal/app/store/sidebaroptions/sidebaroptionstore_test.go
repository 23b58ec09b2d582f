package sidebaroptionstore_test

import (
	"testing"

	sidebaroptionstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/sidebaroptions"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/testutil"
)

func TestStore_ListByAgency(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := sidebaroptionstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateSidebarOption(ctx, "Dashboard", "/agency/a1", "a1", "")
	fixtures.CreateSidebarOption(ctx, "Team", "/agency/a1/team", "a1", "")
	fixtures.CreateSidebarOption(ctx, "Other", "/agency/a2", "a2", "")
	fixtures.CreateSidebarOption(ctx, "Sub", "/subaccount/s1", "", "s1")

	opts, err := store.ListByAgency(ctx, "a1")
	if err != nil {
		t.Fatalf("ListByAgency failed: %v", err)
	}
	if len(opts) != 2 {
		t.Errorf("expected 2 options, got %d", len(opts))
	}
}

func TestStore_ListBySubAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := sidebaroptionstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateSidebarOption(ctx, "Dashboard", "/subaccount/s1", "", "s1")
	fixtures.CreateSidebarOption(ctx, "Agency", "/agency/a1", "a1", "")

	opts, err := store.ListBySubAccount(ctx, "s1")
	if err != nil {
		t.Fatalf("ListBySubAccount failed: %v", err)
	}
	if len(opts) != 1 {
		t.Fatalf("expected 1 option, got %d", len(opts))
	}
	if opts[0].Name != "Dashboard" {
		t.Errorf("Name = %q, want %q", opts[0].Name, "Dashboard")
	}
}

func TestStore_ListByAgency_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := sidebaroptionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	opts, err := store.ListByAgency(ctx, "missing")
	if err != nil {
		t.Fatalf("ListByAgency failed: %v", err)
	}
	if len(opts) != 0 {
		t.Errorf("expected 0 options, got %d", len(opts))
	}
}

func TestStore_EnsureIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := sidebaroptionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("Second EnsureIndexes failed: %v", err)
	}
}
