package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateAgency creates a test agency with the given name.
func (f *Fixtures) CreateAgency(ctx context.Context, name string) models.Agency {
	f.t.Helper()

	now := time.Now().UTC()
	agency := models.Agency{
		ID:           uuid.NewString(),
		Name:         name,
		NameCI:       text.Fold(name),
		CompanyEmail: "owner@" + uuid.NewString() + ".test",
		Plan:         models.PlanStarter,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := f.db.Collection("agencies").InsertOne(ctx, agency)
	if err != nil {
		f.t.Fatalf("failed to create test agency: %v", err)
	}

	return agency
}

// CreateWhiteLabelAgency creates a test agency with white-labeling enabled
// and the given logo.
func (f *Fixtures) CreateWhiteLabelAgency(ctx context.Context, name, logo string) models.Agency {
	f.t.Helper()

	now := time.Now().UTC()
	agency := models.Agency{
		ID:           uuid.NewString(),
		Name:         name,
		NameCI:       text.Fold(name),
		CompanyEmail: "owner@" + uuid.NewString() + ".test",
		AgencyLogo:   logo,
		WhiteLabel:   true,
		Plan:         models.PlanStarter,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := f.db.Collection("agencies").InsertOne(ctx, agency)
	if err != nil {
		f.t.Fatalf("failed to create test agency: %v", err)
	}

	return agency
}

// CreateSubAccount creates a test sub-account under the given agency.
func (f *Fixtures) CreateSubAccount(ctx context.Context, agencyID, name string) models.SubAccount {
	f.t.Helper()

	now := time.Now().UTC()
	sub := models.SubAccount{
		ID:           uuid.NewString(),
		AgencyID:     agencyID,
		Name:         name,
		NameCI:       text.Fold(name),
		CompanyEmail: "contact@" + uuid.NewString() + ".test",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := f.db.Collection("sub_accounts").InsertOne(ctx, sub)
	if err != nil {
		f.t.Fatalf("failed to create test sub-account: %v", err)
	}

	return sub
}

// CreateUser creates a test user with the given role bound to an agency.
// Pass an empty agencyID for a user not yet attached to an agency.
func (f *Fixtures) CreateUser(ctx context.Context, name, email string, role models.Role, agencyID string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:        uuid.NewString(),
		Name:      name,
		NameCI:    text.Fold(name),
		Email:     email,
		Role:      role,
		AgencyID:  agencyID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateOwner creates a test AGENCY_OWNER user for the given agency.
func (f *Fixtures) CreateOwner(ctx context.Context, email, agencyID string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, "Test Owner", email, models.RoleAgencyOwner, agencyID)
}

// CreatePermission grants or denies a user (by email) access to a
// sub-account.
func (f *Fixtures) CreatePermission(ctx context.Context, email, subAccountID string, access bool) models.Permission {
	f.t.Helper()

	now := time.Now().UTC()
	perm := models.Permission{
		ID:           uuid.NewString(),
		Email:        email,
		SubAccountID: subAccountID,
		Access:       access,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := f.db.Collection("permissions").InsertOne(ctx, perm)
	if err != nil {
		f.t.Fatalf("failed to create test permission: %v", err)
	}

	return perm
}

// CreateInvitation creates a pending invitation for the given email.
func (f *Fixtures) CreateInvitation(ctx context.Context, email, agencyID string, role models.Role) models.Invitation {
	f.t.Helper()

	inv := models.Invitation{
		ID:        uuid.NewString(),
		Email:     email,
		AgencyID:  agencyID,
		Role:      role,
		Status:    models.InvitationPending,
		CreatedAt: time.Now().UTC(),
	}

	_, err := f.db.Collection("invitations").InsertOne(ctx, inv)
	if err != nil {
		f.t.Fatalf("failed to create test invitation: %v", err)
	}

	return inv
}

// CreateSidebarOption creates a sidebar option bound to either an agency or
// a sub-account. Exactly one of agencyID/subAccountID should be non-empty.
func (f *Fixtures) CreateSidebarOption(ctx context.Context, name, link string, agencyID, subAccountID string) models.SidebarOption {
	f.t.Helper()

	opt := models.SidebarOption{
		ID:        uuid.NewString(),
		Name:      name,
		Icon:      "settings",
		Link:      link,
		CreatedAt: time.Now().UTC(),
	}
	if agencyID != "" {
		opt.AgencyID = &agencyID
	}
	if subAccountID != "" {
		opt.SubAccountID = &subAccountID
	}

	_, err := f.db.Collection("sidebar_options").InsertOne(ctx, opt)
	if err != nil {
		f.t.Fatalf("failed to create test sidebar option: %v", err)
	}

	return opt
}
