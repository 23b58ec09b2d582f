package onboarding_test

import (
	"testing"

	invitationstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/invitations"
	notificationstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/notifications"
	subaccountstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/subaccounts"
	userstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/users"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/activity"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/identity"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/onboarding"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/domain/models"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type deps struct {
	svc           *onboarding.Service
	users         *userstore.Store
	invitations   *invitationstore.Store
	notifications *notificationstore.Store
	syncer        *identity.MongoSyncer
}

func newService(db *mongo.Database) deps {
	users := userstore.New(db)
	invitations := invitationstore.New(db)
	notifications := notificationstore.New(db)
	syncer := identity.NewMongoSyncer(db)
	act := activity.New(users, subaccountstore.New(db), notifications, zap.NewNop())
	return deps{
		svc:           onboarding.New(users, invitations, act, syncer, zap.NewNop()),
		users:         users,
		invitations:   invitations,
		notifications: notifications,
		syncer:        syncer,
	}
}

func TestService_AcceptInvitation_Redeems(t *testing.T) {
	db := testutil.SetupTestDB(t)
	d := newService(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agency := fixtures.CreateAgency(ctx, "Acme Digital")
	fixtures.CreateInvitation(ctx, "new@acme.test", agency.ID, models.RoleSubAccountUser)

	agencyID, err := d.svc.AcceptInvitation(ctx, onboarding.Claims{
		Subject: "sub-new",
		Name:    "New Member",
		Email:   "new@acme.test",
	})
	if err != nil {
		t.Fatalf("AcceptInvitation failed: %v", err)
	}
	if agencyID != agency.ID {
		t.Errorf("agencyID = %q, want %q", agencyID, agency.ID)
	}

	// User created with the invited role and agency binding.
	user, err := d.users.GetByEmail(ctx, "new@acme.test")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if user.ID != "sub-new" {
		t.Errorf("ID = %q, want provider subject %q", user.ID, "sub-new")
	}
	if user.Role != models.RoleSubAccountUser {
		t.Errorf("Role = %q, want %q", user.Role, models.RoleSubAccountUser)
	}
	if user.AgencyID != agency.ID {
		t.Errorf("AgencyID = %q, want %q", user.AgencyID, agency.ID)
	}

	// "Joined" activity recorded on the agency feed.
	rows, err := d.notifications.ListByAgency(ctx, agency.ID, 0)
	if err != nil {
		t.Fatalf("ListByAgency failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(rows))
	}
	want := "New Member | Joined"
	if rows[0].Notification != want {
		t.Errorf("message = %q, want %q", rows[0].Notification, want)
	}

	// Role claim mirrored to the provider.
	role, err := d.syncer.Role(ctx, "sub-new")
	if err != nil {
		t.Fatalf("Role failed: %v", err)
	}
	if role != models.RoleSubAccountUser {
		t.Errorf("mirrored role = %q, want %q", role, models.RoleSubAccountUser)
	}

	// Invitation retired.
	if _, err := d.invitations.GetPendingByEmail(ctx, "new@acme.test"); err != invitationstore.ErrNotFound {
		t.Errorf("expected invitation to be deleted, got %v", err)
	}
}

func TestService_AcceptInvitation_NoInvitationReturnsExistingBinding(t *testing.T) {
	db := testutil.SetupTestDB(t)
	d := newService(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agency := fixtures.CreateAgency(ctx, "Acme Digital")
	fixtures.CreateUser(ctx, "Jane", "jane@acme.test", models.RoleAgencyAdmin, agency.ID)

	agencyID, err := d.svc.AcceptInvitation(ctx, onboarding.Claims{
		Subject: "sub-jane",
		Email:   "jane@acme.test",
	})
	if err != nil {
		t.Fatalf("AcceptInvitation failed: %v", err)
	}
	if agencyID != agency.ID {
		t.Errorf("agencyID = %q, want existing binding %q", agencyID, agency.ID)
	}
}

func TestService_AcceptInvitation_UnknownCaller(t *testing.T) {
	db := testutil.SetupTestDB(t)
	d := newService(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agencyID, err := d.svc.AcceptInvitation(ctx, onboarding.Claims{
		Subject: "sub-stranger",
		Email:   "stranger@example.com",
	})
	if err != nil {
		t.Fatalf("AcceptInvitation failed: %v", err)
	}
	if agencyID != "" {
		t.Errorf("expected no binding, got %q", agencyID)
	}
}

func TestService_AcceptInvitation_IsReDriveable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	d := newService(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agency := fixtures.CreateAgency(ctx, "Acme Digital")
	fixtures.CreateInvitation(ctx, "new@acme.test", agency.ID, models.RoleSubAccountGuest)

	// Simulate a crashed earlier redemption that created the user but
	// never deleted the invitation.
	_, err := d.users.CreateTeamMember(ctx, models.User{
		ID:       "sub-new",
		Name:     "New Member",
		Email:    "new@acme.test",
		Role:     models.RoleSubAccountGuest,
		AgencyID: agency.ID,
	})
	if err != nil {
		t.Fatalf("CreateTeamMember failed: %v", err)
	}

	agencyID, err := d.svc.AcceptInvitation(ctx, onboarding.Claims{
		Subject: "sub-new",
		Name:    "New Member",
		Email:   "new@acme.test",
	})
	if err != nil {
		t.Fatalf("AcceptInvitation failed: %v", err)
	}
	if agencyID != agency.ID {
		t.Errorf("agencyID = %q, want %q", agencyID, agency.ID)
	}

	// The invitation is now retired and no duplicate user exists.
	if _, err := d.invitations.GetPendingByEmail(ctx, "new@acme.test"); err != invitationstore.ErrNotFound {
		t.Errorf("expected invitation to be deleted, got %v", err)
	}
}

func TestService_InitUser_CreatesWithDefaultRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	d := newService(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user, err := d.svc.InitUser(ctx, onboarding.Claims{
		Subject:   "sub-1",
		Name:      "Jane Doe",
		Email:     "jane@example.com",
		AvatarURL: "https://cdn.test/jane.png",
	})
	if err != nil {
		t.Fatalf("InitUser failed: %v", err)
	}
	if user.Role != models.RoleSubAccountUser {
		t.Errorf("Role = %q, want default %q", user.Role, models.RoleSubAccountUser)
	}

	role, err := d.syncer.Role(ctx, "sub-1")
	if err != nil {
		t.Fatalf("Role failed: %v", err)
	}
	if role != models.RoleSubAccountUser {
		t.Errorf("mirrored role = %q, want %q", role, models.RoleSubAccountUser)
	}
}

func TestService_InitUser_RefreshKeepsRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	d := newService(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agency := fixtures.CreateAgency(ctx, "Acme Digital")
	fixtures.CreateUser(ctx, "Jane", "jane@acme.test", models.RoleAgencyOwner, agency.ID)

	user, err := d.svc.InitUser(ctx, onboarding.Claims{
		Subject: "sub-jane",
		Name:    "Jane Doe",
		Email:   "jane@acme.test",
	})
	if err != nil {
		t.Fatalf("InitUser failed: %v", err)
	}
	if user.Role != models.RoleAgencyOwner {
		t.Errorf("Role = %q, want preserved %q", user.Role, models.RoleAgencyOwner)
	}
	if user.AgencyID != agency.ID {
		t.Errorf("AgencyID = %q, want preserved %q", user.AgencyID, agency.ID)
	}
}
