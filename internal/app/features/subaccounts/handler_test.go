package subaccounts_test

import (
	"net/http"
	"testing"

	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/features/subaccounts"
	agencystore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/agencies"
	notificationstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/notifications"
	permissionstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/permissions"
	sidebaroptionstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/sidebaroptions"
	subaccountstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/subaccounts"
	userstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/users"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/access"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/activity"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/domain/models"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newHandler(db *mongo.Database) *subaccounts.Handler {
	users := userstore.New(db)
	subs := subaccountstore.New(db)
	accessSvc := access.New(agencystore.New(db), subs, permissionstore.New(db), sidebaroptionstore.New(db))
	act := activity.New(users, subs, notificationstore.New(db), zap.NewNop())
	return subaccounts.NewHandler(subs, users, accessSvc, act, zap.NewNop())
}

func TestServeUpsert_CreateSeedsAndLogs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agency := fixtures.CreateAgency(ctx, "Acme Digital")
	owner := fixtures.CreateOwner(ctx, "owner@acme.test", agency.ID)

	req := testutil.NewJSONRequest(t, "POST", "/api/subaccounts", map[string]any{
		"agencyId":     agency.ID,
		"name":         "Client One",
		"companyEmail": "contact@clientone.test",
	})
	req = testutil.WithCaller(req, testutil.Caller(owner.Email))
	rec := testutil.NewRecorder()

	h.ServeUpsert(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	var sub models.SubAccount
	rec.DecodeJSON(t, &sub)
	if sub.AgencyID != agency.ID {
		t.Errorf("AgencyID = %q, want %q", sub.AgencyID, agency.ID)
	}

	// The owner's access grant was seeded.
	granted, err := permissionstore.New(db).HasAccess(ctx, owner.Email, sub.ID)
	if err != nil {
		t.Fatalf("HasAccess failed: %v", err)
	}
	if !granted {
		t.Error("expected owner permission seeded")
	}

	// Activity landed on the agency feed, scoped to the sub-account.
	rows, err := notificationstore.New(db).ListByAgency(ctx, agency.ID, 0)
	if err != nil {
		t.Fatalf("ListByAgency failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(rows))
	}
	want := owner.Name + " | updated sub account | Client One"
	if rows[0].Notification != want {
		t.Errorf("message = %q, want %q", rows[0].Notification, want)
	}
	if rows[0].SubAccountID == nil || *rows[0].SubAccountID != sub.ID {
		t.Error("expected notification scoped to the sub-account")
	}
}

func TestServeUpsert_MemberForbidden(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agency := fixtures.CreateAgency(ctx, "Acme Digital")
	fixtures.CreateOwner(ctx, "owner@acme.test", agency.ID)
	member := fixtures.CreateUser(ctx, "Jane", "jane@acme.test", models.RoleSubAccountUser, agency.ID)

	req := testutil.NewJSONRequest(t, "POST", "/api/subaccounts", map[string]any{
		"agencyId":     agency.ID,
		"name":         "Client One",
		"companyEmail": "contact@clientone.test",
	})
	req = testutil.WithCaller(req, testutil.Caller(member.Email))
	rec := testutil.NewRecorder()

	h.ServeUpsert(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestServeGet_HonorsGrants(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agency := fixtures.CreateAgency(ctx, "Acme Digital")
	sub := fixtures.CreateSubAccount(ctx, agency.ID, "Client One")
	granted := fixtures.CreateUser(ctx, "Jane", "jane@acme.test", models.RoleSubAccountUser, agency.ID)
	fixtures.CreatePermission(ctx, granted.Email, sub.ID, true)
	denied := fixtures.CreateUser(ctx, "Bob", "bob@acme.test", models.RoleSubAccountUser, agency.ID)

	req := testutil.NewAuthenticatedRequest("GET", "/api/subaccounts/"+sub.ID, testutil.Caller(granted.Email))
	req = testutil.WithChiURLParam(req, "subAccountID", sub.ID)
	rec := testutil.NewRecorder()
	h.ServeGet(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	req = testutil.NewAuthenticatedRequest("GET", "/api/subaccounts/"+sub.ID, testutil.Caller(denied.Email))
	req = testutil.WithChiURLParam(req, "subAccountID", sub.ID)
	rec = testutil.NewRecorder()
	h.ServeGet(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestServeList_VisibleOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agency := fixtures.CreateAgency(ctx, "Acme Digital")
	one := fixtures.CreateSubAccount(ctx, agency.ID, "Client One")
	fixtures.CreateSubAccount(ctx, agency.ID, "Client Two")
	member := fixtures.CreateUser(ctx, "Jane", "jane@acme.test", models.RoleSubAccountUser, agency.ID)
	fixtures.CreatePermission(ctx, member.Email, one.ID, true)

	req := testutil.NewAuthenticatedRequest("GET", "/api/subaccounts", testutil.Caller(member.Email))
	rec := testutil.NewRecorder()
	h.ServeList(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var subs []models.SubAccount
	rec.DecodeJSON(t, &subs)
	if len(subs) != 1 {
		t.Fatalf("expected 1 visible sub-account, got %d", len(subs))
	}
	if subs[0].ID != one.ID {
		t.Errorf("visible sub-account = %q, want %q", subs[0].ID, one.ID)
	}
}

func TestServeDelete_LogsThenCascades(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agency := fixtures.CreateAgency(ctx, "Acme Digital")
	sub := fixtures.CreateSubAccount(ctx, agency.ID, "Client One")
	owner := fixtures.CreateOwner(ctx, "owner@acme.test", agency.ID)

	req := testutil.NewAuthenticatedRequest("DELETE", "/api/subaccounts/"+sub.ID, testutil.Caller(owner.Email))
	req = testutil.WithChiURLParam(req, "subAccountID", sub.ID)
	rec := testutil.NewRecorder()
	h.ServeDelete(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	if _, err := subaccountstore.New(db).GetByID(ctx, sub.ID); err != subaccountstore.ErrNotFound {
		t.Errorf("expected sub-account gone, got %v", err)
	}

	// The delete activity survives on the agency feed (agency scope, so the
	// cascade over sub-account rows does not remove it).
	rows, err := notificationstore.New(db).ListByAgency(ctx, agency.ID, 0)
	if err != nil {
		t.Fatalf("ListByAgency failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(rows))
	}
	want := owner.Name + " | Deleted a subaccount | Client One"
	if rows[0].Notification != want {
		t.Errorf("message = %q, want %q", rows[0].Notification, want)
	}
}
