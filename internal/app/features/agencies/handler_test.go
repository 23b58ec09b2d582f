package agencies_test

import (
	"net/http"
	"testing"

	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/features/agencies"
	agencystore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/agencies"
	notificationstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/notifications"
	subaccountstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/subaccounts"
	userstore "github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/store/users"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/activity"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/identity"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/domain/models"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type deps struct {
	handler *agencies.Handler
	users   *userstore.Store
	syncer  *identity.MongoSyncer
}

func newHandler(db *mongo.Database) deps {
	users := userstore.New(db)
	notifications := notificationstore.New(db)
	act := activity.New(users, subaccountstore.New(db), notifications, zap.NewNop())
	syncer := identity.NewMongoSyncer(db)
	h := agencies.NewHandler(agencystore.New(db), users, notifications, act, syncer, zap.NewNop())
	return deps{handler: h, users: users, syncer: syncer}
}

func TestServeUpsert_CreateBindsOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	d := newHandler(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// A fresh sign-up: user exists but has no agency yet.
	creator := fixtures.CreateUser(ctx, "Jane Doe", "jane@acme.test", models.RoleSubAccountUser, "")

	req := testutil.NewJSONRequest(t, "POST", "/api/agencies", map[string]any{
		"name":         "Acme Digital",
		"companyEmail": "jane@acme.test",
	})
	req = testutil.WithCaller(req, testutil.Caller(creator.Email))
	rec := testutil.NewRecorder()

	d.handler.ServeUpsert(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	var agency models.Agency
	rec.DecodeJSON(t, &agency)
	if agency.Name != "Acme Digital" {
		t.Errorf("Name = %q, want Acme Digital", agency.Name)
	}

	// Creator promoted to owner and bound to the new agency.
	user, err := d.users.GetByEmail(ctx, creator.Email)
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if user.Role != models.RoleAgencyOwner {
		t.Errorf("Role = %q, want %q", user.Role, models.RoleAgencyOwner)
	}
	if user.AgencyID != agency.ID {
		t.Errorf("AgencyID = %q, want %q", user.AgencyID, agency.ID)
	}

	// Role claim mirrored to the provider.
	role, err := d.syncer.Role(ctx, user.ID)
	if err != nil {
		t.Fatalf("Role failed: %v", err)
	}
	if role != models.RoleAgencyOwner {
		t.Errorf("mirrored role = %q, want %q", role, models.RoleAgencyOwner)
	}
}

func TestServeUpsert_UpdateLogsActivity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	d := newHandler(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agency := fixtures.CreateAgency(ctx, "Acme Digital")
	owner := fixtures.CreateOwner(ctx, "owner@acme.test", agency.ID)

	req := testutil.NewJSONRequest(t, "POST", "/api/agencies", map[string]any{
		"id":           agency.ID,
		"name":         "Acme Digital Ltd",
		"companyEmail": "owner@acme.test",
	})
	req = testutil.WithCaller(req, testutil.Caller(owner.Email))
	rec := testutil.NewRecorder()

	d.handler.ServeUpsert(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	rows, err := notificationstore.New(db).ListByAgency(ctx, agency.ID, 0)
	if err != nil {
		t.Fatalf("ListByAgency failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(rows))
	}
	want := owner.Name + " | Updated agency information"
	if rows[0].Notification != want {
		t.Errorf("message = %q, want %q", rows[0].Notification, want)
	}
}

func TestServeUpsert_ForeignAgencyForbidden(t *testing.T) {
	db := testutil.SetupTestDB(t)
	d := newHandler(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mine := fixtures.CreateAgency(ctx, "Acme Digital")
	other := fixtures.CreateAgency(ctx, "Other Agency")
	owner := fixtures.CreateOwner(ctx, "owner@acme.test", mine.ID)

	req := testutil.NewJSONRequest(t, "POST", "/api/agencies", map[string]any{
		"id":           other.ID,
		"name":         "Hijacked",
		"companyEmail": "owner@acme.test",
	})
	req = testutil.WithCaller(req, testutil.Caller(owner.Email))
	rec := testutil.NewRecorder()

	d.handler.ServeUpsert(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestServeGet_MemberOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	d := newHandler(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agency := fixtures.CreateAgency(ctx, "Acme Digital")
	member := fixtures.CreateUser(ctx, "Jane", "jane@acme.test", models.RoleSubAccountUser, agency.ID)
	outsider := fixtures.CreateUser(ctx, "Eve", "eve@other.test", models.RoleAgencyOwner, "other-agency")

	req := testutil.NewAuthenticatedRequest("GET", "/api/agencies/"+agency.ID, testutil.Caller(member.Email))
	req = testutil.WithChiURLParam(req, "agencyID", agency.ID)
	rec := testutil.NewRecorder()
	d.handler.ServeGet(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	req = testutil.NewAuthenticatedRequest("GET", "/api/agencies/"+agency.ID, testutil.Caller(outsider.Email))
	req = testutil.WithChiURLParam(req, "agencyID", agency.ID)
	rec = testutil.NewRecorder()
	d.handler.ServeGet(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestServeUpdate_ChangesDetails(t *testing.T) {
	db := testutil.SetupTestDB(t)
	d := newHandler(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agency := fixtures.CreateAgency(ctx, "Acme Digital")
	owner := fixtures.CreateOwner(ctx, "owner@acme.test", agency.ID)

	whiteLabel := true
	req := testutil.NewJSONRequest(t, "PATCH", "/api/agencies/"+agency.ID, map[string]any{
		"name":       "Acme <b>Digital</b>",
		"whiteLabel": whiteLabel,
	})
	req = testutil.WithCaller(req, testutil.Caller(owner.Email))
	req = testutil.WithChiURLParam(req, "agencyID", agency.ID)
	rec := testutil.NewRecorder()

	d.handler.ServeUpdate(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var updated models.Agency
	rec.DecodeJSON(t, &updated)
	if updated.Name != "Acme Digital" {
		t.Errorf("Name = %q, want markup stripped", updated.Name)
	}
	if !updated.WhiteLabel {
		t.Error("expected WhiteLabel to be set")
	}
}

func TestServeDelete_OwnerOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	d := newHandler(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agency := fixtures.CreateAgency(ctx, "Acme Digital")
	admin := fixtures.CreateUser(ctx, "Adam", "admin@acme.test", models.RoleAgencyAdmin, agency.ID)

	req := testutil.NewAuthenticatedRequest("DELETE", "/api/agencies/"+agency.ID, testutil.Caller(admin.Email))
	req = testutil.WithChiURLParam(req, "agencyID", agency.ID)
	rec := testutil.NewRecorder()
	d.handler.ServeDelete(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)

	owner := fixtures.CreateOwner(ctx, "owner@acme.test", agency.ID)
	req = testutil.NewAuthenticatedRequest("DELETE", "/api/agencies/"+agency.ID, testutil.Caller(owner.Email))
	req = testutil.WithChiURLParam(req, "agencyID", agency.ID)
	rec = testutil.NewRecorder()
	d.handler.ServeDelete(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	if _, err := agencystore.New(db).GetByID(ctx, agency.ID); err != agencystore.ErrNotFound {
		t.Errorf("expected agency gone, got %v", err)
	}
}

func TestServeNotifications_JoinsActingUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	d := newHandler(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agency := fixtures.CreateAgency(ctx, "Acme Digital")
	owner := fixtures.CreateOwner(ctx, "owner@acme.test", agency.ID)

	act := activity.New(userstore.New(db), subaccountstore.New(db), notificationstore.New(db), zap.NewNop())
	if err := act.Log(ctx, activity.Entry{
		Description: "Updated agency information",
		ActorEmail:  owner.Email,
		AgencyID:    agency.ID,
	}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	req := testutil.NewAuthenticatedRequest("GET", "/api/agencies/"+agency.ID+"/notifications", testutil.Caller(owner.Email))
	req = testutil.WithChiURLParam(req, "agencyID", agency.ID)
	rec := testutil.NewRecorder()
	d.handler.ServeNotifications(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var rows []struct {
		Notification string `json:"notification"`
		User         *struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"user"`
	}
	rec.DecodeJSON(t, &rows)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].User == nil {
		t.Fatal("expected acting user joined in")
	}
	if rows[0].User.ID != owner.ID {
		t.Errorf("user id = %q, want %q", rows[0].User.ID, owner.ID)
	}
}

func TestServeUpsert_Unauthenticated(t *testing.T) {
	db := testutil.SetupTestDB(t)
	d := newHandler(db)

	req := testutil.NewJSONRequest(t, "POST", "/api/agencies", map[string]any{
		"name":         "Acme Digital",
		"companyEmail": "a@b.test",
	})
	rec := testutil.NewRecorder()

	d.handler.ServeUpsert(rec, req)
	rec.AssertStatus(t, http.StatusUnauthorized)
}
