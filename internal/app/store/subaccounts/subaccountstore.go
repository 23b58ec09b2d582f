// internal/app/store/subaccounts/subaccountstore.go
package subaccountstore

import (
	"context"
	"errors"
	"time"

	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/app/system/normalize"
	"github.com/BrianHammer/webprodigies-plura-tutorial/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound            = errors.New("sub-account not found")
	ErrMissingCompanyEmail = errors.New("sub-account requires a company email")
	ErrNoAgencyOwner       = errors.New("agency has no owner to grant access to")
)

// DefaultPipelineName is the pipeline every new sub-account starts with.
const DefaultPipelineName = "Lead Cycle"

// Store manages sub-account records plus the rows seeded alongside a new
// sub-account (owner permission, default pipeline, sidebar options).
type Store struct {
	c              *mongo.Collection
	users          *mongo.Collection
	permissions    *mongo.Collection
	pipelines      *mongo.Collection
	sidebarOptions *mongo.Collection
	notifications  *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:              db.Collection("sub_accounts"),
		users:          db.Collection("users"),
		permissions:    db.Collection("permissions"),
		pipelines:      db.Collection("pipelines"),
		sidebarOptions: db.Collection("sidebar_options"),
		notifications:  db.Collection("notifications"),
	}
}

// DefaultSidebarOptions returns the sidebar option set seeded for a new
// sub-account.
func DefaultSidebarOptions(subAccountID string) []models.SidebarOption {
	now := time.Now().UTC()
	opts := []struct {
		name, icon, link string
	}{
		{"Launchpad", "clipboardIcon", "/subaccount/" + subAccountID + "/launchpad"},
		{"Settings", "settings", "/subaccount/" + subAccountID + "/settings"},
		{"Funnels", "pipelines", "/subaccount/" + subAccountID + "/funnels"},
		{"Media", "database", "/subaccount/" + subAccountID + "/media"},
		{"Automations", "chip", "/subaccount/" + subAccountID + "/automations"},
		{"Pipelines", "flag", "/subaccount/" + subAccountID + "/pipelines"},
		{"Contacts", "person", "/subaccount/" + subAccountID + "/contacts"},
		{"Dashboard", "category", "/subaccount/" + subAccountID},
	}

	out := make([]models.SidebarOption, 0, len(opts))
	for _, o := range opts {
		id := subAccountID
		out = append(out, models.SidebarOption{
			ID:           uuid.NewString(),
			Name:         o.name,
			Icon:         o.icon,
			Link:         o.link,
			SubAccountID: &id,
			CreatedAt:    now,
		})
	}
	return out
}

// Upsert creates or updates a sub-account keyed by its identifier. On first
// creation it seeds the owning agency's owner with an access permission, a
// default pipeline, and the sub-account sidebar options. The agency must
// already have an AGENCY_OWNER user; when several exist the earliest-created
// one is granted access.
func (s *Store) Upsert(ctx context.Context, sub models.SubAccount) (models.SubAccount, error) {
	sub.CompanyEmail = normalize.Email(sub.CompanyEmail)
	if sub.CompanyEmail == "" {
		return models.SubAccount{}, ErrMissingCompanyEmail
	}

	var owner models.User
	err := s.users.FindOne(ctx,
		bson.M{"agency_id": sub.AgencyID, "role": models.RoleAgencyOwner},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	).Decode(&owner)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.SubAccount{}, ErrNoAgencyOwner
		}
		return models.SubAccount{}, err
	}

	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	sub.Name = normalize.Name(sub.Name)
	sub.NameCI = text.Fold(sub.Name)

	now := time.Now().UTC()
	sub.UpdatedAt = now

	set := bson.M{
		"agency_id":        sub.AgencyID,
		"name":             sub.Name,
		"name_ci":          sub.NameCI,
		"company_email":    sub.CompanyEmail,
		"sub_account_logo": sub.SubAccountLogo,
		"updated_at":       now,
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": sub.ID},
		bson.M{"$set": set, "$setOnInsert": bson.M{"created_at": now}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return models.SubAccount{}, err
	}

	if res.UpsertedCount == 1 {
		sub.CreatedAt = now
		if err := s.seed(ctx, sub.ID, owner.Email, now); err != nil {
			return models.SubAccount{}, err
		}
	}

	return sub, nil
}

func (s *Store) seed(ctx context.Context, subAccountID, ownerEmail string, now time.Time) error {
	perm := models.Permission{
		ID:           uuid.NewString(),
		Email:        ownerEmail,
		SubAccountID: subAccountID,
		Access:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.permissions.InsertOne(ctx, perm); err != nil && !wafflemongo.IsDup(err) {
		return err
	}

	pipeline := models.Pipeline{
		ID:           uuid.NewString(),
		Name:         DefaultPipelineName,
		SubAccountID: subAccountID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.pipelines.InsertOne(ctx, pipeline); err != nil && !wafflemongo.IsDup(err) {
		return err
	}

	seeds := DefaultSidebarOptions(subAccountID)
	docs := make([]interface{}, len(seeds))
	for i, o := range seeds {
		docs[i] = o
	}
	if _, err := s.sidebarOptions.InsertMany(ctx, docs); err != nil && !wafflemongo.IsDup(err) {
		return err
	}
	return nil
}

// SubAccountUpdate holds the fields that can be changed on an existing
// sub-account.
type SubAccountUpdate struct {
	Name           string
	CompanyEmail   string
	SubAccountLogo string
}

// Update modifies an existing sub-account's details. Empty name/email are
// left untouched; the logo may be cleared.
func (s *Store) Update(ctx context.Context, id string, upd SubAccountUpdate) error {
	set := bson.M{
		"updated_at":       time.Now().UTC(),
		"sub_account_logo": upd.SubAccountLogo,
	}
	if upd.Name != "" {
		set["name"] = normalize.Name(upd.Name)
		set["name_ci"] = text.Fold(upd.Name)
	}
	if email := normalize.Email(upd.CompanyEmail); email != "" {
		set["company_email"] = email
	}

	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID loads a sub-account.
func (s *Store) GetByID(ctx context.Context, id string) (models.SubAccount, error) {
	var sub models.SubAccount
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&sub); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.SubAccount{}, ErrNotFound
		}
		return models.SubAccount{}, err
	}
	return sub, nil
}

// ListByAgency returns all sub-accounts under an agency sorted by name.
func (s *Store) ListByAgency(ctx context.Context, agencyID string) ([]models.SubAccount, error) {
	cur, err := s.c.Find(ctx, bson.M{"agency_id": agencyID},
		options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var subs []models.SubAccount
	if err := cur.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// GetByIDs loads the sub-accounts for the given ids. Missing ids are
// skipped, not errored.
func (s *Store) GetByIDs(ctx context.Context, ids []string) ([]models.SubAccount, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var subs []models.SubAccount
	if err := cur.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// Delete removes a sub-account and the rows bound to it: permissions,
// pipelines, sidebar options, and notifications scoped to it.
func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	if _, err := s.permissions.DeleteMany(ctx, bson.M{"sub_account_id": id}); err != nil {
		return 0, err
	}
	if _, err := s.pipelines.DeleteMany(ctx, bson.M{"sub_account_id": id}); err != nil {
		return 0, err
	}
	if _, err := s.sidebarOptions.DeleteMany(ctx, bson.M{"sub_account_id": id}); err != nil {
		return 0, err
	}
	if _, err := s.notifications.DeleteMany(ctx, bson.M{"sub_account_id": id}); err != nil {
		return 0, err
	}

	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates indexes for the sub_accounts collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "agency_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_subaccount_agency_name"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}
