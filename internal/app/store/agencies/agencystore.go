// internal/app/store/agencies/agencystore.go
package agencystore

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
	ErrNotFound            = errors.New("agency not found")
	ErrMissingCompanyEmail = errors.New("agency requires a company email")
)

// Store manages agency records and the rows an agency exclusively owns.
// The extra collections are held so Delete can cascade without callers
// stitching stores together.
type Store struct {
	c              *mongo.Collection
	subAccounts    *mongo.Collection
	sidebarOptions *mongo.Collection
	permissions    *mongo.Collection
	pipelines      *mongo.Collection
	notifications  *mongo.Collection
	invitations    *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:              db.Collection("agencies"),
		subAccounts:    db.Collection("sub_accounts"),
		sidebarOptions: db.Collection("sidebar_options"),
		permissions:    db.Collection("permissions"),
		pipelines:      db.Collection("pipelines"),
		notifications:  db.Collection("notifications"),
		invitations:    db.Collection("invitations"),
	}
}

// DefaultSidebarOptions returns the sidebar option set seeded for a new
// agency. Link templates are fixed; the presentation layer substitutes
// nothing further.
func DefaultSidebarOptions(agencyID string) []models.SidebarOption {
	now := time.Now().UTC()
	opts := []struct {
		name, icon, link string
	}{
		{"Dashboard", "category", "/agency/" + agencyID},
		{"Launchpad", "clipboardIcon", "/agency/" + agencyID + "/launchpad"},
		{"Billing", "payment", "/agency/" + agencyID + "/billing"},
		{"Settings", "settings", "/agency/" + agencyID + "/settings"},
		{"Sub Accounts", "person", "/agency/" + agencyID + "/all-subaccounts"},
		{"Team", "shield", "/agency/" + agencyID + "/team"},
	}

	out := make([]models.SidebarOption, 0, len(opts))
	for _, o := range opts {
		id := agencyID
		out = append(out, models.SidebarOption{
			ID:        uuid.NewString(),
			Name:      o.name,
			Icon:      o.icon,
			Link:      o.link,
			AgencyID:  &id,
			CreatedAt: now,
		})
	}
	return out
}

// Upsert creates or updates an agency keyed by its identifier. On first
// creation the default agency sidebar options are seeded. A repeat upsert
// updates the mutable fields and does not re-seed options.
func (s *Store) Upsert(ctx context.Context, a models.Agency) (models.Agency, error) {
	a.CompanyEmail = normalize.Email(a.CompanyEmail)
	if a.CompanyEmail == "" {
		return models.Agency{}, ErrMissingCompanyEmail
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.Name = normalize.Name(a.Name)
	a.NameCI = text.Fold(a.Name)

	now := time.Now().UTC()
	a.UpdatedAt = now

	set := bson.M{
		"name":          a.Name,
		"name_ci":       a.NameCI,
		"company_email": a.CompanyEmail,
		"agency_logo":   a.AgencyLogo,
		"white_label":   a.WhiteLabel,
		"plan":          a.Plan,
		"updated_at":    now,
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": a.ID},
		bson.M{"$set": set, "$setOnInsert": bson.M{"created_at": now}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return models.Agency{}, err
	}

	if res.UpsertedCount == 1 {
		a.CreatedAt = now
		seeds := DefaultSidebarOptions(a.ID)
		docs := make([]interface{}, len(seeds))
		for i, o := range seeds {
			docs[i] = o
		}
		if _, err := s.sidebarOptions.InsertMany(ctx, docs); err != nil && !wafflemongo.IsDup(err) {
			return models.Agency{}, err
		}
	}

	return a, nil
}

// AgencyUpdate holds the fields that can be changed on an existing agency.
type AgencyUpdate struct {
	Name         string
	CompanyEmail string
	AgencyLogo   string
	WhiteLabel   *bool
	Plan         models.Plan
}

// Update modifies an existing agency's details. Zero-value fields are left
// untouched except the logo, which may be cleared.
func (s *Store) Update(ctx context.Context, id string, upd AgencyUpdate) error {
	set := bson.M{
		"updated_at":  time.Now().UTC(),
		"agency_logo": upd.AgencyLogo,
	}
	if upd.Name != "" {
		set["name"] = normalize.Name(upd.Name)
		set["name_ci"] = text.Fold(upd.Name)
	}
	if email := normalize.Email(upd.CompanyEmail); email != "" {
		set["company_email"] = email
	}
	if upd.WhiteLabel != nil {
		set["white_label"] = *upd.WhiteLabel
	}
	if upd.Plan != "" {
		set["plan"] = upd.Plan
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

// GetByID loads an agency.
func (s *Store) GetByID(ctx context.Context, id string) (models.Agency, error) {
	var a models.Agency
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Agency{}, ErrNotFound
		}
		return models.Agency{}, err
	}
	return a, nil
}

// Delete removes an agency and everything it exclusively owns: its
// sub-accounts (with their sidebar options, pipelines, and permissions),
// its own sidebar options, its notifications, and its pending invitations.
func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	// Collect owned sub-account ids first; deletions below key by value so
	// a partial failure can be re-driven.
	cur, err := s.subAccounts.Find(ctx, bson.M{"agency_id": id},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return 0, err
	}
	var subIDs []string
	for cur.Next(ctx) {
		var row struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			cur.Close(ctx)
			return 0, err
		}
		subIDs = append(subIDs, row.ID)
	}
	if err := cur.Err(); err != nil {
		cur.Close(ctx)
		return 0, err
	}
	cur.Close(ctx)

	if len(subIDs) > 0 {
		in := bson.M{"$in": subIDs}
		if _, err := s.permissions.DeleteMany(ctx, bson.M{"sub_account_id": in}); err != nil {
			return 0, err
		}
		if _, err := s.pipelines.DeleteMany(ctx, bson.M{"sub_account_id": in}); err != nil {
			return 0, err
		}
		if _, err := s.sidebarOptions.DeleteMany(ctx, bson.M{"sub_account_id": in}); err != nil {
			return 0, err
		}
		if _, err := s.subAccounts.DeleteMany(ctx, bson.M{"agency_id": id}); err != nil {
			return 0, err
		}
	}

	if _, err := s.sidebarOptions.DeleteMany(ctx, bson.M{"agency_id": id}); err != nil {
		return 0, err
	}
	if _, err := s.notifications.DeleteMany(ctx, bson.M{"agency_id": id}); err != nil {
		return 0, err
	}
	if _, err := s.invitations.DeleteMany(ctx, bson.M{"agency_id": id}); err != nil {
		return 0, err
	}

	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates indexes for the agencies collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_agency_name_ci"),
		},
		{
			Keys:    bson.D{{Key: "company_email", Value: 1}},
			Options: options.Index().SetName("idx_agency_company_email"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}
