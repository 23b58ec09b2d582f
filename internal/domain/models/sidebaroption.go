// internal/domain/models/sidebaroption.go
package models

import "time"

// SidebarOption is a navigation entry owned by either an agency or a
// sub-account, never both. It is presentational data but is seeded
// atomically with its owner's first creation.
type SidebarOption struct {
	ID   string `bson:"_id" json:"id"`
	Name string `bson:"name" json:"name"`
	Icon string `bson:"icon" json:"icon"`
	Link string `bson:"link" json:"link"`

	AgencyID     *string `bson:"agency_id,omitempty" json:"agency_id,omitempty"`
	SubAccountID *string `bson:"sub_account_id,omitempty" json:"sub_account_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
