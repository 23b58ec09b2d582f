// internal/domain/models/permission.go
package models

import "time"

// Permission grants (or revokes) a user's visibility into one sub-account.
//
// The record is keyed by email rather than a user id on purpose: permissions
// can be granted before the user record exists (invitations precede
// accounts). At most one row exists per (email, sub_account_id) pair; the
// Access flag captures grant/revoke without deleting history.
type Permission struct {
	ID           string `bson:"_id" json:"id"`
	Email        string `bson:"email" json:"email"`
	SubAccountID string `bson:"sub_account_id" json:"sub_account_id"`
	Access       bool   `bson:"access" json:"access"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
