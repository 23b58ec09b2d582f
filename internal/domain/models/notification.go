// internal/domain/models/notification.go
package models

import "time"

// Notification is an immutable activity-log entry. It always references the
// acting user and the owning agency; the sub-account reference is present
// only for sub-account-scoped actions, and never without the agency that
// owns that sub-account.
type Notification struct {
	ID           string  `bson:"_id" json:"id"`
	Notification string  `bson:"notification" json:"notification"` // "<user name> | <description>"
	UserID       string  `bson:"user_id" json:"user_id"`
	AgencyID     string  `bson:"agency_id" json:"agency_id"`
	SubAccountID *string `bson:"sub_account_id,omitempty" json:"sub_account_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
