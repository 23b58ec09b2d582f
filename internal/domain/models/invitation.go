// internal/domain/models/invitation.go
package models

import "time"

// InvitationStatus is the lifecycle state of an invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
)

// Invitation binds an email to a future user and role within an agency.
// It is single-use: acceptance creates the user and deletes the invitation.
// The role is never AGENCY_OWNER; owners are assigned at agency creation.
type Invitation struct {
	ID       string           `bson:"_id" json:"id"`
	Email    string           `bson:"email" json:"email"`
	AgencyID string           `bson:"agency_id" json:"agency_id"`
	Role     Role             `bson:"role" json:"role"`
	Status   InvitationStatus `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
