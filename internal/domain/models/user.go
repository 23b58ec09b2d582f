// internal/domain/models/user.go
package models

import "time"

// Role is a user's role within their agency.
type Role string

const (
	RoleAgencyOwner     Role = "AGENCY_OWNER"
	RoleAgencyAdmin     Role = "AGENCY_ADMIN"
	RoleSubAccountUser  Role = "SUBACCOUNT_USER"
	RoleSubAccountGuest Role = "SUBACCOUNT_GUEST"
)

// IsValid reports whether r is one of the defined roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAgencyOwner, RoleAgencyAdmin, RoleSubAccountUser, RoleSubAccountGuest:
		return true
	}
	return false
}

// User represents an account holder. The ID matches the external identity
// provider's subject; Email is unique and is the primary lookup key when no
// subject is available.
//
// NOTE:
//   - Sub-account access is not embedded on User. Use the permissions
//     collection to discover which sub-accounts a user can see.
type User struct {
	ID        string `bson:"_id" json:"id"`
	Name      string `bson:"name" json:"name"`
	NameCI    string `bson:"name_ci" json:"name_ci"` // lowercase, diacritics-stripped
	Email     string `bson:"email" json:"email"`     // stored exactly as the identity provider supplies it
	AvatarURL string `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	Role      Role   `bson:"role" json:"role"`

	// AgencyID is empty until the user is bound to an agency (initial
	// sign-up precedes agency creation).
	AgencyID string `bson:"agency_id,omitempty" json:"agency_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
