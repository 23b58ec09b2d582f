// internal/domain/models/subaccount.go
package models

import "time"

// SubAccount is a workspace owned by exactly one agency. Deleting the
// agency deletes its sub-accounts (exclusive ownership).
type SubAccount struct {
	ID             string `bson:"_id" json:"id"`
	AgencyID       string `bson:"agency_id" json:"agency_id"`
	Name           string `bson:"name" json:"name"`
	NameCI         string `bson:"name_ci" json:"name_ci"`
	CompanyEmail   string `bson:"company_email" json:"company_email"`
	SubAccountLogo string `bson:"sub_account_logo,omitempty" json:"sub_account_logo,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasLogo returns true if the sub-account has its own logo set.
func (s SubAccount) HasLogo() bool {
	return s.SubAccountLogo != ""
}
