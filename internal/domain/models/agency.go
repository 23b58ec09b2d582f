// internal/domain/models/agency.go
package models

import "time"

// Plan identifies the billing plan an agency is subscribed to.
// Billing itself is handled outside this service; the value is carried
// so the presentation layer can render plan-dependent chrome.
type Plan string

const (
	PlanStarter   Plan = "starter"
	PlanUnlimited Plan = "unlimited"
)

// Agency is the root tenant. It owns sub-accounts, agency-level sidebar
// options, users, and the notifications logged against it.
type Agency struct {
	ID           string `bson:"_id" json:"id"`
	Name         string `bson:"name" json:"name"`
	NameCI       string `bson:"name_ci" json:"name_ci"` // lowercase, diacritics-stripped
	CompanyEmail string `bson:"company_email" json:"company_email"`
	AgencyLogo   string `bson:"agency_logo,omitempty" json:"agency_logo,omitempty"`

	// WhiteLabel controls sidebar branding: when true, sub-account scopes
	// always show the agency logo.
	WhiteLabel bool `bson:"white_label" json:"white_label"`

	Plan Plan `bson:"plan,omitempty" json:"plan,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
