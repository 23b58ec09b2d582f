// Package normalize provides canonical forms for user-supplied fields
// before they are stored or used in lookups.
//
// Emails are NOT lowercased: user records store the address exactly as the
// identity provider supplies it, and lookups match it exactly. Only
// surrounding whitespace is stripped.
package normalize

import "strings"

// Email trims surrounding whitespace from an email address. The case is
// preserved so lookups match the identity provider's stored form.
func Email(s string) string {
	return strings.TrimSpace(s)
}

// Name trims surrounding whitespace from a display name. Case is preserved.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Description trims surrounding whitespace from an activity description.
func Description(s string) string {
	return strings.TrimSpace(s)
}
