// Package htmlsanitize strips markup from free-text input before it is
// stored. Agency names, sub-account names, and activity descriptions come
// from request bodies and end up rendered in client UIs, so anything that
// looks like HTML is run through bluemonday first.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict = bluemonday.StrictPolicy()
	ugc    = bluemonday.UGCPolicy()
)

// IsPlainText reports whether s contains no HTML tags. A string needs both
// "<" and ">" to form a tag, so "5 < 10" counts as plain text.
func IsPlainText(s string) bool {
	return !strings.Contains(s, "<") || !strings.Contains(s, ">")
}

// StripTags removes all markup from s. Plain text passes through unchanged
// so entities in ordinary names ("Tom & Jerry") are not escaped.
func StripTags(s string) string {
	if IsPlainText(s) {
		return s
	}
	return strict.Sanitize(s)
}

// Sanitize keeps user-generated-content-safe formatting and drops
// everything else (scripts, event handlers, iframes, forms).
func Sanitize(s string) string {
	return ugc.Sanitize(s)
}
