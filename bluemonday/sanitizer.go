// Package bluemonday sanitizes extracted article HTML using
// github.com/microcosm-cc/bluemonday policies.
package bluemonday

import (
	"strings"

	"github.com/fwojciec/readable"
	"github.com/microcosm-cc/bluemonday"
)

// Ensure Sanitizer implements readable.Sanitizer at compile time.
var _ readable.Sanitizer = (*Sanitizer)(nil)

// Sanitizer removes scripts, event handlers and other unsafe markup while
// keeping the structure of the article.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer returns a Sanitizer built on the user generated content
// policy. The class, id, dir and lang attributes survive so the output
// still carries the readability page markers.
func NewSanitizer() *Sanitizer {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class", "id", "dir", "lang").Globally()
	return &Sanitizer{policy: policy}
}

// NewStrictSanitizer returns a Sanitizer that strips every element and
// keeps only text.
func NewStrictSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize applies the policy to html.
func (s *Sanitizer) Sanitize(html string) string {
	if html == "" {
		return ""
	}
	return strings.TrimSpace(s.policy.Sanitize(html))
}
