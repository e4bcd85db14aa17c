// internal/newsletter/payload.go
//
// Mutation payload construction.
//
// Context
//   The payload is derived fresh on every submit.  Merge order is fixed:
//   base {email, fields:{}}, then name, email, and phone when non-empty, then
//   every custom field by name in list order.  A custom field may overwrite
//   name, email, or phone; the last write wins.
//
//------------------------------------------------------------------------------

package newsletter

import (
	"fmt"
	"maps"
)

// MutationPayload is the merged subscription document.
type MutationPayload struct {
	Email  string             `json:"email"`
	Fields map[string]*string `json:"fields"`
}

// BuildMutationPayload merges the visitor's values and custom fields.
func BuildMutationPayload(email string, name, phone *string, custom []CustomField) MutationPayload {
	p := MutationPayload{Email: email, Fields: map[string]*string{}}

	if name != nil && *name != "" {
		p.Fields["name"] = StringPtr(*name)
	}
	if email != "" {
		p.Fields["email"] = StringPtr(email)
	}
	if phone != nil && *phone != "" {
		p.Fields["phone"] = StringPtr(*phone)
	}
	for _, cf := range custom {
		p.Fields[cf.Name] = cf.Value
	}
	return p
}

// Document flattens p into the body sent to the document store: every
// merged field, plus the base email when no field supplied one.
func (p MutationPayload) Document() map[string]*string {
	doc := maps.Clone(p.Fields)
	if doc == nil {
		doc = map[string]*string{}
	}
	if _, ok := doc["email"]; !ok {
		doc["email"] = StringPtr(p.Email)
	}
	return doc
}

// Forward selects which payload a Controller hands to the Submitter.
type Forward string

const (
	// ForwardFull sends the merged document, custom fields included.
	ForwardFull Forward = "full"
	// ForwardLegacy sends only {email, name}, as the first storefront
	// release did.
	ForwardLegacy Forward = "legacy"
)

// ParseForward maps a config string onto a Forward mode.  Empty means full.
func ParseForward(s string) (Forward, error) {
	switch Forward(s) {
	case "", ForwardFull:
		return ForwardFull, nil
	case ForwardLegacy:
		return ForwardLegacy, nil
	default:
		return "", fmt.Errorf("newsletter: unknown forward mode %q", s)
	}
}

// legacyDocument is the {email, name} body of ForwardLegacy.
func legacyDocument(email string, name *string) map[string]*string {
	return map[string]*string{"email": StringPtr(email), "name": name}
}
