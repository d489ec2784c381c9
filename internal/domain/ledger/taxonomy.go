package ledger

import "strings"

// Taxonomy is the configured set of valid (category, subcategory, action_type)
// triples. Subcategory and action type may be declared as "*" to accept any
// value under the category.
type Taxonomy struct {
	triples map[string]struct{}
}

func taxonomyKey(category, subcategory, actionType string) string {
	return category + "|" + subcategory + "|" + actionType
}

// NewTaxonomy builds a taxonomy from "category:subcategory:action" entries.
func NewTaxonomy(entries []string) *Taxonomy {
	t := &Taxonomy{triples: make(map[string]struct{}, len(entries))}
	for _, e := range entries {
		parts := strings.SplitN(strings.TrimSpace(e), ":", 3)
		for len(parts) < 3 {
			parts = append(parts, "*")
		}
		t.triples[taxonomyKey(parts[0], parts[1], parts[2])] = struct{}{}
	}
	return t
}

// ParseTaxonomy parses a comma-separated taxonomy string from configuration.
// An empty string yields the default taxonomy.
func ParseTaxonomy(s string) *Taxonomy {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultTaxonomy()
	}
	return NewTaxonomy(strings.Split(s, ","))
}

// DefaultTaxonomy covers the platform's built-in earning and spending surfaces.
func DefaultTaxonomy() *Taxonomy {
	return NewTaxonomy([]string{
		"signup:grant:registration",
		"challenge:*:*",
		"content:*:*",
		"store:purchase:*",
		"marketplace:booking:payment",
		"marketplace:booking:payout",
		"marketplace:booking:refund",
		"transfer:peer:out",
		"transfer:peer:in",
		"conversion:request:debit",
		"conversion:reject:refund",
		"withdrawal:request:debit",
		"withdrawal:reject:refund",
		"admin:adjustment:*",
	})
}

// Allows reports whether the classification triple is valid.
func (t *Taxonomy) Allows(c Classification) bool {
	if _, ok := t.triples[taxonomyKey(c.Category, c.Subcategory, c.ActionType)]; ok {
		return true
	}
	if _, ok := t.triples[taxonomyKey(c.Category, c.Subcategory, "*")]; ok {
		return true
	}
	if _, ok := t.triples[taxonomyKey(c.Category, "*", "*")]; ok {
		return true
	}
	return false
}
