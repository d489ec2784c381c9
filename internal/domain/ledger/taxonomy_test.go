package ledger_test

import (
	"testing"

	"github.com/luminaria/luminaria-api/internal/domain/ledger"
)

func TestTaxonomyWildcards(t *testing.T) {
	tax := ledger.NewTaxonomy([]string{
		"challenge:*:*",
		"store:purchase:*",
		"transfer:peer:out",
	})

	cases := []struct {
		name  string
		class ledger.Classification
		want  bool
	}{
		{"exact triple", ledger.Classification{Category: "transfer", Subcategory: "peer", ActionType: "out"}, true},
		{"action wildcard", ledger.Classification{Category: "store", Subcategory: "purchase", ActionType: "sticker"}, true},
		{"category wildcard", ledger.Classification{Category: "challenge", Subcategory: "weekly", ActionType: "streak"}, true},
		{"wrong subcategory", ledger.Classification{Category: "store", Subcategory: "refund", ActionType: "sticker"}, false},
		{"wrong action", ledger.Classification{Category: "transfer", Subcategory: "peer", ActionType: "in"}, false},
		{"unknown category", ledger.Classification{Category: "gambling", Subcategory: "*", ActionType: "*"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tax.Allows(tc.class); got != tc.want {
				t.Fatalf("Allows(%+v) = %v, want %v", tc.class, got, tc.want)
			}
		})
	}
}

func TestParseTaxonomyDefaults(t *testing.T) {
	tax := ledger.ParseTaxonomy("")
	if !tax.Allows(ledger.Classification{Category: "signup", Subcategory: "grant", ActionType: "registration"}) {
		t.Fatal("empty config should fall back to the default taxonomy")
	}

	custom := ledger.ParseTaxonomy("quests:*, store:purchase:avatar")
	if !custom.Allows(ledger.Classification{Category: "quests", Subcategory: "side", ActionType: "bonus"}) {
		t.Fatal("short entries should expand with wildcards")
	}
	if custom.Allows(ledger.Classification{Category: "signup", Subcategory: "grant", ActionType: "registration"}) {
		t.Fatal("custom taxonomy should not include defaults")
	}
}
