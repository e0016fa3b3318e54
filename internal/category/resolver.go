// Package category resolves which articles of an issue belong to a
// category, whichever of the three meta.json layouts the issue uses.
package category

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/starford/babilon/internal/models"
)

var labels = map[string]string{
	"fikcja": "Fikcja",
	"realia": "Realia",
	"poezja": "Poezja",
}

// Canonical folds a category to its lookup key: lower case, diacritics
// stripped, whitespace removed. "Poezja ", "poezja" and "PÓEZJA" agree.
func Canonical(category string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(category))
	if err != nil {
		folded = strings.ToLower(category)
	}
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return -1
		case r == 'ł':
			// ł has no decomposition.
			return 'l'
		}
		return r
	}, folded)
}

// Label returns the display label of a category, or the raw string for
// unknown categories.
func Label(category string) string {
	if l, ok := labels[Canonical(category)]; ok {
		return l
	}
	return category
}

// Resolve returns the articles of meta listed under category, in source
// order. A nil meta resolves to an empty list. The layouts are tried in
// a fixed priority: keyed "articles", flat "articles", then top-level
// keys.
func Resolve(meta *models.IssueMeta, category string) []models.ArticleSummary {
	if meta == nil {
		return []models.ArticleSummary{}
	}
	key := Canonical(category)

	if meta.Articles.Shape == models.ShapeKeyed {
		if list, ok := lookup(meta.Articles.Keyed, key); ok {
			return slices.Clone(list)
		}
	}

	if meta.Articles.Shape == models.ShapeFlat {
		out := []models.ArticleSummary{}
		for _, a := range meta.Articles.Flat {
			if Canonical(a.Category) == key {
				out = append(out, a)
			}
		}
		return out
	}

	if list, ok := lookup(meta.TopLevel, key); ok {
		return slices.Clone(list)
	}
	return []models.ArticleSummary{}
}

// lookup prefers an exact key match, then the first key that
// canonicalizes to key.
func lookup(groups []models.Group, key string) ([]models.ArticleSummary, bool) {
	for _, g := range groups {
		if g.Key == key {
			return g.Articles, true
		}
	}
	for _, g := range groups {
		if Canonical(g.Key) == key {
			return g.Articles, true
		}
	}
	return nil, false
}

// Entry is an article together with the canonical category it is filed
// under.
type Entry struct {
	Category string
	Article  models.ArticleSummary
}

// All lists every article of meta once, in the order Resolve would
// return them category by category.
func All(meta *models.IssueMeta) []Entry {
	if meta == nil {
		return nil
	}
	var out []Entry
	if meta.Articles.Shape == models.ShapeFlat {
		for _, a := range meta.Articles.Flat {
			out = append(out, Entry{Category: Canonical(a.Category), Article: a})
		}
		return out
	}
	seen := make(map[string]bool)
	add := func(groups []models.Group) {
		for _, g := range groups {
			key := Canonical(g.Key)
			if seen[key] {
				continue
			}
			seen[key] = true
			list, _ := lookup(groups, key)
			for _, a := range list {
				out = append(out, Entry{Category: key, Article: a})
			}
		}
	}
	if meta.Articles.Shape == models.ShapeKeyed {
		add(meta.Articles.Keyed)
	}
	add(meta.TopLevel)
	return out
}
