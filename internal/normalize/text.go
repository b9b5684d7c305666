// Package normalize turns raw directory items into canonical taxonomy
// records: text cleanup, slugs, URL canonicalization and lineage.
//
// Every function here is pure and safe for concurrent use.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Clean returns s with control characters removed, NFKC applied and every
// whitespace run (including non-breaking space) collapsed to one space.
func Clean(s string) string {
	if s == "" {
		return ""
	}
	// Controls go first so NFKC sees the final rune sequence.
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Slugify returns a lowercase ASCII slug with single dashes between
// alphanumeric runs, e.g. "Café & SEO — 2025!" becomes "cafe-seo-2025".
func Slugify(s string) string {
	s = Clean(s)
	if s == "" {
		return ""
	}

	folded, _, err := transform.String(asciiFold(), s)
	if err != nil {
		return ""
	}

	var b strings.Builder
	b.Grow(len(folded))
	dash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}

// asciiFold decomposes and drops everything outside ASCII, which removes
// combining diacritics. Transformers carry state, so build one per call.
func asciiFold() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
}
