// Package dedupe collapses duplicate taxonomy records, keeping the best
// scored record per key.
package dedupe

import (
	"strings"
	"unicode/utf8"

	"taxonomy/builder/internal/domain"
	"taxonomy/builder/internal/normalize"
)

// Key groups records that describe the same taxonomy node.
type Key struct {
	Type   string
	First  string
	Second string
}

// KeyOf returns the grouping key of item. All-in records are keyed by
// their parent id when known, otherwise by parent slug and target slug.
func KeyOf(item domain.Item) Key {
	if item.Type == domain.ItemTypeAllIn {
		if parentID := item.ParentIDValue(); parentID != "" {
			return Key{Type: string(domain.ItemTypeAllIn), First: strings.ToLower(parentID)}
		}
		_, target := normalize.AllInTarget(item.Name)
		return Key{
			Type:   string(domain.ItemTypeAllIn),
			First:  strings.ToLower(item.ParentSlugValue()),
			Second: target,
		}
	}
	return Key{
		Type:   strings.ToLower(string(item.Type)),
		First:  strings.ToLower(item.Slug),
		Second: strings.ToLower(item.ParentSlugValue()),
	}
}

// Score ranks duplicates; higher wins.
type Score struct {
	URLQuality int
	NameLength int
}

// Beats reports whether s is strictly greater than other.
func (s Score) Beats(other Score) bool {
	if s.URLQuality != other.URLQuality {
		return s.URLQuality > other.URLQuality
	}
	return s.NameLength > other.NameLength
}

// ScoreOf rates an item by URL quality (absolute http(s) 2, other
// non-empty 1, empty 0) and trimmed name length.
func ScoreOf(item domain.Item) Score {
	quality := 0
	switch {
	case normalize.IsAbsoluteHTTP(item.URL):
		quality = 2
	case strings.TrimSpace(item.URL) != "":
		quality = 1
	}
	return Score{
		URLQuality: quality,
		NameLength: utf8.RuneCountInString(strings.TrimSpace(item.Name)),
	}
}

// Items returns one record per key in first-seen key order. Input items
// are copied; the caller's slice is never mutated.
func Items(items []domain.Item) []domain.Item {
	order := make([]Key, 0, len(items))
	kept := make(map[Key]domain.Item, len(items))

	for _, item := range items {
		key := KeyOf(item)
		current, ok := kept[key]
		if !ok {
			kept[key] = item.Clone()
			order = append(order, key)
			continue
		}

		candidate := item.Clone()
		if ScoreOf(candidate).Beats(ScoreOf(current)) {
			backfill(&candidate, current)
			kept[key] = candidate
			continue
		}
		backfill(&current, candidate)
		kept[key] = current
	}

	out := make([]domain.Item, 0, len(order))
	for _, key := range order {
		out = append(out, kept[key])
	}
	return out
}

// backfill copies name, url and parent id from src into the empty fields
// of dst.
func backfill(dst *domain.Item, src domain.Item) {
	if strings.TrimSpace(dst.Name) == "" && src.Name != "" {
		dst.Name = src.Name
	}
	if strings.TrimSpace(dst.URL) == "" && src.URL != "" {
		dst.URL = src.URL
	}
	if dst.ParentIDValue() == "" && src.ParentIDValue() != "" {
		dst.ParentID = domain.StringPtr(src.ParentIDValue())
	}
}
