package normalize

import (
	"regexp"
	"strings"

	"taxonomy/builder/internal/domain"
)

var allInPrefix = regexp.MustCompile(`(?i)^all\s+in\b[\s:;,.\-–—…]*`)

// IsAllIn reports whether a name or href looks like a "see all listings"
// link.
func IsAllIn(name, href string) bool {
	if strings.Contains(strings.ToLower(Clean(name)), "all in") {
		return true
	}

	h := strings.ToLower(strings.TrimSpace(href))
	if h == "" {
		return false
	}
	return strings.Contains(h, "all-in") ||
		strings.HasSuffix(h, "/all") ||
		strings.Contains(h, "/all/") ||
		strings.Contains(h, "?all=") ||
		strings.Contains(h, "&all=")
}

// AllInTarget strips a leading "all in" phrase from an all-in display name
// and returns the remaining label together with its slug. Both are empty
// when nothing remains.
func AllInTarget(name string) (label, targetSlug string) {
	cleaned := Clean(name)
	label = Clean(allInPrefix.ReplaceAllString(cleaned, ""))
	label = strings.TrimRight(label, " :;,.-–—…")
	if label == "" {
		return "", ""
	}
	return label, Slugify(label)
}

// BuildID returns the canonical identifier for an item.
func BuildID(t domain.ItemType, slug, parentSlug string) string {
	switch t {
	case domain.ItemTypeCategory:
		return "category:" + slug
	case domain.ItemTypeSubcategory:
		return "subcategory:" + parentSlug + ":" + slug
	case domain.ItemTypeAllIn:
		return "all_in:" + parentSlug + ":" + slug
	default:
		return string(t) + ":" + parentSlug + ":" + slug
	}
}
