package domain

import "strings"

// ItemType is the closed set of taxonomy node kinds.
type ItemType string

func (t ItemType) String() string {
	return string(t)
}

const (
	ItemTypeUnknown     ItemType = ""
	ItemTypeCategory    ItemType = "category"    // Top-level node
	ItemTypeSubcategory ItemType = "subcategory" // Nested under one category
	ItemTypeAllIn       ItemType = "all_in"      // "All in X" listing link
)

var ItemTypes = []ItemType{
	ItemTypeCategory,
	ItemTypeSubcategory,
	ItemTypeAllIn,
}

// ParseItemType coerces arbitrary input into an ItemType. Unrecognized
// values yield ItemTypeUnknown and false.
func ParseItemType(v string) (ItemType, bool) {
	switch ItemType(strings.ToLower(strings.TrimSpace(v))) {
	case ItemTypeCategory:
		return ItemTypeCategory, true
	case ItemTypeSubcategory:
		return ItemTypeSubcategory, true
	case ItemTypeAllIn:
		return ItemTypeAllIn, true
	default:
		return ItemTypeUnknown, false
	}
}

// Valid reports whether t is one of the known item types.
func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeCategory, ItemTypeSubcategory, ItemTypeAllIn:
		return true
	default:
		return false
	}
}

func (t ItemType) GetTypeName() string {
	switch t {
	case ItemTypeCategory:
		return "Category"
	case ItemTypeSubcategory:
		return "Subcategory"
	case ItemTypeAllIn:
		return "All-in"
	default:
		return "Unknown"
	}
}
