package parser

// SelectorProfile lists ordered CSS candidates per role. The parser walks
// each list in order and stops at the first candidate that matches.
type SelectorProfile struct {
	Name string
	// Blocks group a category heading with its subcategory links.
	Blocks []string
	// Titles resolve the category heading inside a block.
	Titles []string
	// Items are the subcategory rows inside a block.
	Items []string
	// Links resolve the anchor inside an item.
	Links []string
	// AllInSignals mark anchors as all-in links by attributes alone.
	AllInSignals []string
	// RootHrefHints are href substrings pointing at directory roots.
	RootHrefHints []string
}

var defaultRootHints = []string{"/directory/", "/categories", "/category/"}

var (
	PrimaryProfile = SelectorProfile{
		Name: "primary",
		Blocks: []string{
			"section.category",
			"section.directory-category",
			"div.directory-categories > section",
			`[data-test="category-block"]`,
			"div.category",
			"li.category",
		},
		Titles: []string{".category--title", ".category-title", "header h2", "h2", "h3"},
		Items: []string{
			"ul.subcategories > li",
			"div.subcategories > div",
			"ul > li",
			".subcategory",
			".field--item",
			".list-item",
		},
		Links:         []string{"a.subcategory-link[href]", "a[href].subcategory", "a[href]"},
		AllInSignals:  []string{`a[href][class*="all-in"]`, `a[href][data-test="all-in"]`},
		RootHrefHints: defaultRootHints,
	}

	AltListyProfile = SelectorProfile{
		Name:          "alt_listy",
		Blocks:        []string{"ul.categories > li", "div.categories > div", "section.categories > div"},
		Titles:        []string{"h2", "h3", ".title", "header .title"},
		Items:         []string{"ul > li", ".items > .item", ".links > li"},
		Links:         []string{"a[href]", "a.link"},
		AllInSignals:  []string{`a[href][class*="all-in"]`, `a[href][data-test="all-in"]`},
		RootHrefHints: defaultRootHints,
	}

	GenericProfile = SelectorProfile{
		Name:          "generic",
		Blocks:        []string{"section", "div", "li"},
		Titles:        []string{"h2", "h3", "strong", ".title"},
		Items:         []string{"li", "div", ".item"},
		Links:         []string{"a[href]"},
		RootHrefHints: defaultRootHints,
	}
)

// DefaultProfiles returns the built-in profiles in priority order.
func DefaultProfiles() []SelectorProfile {
	return []SelectorProfile{PrimaryProfile, AltListyProfile, GenericProfile}
}
