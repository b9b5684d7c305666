package normalize

import (
	"strings"

	"taxonomy/builder/internal/domain"
)

type categoryEntry struct {
	name string
	slug string
	id   string
}

type subcategoryEntry struct {
	name         string
	slug         string
	id           string
	categorySlug string
}

type subKey struct {
	categorySlug string
	key          string
}

// registry indexes one run's categories and subcategories. It lives for a
// single AttachLineage call.
type registry struct {
	categories map[string]categoryEntry
	subsByName map[subKey]subcategoryEntry
	subsBySlug map[subKey]subcategoryEntry
	subs       []subcategoryEntry
}

func newRegistry() *registry {
	return &registry{
		categories: make(map[string]categoryEntry),
		subsByName: make(map[subKey]subcategoryEntry),
		subsBySlug: make(map[subKey]subcategoryEntry),
	}
}

func (r *registry) addCategory(name, slug string) {
	key := strings.ToLower(name)
	if _, ok := r.categories[key]; ok {
		return
	}
	r.categories[key] = categoryEntry{name: name, slug: slug, id: BuildID(domain.ItemTypeCategory, slug, "")}
}

func (r *registry) category(name string) (categoryEntry, bool) {
	if name == "" {
		return categoryEntry{}, false
	}
	c, ok := r.categories[strings.ToLower(name)]
	return c, ok
}

func (r *registry) addSubcategory(cat categoryEntry, name, slug string) {
	entry := subcategoryEntry{
		name:         name,
		slug:         slug,
		id:           BuildID(domain.ItemTypeSubcategory, slug, cat.slug),
		categorySlug: cat.slug,
	}
	byName := subKey{categorySlug: cat.slug, key: strings.ToLower(name)}
	if _, ok := r.subsByName[byName]; !ok {
		r.subsByName[byName] = entry
		r.subs = append(r.subs, entry)
	}
	bySlug := subKey{categorySlug: cat.slug, key: slug}
	if _, ok := r.subsBySlug[bySlug]; !ok {
		r.subsBySlug[bySlug] = entry
	}
}

func (r *registry) subcategory(categorySlug, label, slug string) (subcategoryEntry, bool) {
	if label != "" {
		if s, ok := r.subsByName[subKey{categorySlug: categorySlug, key: strings.ToLower(label)}]; ok {
			return s, true
		}
	}
	if slug != "" {
		if s, ok := r.subsBySlug[subKey{categorySlug: categorySlug, key: slug}]; ok {
			return s, true
		}
	}
	return subcategoryEntry{}, false
}

// subcategoryNamed finds a registered subcategory by display name across
// all categories, first registered wins.
func (r *registry) subcategoryNamed(name string) (subcategoryEntry, bool) {
	lower := strings.ToLower(name)
	for _, s := range r.subs {
		if strings.ToLower(s.name) == lower {
			return s, true
		}
	}
	return subcategoryEntry{}, false
}

type pending struct {
	itemType domain.ItemType
	name     string
	slug     string
	url      string
	parent   string
}

// AttachLineage cleans raw items, assigns canonical IDs and links every
// subcategory and all-in item to its parent where the parent can be
// resolved. Output order follows input order over the surviving items.
func AttachLineage(raw []domain.RawItem, baseURL string) []domain.Item {
	baseURL = strings.TrimSpace(baseURL)

	kept := make([]pending, 0, len(raw))
	for _, r := range raw {
		name := Clean(r.Name)
		if name == "" {
			continue
		}
		itemType, ok := domain.ParseItemType(string(r.Type))
		if !ok {
			continue
		}
		slug := Slugify(name)
		if slug == "" {
			continue
		}

		href := strings.TrimSpace(r.Href)
		if itemType != domain.ItemTypeAllIn && IsAllIn(name, href) {
			itemType = domain.ItemTypeAllIn
		}

		link := baseURL
		if href != "" {
			link = Canonicalize(baseURL, href)
		}

		kept = append(kept, pending{
			itemType: itemType,
			name:     name,
			slug:     slug,
			url:      link,
			parent:   Clean(r.ParentName),
		})
	}

	reg := newRegistry()
	for _, p := range kept {
		if p.itemType == domain.ItemTypeCategory {
			reg.addCategory(p.name, p.slug)
		}
	}
	for _, p := range kept {
		if p.itemType != domain.ItemTypeSubcategory {
			continue
		}
		if cat, ok := reg.category(p.parent); ok {
			reg.addSubcategory(cat, p.name, p.slug)
		}
	}

	items := make([]domain.Item, 0, len(kept))
	for _, p := range kept {
		switch p.itemType {
		case domain.ItemTypeCategory:
			items = append(items, domain.Item{
				ID:   BuildID(domain.ItemTypeCategory, p.slug, ""),
				Type: domain.ItemTypeCategory,
				Name: p.name,
				Slug: p.slug,
				URL:  p.url,
			})
		case domain.ItemTypeSubcategory:
			items = append(items, reg.finalizeSubcategory(p))
		case domain.ItemTypeAllIn:
			items = append(items, reg.finalizeAllIn(p))
		}
	}
	return items
}

func (r *registry) finalizeSubcategory(p pending) domain.Item {
	item := domain.Item{
		Type: domain.ItemTypeSubcategory,
		Name: p.name,
		Slug: p.slug,
		URL:  p.url,
	}
	if p.parent != "" {
		item.Parent = domain.StringPtr(p.parent)
	}

	cat, ok := r.category(p.parent)
	if !ok {
		item.ID = BuildID(domain.ItemTypeSubcategory, p.slug, "")
		return item
	}
	item.ID = BuildID(domain.ItemTypeSubcategory, p.slug, cat.slug)
	item.Parent = domain.StringPtr(cat.name)
	item.ParentSlug = domain.StringPtr(cat.slug)
	item.ParentID = domain.StringPtr(cat.id)
	return item
}

func (r *registry) finalizeAllIn(p pending) domain.Item {
	item := domain.Item{
		Type: domain.ItemTypeAllIn,
		Name: p.name,
		Slug: p.slug,
		URL:  p.url,
	}

	linkSub := func(s subcategoryEntry) domain.Item {
		item.ID = BuildID(domain.ItemTypeAllIn, p.slug, s.slug)
		item.Parent = domain.StringPtr(s.name)
		item.ParentSlug = domain.StringPtr(s.slug)
		item.ParentID = domain.StringPtr(s.id)
		return item
	}

	cat, catOK := r.category(p.parent)

	if p.parent != "" {
		if catOK {
			if s, ok := r.subcategory(cat.slug, p.parent, ""); ok {
				return linkSub(s)
			}
		} else if s, ok := r.subcategoryNamed(p.parent); ok {
			return linkSub(s)
		}
	}

	if catOK {
		label, target := AllInTarget(p.name)
		if s, ok := r.subcategory(cat.slug, label, target); ok {
			return linkSub(s)
		}

		item.ID = BuildID(domain.ItemTypeAllIn, p.slug, cat.slug)
		item.Parent = domain.StringPtr(cat.name)
		item.ParentSlug = domain.StringPtr(cat.slug)
		item.ParentID = domain.StringPtr(cat.id)
		return item
	}

	item.ID = BuildID(domain.ItemTypeAllIn, p.slug, "")
	if p.parent != "" {
		item.Parent = domain.StringPtr(p.parent)
	}
	return item
}
