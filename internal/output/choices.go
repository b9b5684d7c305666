package output

import (
	"time"

	"taxonomy/builder/internal/assemble"
	"taxonomy/builder/internal/domain"
	"taxonomy/builder/internal/normalize"
)

const uncategorized = "Uncategorized"

// BuildChoices projects items into the compact structure used by UIs.
//
// Categories keep first-seen order. With includeAllIn, all-in links
// parented to a category are listed next to its subcategories and all-in
// links parented to a subcategory are attached under it. When items hold
// no category records, categories are synthesized from the subcategories'
// parent slugs, or their display parent names when unresolved.
func BuildChoices(items []domain.Item, includeAllIn bool, version string, now time.Time) domain.Choices {
	allInBySub := make(map[string][]domain.ChoiceEntry)
	if includeAllIn {
		for _, item := range items {
			if item.Type != domain.ItemTypeAllIn {
				continue
			}
			if parentID := item.ParentIDValue(); parentID != "" {
				allInBySub[parentID] = append(allInBySub[parentID], entryOf(item))
			}
		}
	}

	subEntry := func(item domain.Item) domain.ChoiceEntry {
		e := entryOf(item)
		if includeAllIn {
			e.AllIn = allInBySub[item.ID]
		}
		return e
	}

	categories := make([]domain.ChoiceCategory, 0)
	for _, bucket := range assemble.BuildByCategory(items) {
		if bucket.Category == nil {
			continue
		}
		cat := domain.ChoiceCategory{
			Name: bucket.Category.Name,
			Slug: bucket.Category.Slug,
			URL:  bucket.Category.URL,
			Subs: make([]domain.ChoiceEntry, 0, len(bucket.Children)),
		}
		for _, child := range bucket.Children {
			switch {
			case child.Type == domain.ItemTypeSubcategory:
				cat.Subs = append(cat.Subs, subEntry(child))
			case includeAllIn && child.Type == domain.ItemTypeAllIn:
				cat.Subs = append(cat.Subs, entryOf(child))
			}
		}
		categories = append(categories, cat)
	}

	if len(categories) == 0 {
		categories = synthesizeCategories(items, subEntry)
	}

	return domain.Choices{
		GeneratedAt: now.UTC().Truncate(time.Second),
		Version:     version,
		Categories:  categories,
	}
}

func synthesizeCategories(items []domain.Item, subEntry func(domain.Item) domain.ChoiceEntry) []domain.ChoiceCategory {
	categories := make([]domain.ChoiceCategory, 0)
	pos := make(map[string]int)

	for _, item := range items {
		if item.Type != domain.ItemTypeSubcategory {
			continue
		}
		slug := item.ParentSlugValue()
		if slug == "" {
			slug = normalize.Slugify(item.ParentValue())
		}
		i, ok := pos[slug]
		if !ok {
			name, catSlug := item.ParentValue(), slug
			if name == "" {
				name = uncategorized
			}
			if catSlug == "" {
				catSlug = normalize.Slugify(uncategorized)
			}
			i = len(categories)
			pos[slug] = i
			categories = append(categories, domain.ChoiceCategory{Name: name, Slug: catSlug, Subs: []domain.ChoiceEntry{}})
		}
		categories[i].Subs = append(categories[i].Subs, subEntry(item))
	}
	return categories
}

func entryOf(item domain.Item) domain.ChoiceEntry {
	return domain.ChoiceEntry{Name: item.Name, Slug: item.Slug, URL: item.URL}
}
