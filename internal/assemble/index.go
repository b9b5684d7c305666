package assemble

import "taxonomy/builder/internal/domain"

// CategoryBucket groups a category with the items whose parent slug points
// at it. Category is nil when only children reference the slug.
type CategoryBucket struct {
	Slug     string
	Category *domain.Item
	Children []domain.Item
}

// BuildByCategory groups items by category slug in first-reference order.
// Items without a parent slug are left out.
func BuildByCategory(items []domain.Item) []CategoryBucket {
	var buckets []CategoryBucket
	pos := make(map[string]int)

	bucket := func(slug string) *CategoryBucket {
		i, ok := pos[slug]
		if !ok {
			i = len(buckets)
			pos[slug] = i
			buckets = append(buckets, CategoryBucket{Slug: slug, Children: []domain.Item{}})
		}
		return &buckets[i]
	}

	for _, item := range items {
		if item.Type == domain.ItemTypeCategory {
			if item.Slug == "" {
				continue
			}
			b := bucket(item.Slug)
			if b.Category == nil {
				c := item.Clone()
				b.Category = &c
			}
			continue
		}
		if slug := item.ParentSlugValue(); slug != "" {
			b := bucket(slug)
			b.Children = append(b.Children, item.Clone())
		}
	}
	return buckets
}

// BuildBySlug indexes items by their own slug in encounter order.
func BuildBySlug(items []domain.Item) map[string][]domain.Item {
	idx := make(map[string][]domain.Item)
	for _, item := range items {
		if item.Slug == "" {
			continue
		}
		idx[item.Slug] = append(idx[item.Slug], item.Clone())
	}
	return idx
}
