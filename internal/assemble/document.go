// Package assemble wraps deduplicated items into the output document,
// stamps provenance and validates the result.
package assemble

import (
	"time"

	"taxonomy/builder/internal/domain"
)

// NewDocument builds a document over a copy of items.
func NewDocument(items []domain.Item, sourcePage, version string, collectedAt time.Time) domain.Document {
	copied := make([]domain.Item, len(items))
	for i, item := range items {
		copied[i] = item.Clone()
	}
	return domain.Document{
		Version:     version,
		SourcePage:  sourcePage,
		CollectedAt: collectedAt.UTC().Truncate(time.Second),
		Items:       copied,
	}
}

// AttachProvenance returns doc with p attached.
func AttachProvenance(doc domain.Document, p domain.Provenance) domain.Document {
	doc.Provenance = &p
	return doc
}
