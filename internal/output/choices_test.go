package output_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxonomy/builder/internal/domain"
	"taxonomy/builder/internal/normalize"
	"taxonomy/builder/internal/output"
)

var generatedAt = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func items() []domain.Item {
	return normalize.AttachLineage([]domain.RawItem{
		{Type: domain.ItemTypeCategory, Name: "Marketing", Href: "/marketing"},
		{Type: domain.ItemTypeSubcategory, Name: "SEO", Href: "/seo", ParentName: "Marketing"},
		{Type: domain.ItemTypeSubcategory, Name: "PPC", Href: "/ppc", ParentName: "Marketing"},
		{Type: domain.ItemTypeAllIn, Name: "All in SEO", Href: "/seo/all", ParentName: "Marketing"},
		{Type: domain.ItemTypeAllIn, Name: "All in Marketing", Href: "/marketing/all", ParentName: "Marketing"},
		{Type: domain.ItemTypeCategory, Name: "Development"},
	}, "https://clutch.co")
}

func TestBuildChoices_WithoutAllIn(t *testing.T) {
	t.Parallel()

	choices := output.BuildChoices(items(), false, "0.1.0", generatedAt)

	assert.Equal(t, generatedAt, choices.GeneratedAt)
	assert.Equal(t, "0.1.0", choices.Version)
	require.Len(t, choices.Categories, 2)

	marketing := choices.Categories[0]
	assert.Equal(t, "marketing", marketing.Slug)
	assert.Equal(t, "https://clutch.co/marketing", marketing.URL)
	require.Len(t, marketing.Subs, 2)
	assert.Equal(t, "seo", marketing.Subs[0].Slug)
	assert.Nil(t, marketing.Subs[0].AllIn)
	assert.Equal(t, "ppc", marketing.Subs[1].Slug)

	assert.Equal(t, "development", choices.Categories[1].Slug)
	assert.NotNil(t, choices.Categories[1].Subs)
	assert.Empty(t, choices.Categories[1].Subs)
}

func TestBuildChoices_WithAllIn(t *testing.T) {
	t.Parallel()

	choices := output.BuildChoices(items(), true, "0.1.0", generatedAt)
	require.Len(t, choices.Categories, 2)

	subs := choices.Categories[0].Subs
	require.Len(t, subs, 3)
	assert.Equal(t, "seo", subs[0].Slug)
	require.Len(t, subs[0].AllIn, 1)
	assert.Equal(t, "all-in-seo", subs[0].AllIn[0].Slug)
	assert.Empty(t, subs[1].AllIn)
	assert.Equal(t, "all-in-marketing", subs[2].Slug)
}

func TestBuildChoices_SynthesizesCategories(t *testing.T) {
	t.Parallel()

	in := normalize.AttachLineage([]domain.RawItem{
		{Type: domain.ItemTypeSubcategory, Name: "SEO", Href: "/seo", ParentName: "Marketing"},
		{Type: domain.ItemTypeSubcategory, Name: "Apps", Href: "/apps"},
		{Type: domain.ItemTypeSubcategory, Name: "PPC", Href: "/ppc", ParentName: "Marketing"},
	}, "https://clutch.co")

	choices := output.BuildChoices(in, false, "0.1.0", generatedAt)
	require.Len(t, choices.Categories, 2)

	assert.Equal(t, "Marketing", choices.Categories[0].Name)
	assert.Equal(t, "marketing", choices.Categories[0].Slug)
	assert.Len(t, choices.Categories[0].Subs, 2)

	assert.Equal(t, "Uncategorized", choices.Categories[1].Name)
	assert.Equal(t, "uncategorized", choices.Categories[1].Slug)
	assert.Len(t, choices.Categories[1].Subs, 1)
}

func TestBuildChoices_Empty(t *testing.T) {
	t.Parallel()

	choices := output.BuildChoices(nil, true, "0.1.0", generatedAt)
	assert.NotNil(t, choices.Categories)
	assert.Empty(t, choices.Categories)
}
