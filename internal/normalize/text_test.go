package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"taxonomy/builder/internal/normalize"
)

func TestClean(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "only whitespace", in: " \t\n ", want: ""},
		{name: "punctuation kept", in: "  --  ", want: "--"},
		{name: "collapses runs", in: "  SEO \n\t  PPC  ", want: "SEO PPC"},
		{name: "non-breaking space", in: "Web\u00a0Design", want: "Web Design"},
		{name: "control characters", in: "Ad\x00ver\x07tising\x7f", want: "Advertising"},
		{name: "compatibility forms", in: "ＳＥＯ ﬁrms", want: "SEO firms"},
		{name: "decomposed accents compose", in: "Cafe\u0301", want: "Caf\u00e9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, normalize.Clean(tt.in))
		})
	}
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "SEO & PPC", want: "seo-ppc"},
		{in: "Email Marketing", want: "email-marketing"},
		{in: "Ünicode Näme", want: "unicode-name"},
		{in: "---Trim---Dashes---", want: "trim-dashes"},
		{in: "PPC/SEM", want: "ppc-sem"},
		{in: "Café & SEO — 2025!", want: "cafe-seo-2025"},
		{in: "日本語", want: ""},
		{in: "  Web  Design  ", want: "web-design"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, normalize.Slugify(tt.in))
		})
	}
}

func TestCleanAndSlugifyAreIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"null",
		"  --  ",
		"e\x01\u0301",
		"Ünicode Näme",
		"ＳＥＯ\tﬁrms\n",
		"\u0301leading mark",
		"All in — Social Media Marketing…",
	}

	for _, in := range inputs {
		cleaned := normalize.Clean(in)
		assert.Equal(t, cleaned, normalize.Clean(cleaned), "clean(%q)", in)

		slug := normalize.Slugify(in)
		assert.Equal(t, slug, normalize.Slugify(slug), "slugify(%q)", in)
	}
}
