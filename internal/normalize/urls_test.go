package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"taxonomy/builder/internal/normalize"
)

func TestCanonicalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		base string
		href string
		want string
	}{
		{name: "empty href", base: "https://clutch.co", href: "  ", want: ""},
		{name: "root relative", base: "https://clutch.co", href: "/seo", want: "https://clutch.co/seo"},
		{name: "sibling relative", base: "https://clutch.co/categories", href: "seo", want: "https://clutch.co/seo"},
		{name: "relative without base", base: "", href: "/seo", want: ""},
		{name: "protocol relative", base: "", href: "//Clutch.co/seo", want: "https://clutch.co/seo"},
		{name: "lowercases scheme and host", base: "", href: "HTTPS://CLUTCH.CO/Agencies", want: "https://clutch.co/Agencies"},
		{name: "strips https port", base: "", href: "https://clutch.co:443/seo", want: "https://clutch.co/seo"},
		{name: "strips http port", base: "", href: "http://clutch.co:80/seo", want: "http://clutch.co/seo"},
		{name: "keeps other port", base: "", href: "https://clutch.co:8443/seo", want: "https://clutch.co:8443/seo"},
		{name: "collapses slashes and dots", base: "", href: "https://clutch.co//a/./b/../c/", want: "https://clutch.co/a/c"},
		{name: "empty path", base: "", href: "https://clutch.co", want: "https://clutch.co/"},
		{name: "drops fragment", base: "", href: "https://clutch.co/seo#top", want: "https://clutch.co/seo"},
		{
			name: "drops tracking params",
			base: "https://clutch.co",
			href: "/search?q=seo&utm_medium=social",
			want: "https://clutch.co/search?q=seo",
		},
		{
			name: "keeps order and blank values",
			base: "",
			href: "https://clutch.co/s?b=2&gclid=x&a=&fbclid=y&ref=z&c=3&hsa_cam=1&_hsenc=q",
			want: "https://clutch.co/s?b=2&a=&c=3",
		},
		{name: "only tracking params", base: "", href: "https://clutch.co/s?utm_source=x", want: "https://clutch.co/s"},
		{name: "mailto passes through", base: "https://clutch.co", href: " mailto:hi@clutch.co ", want: "mailto:hi@clutch.co"},
		{name: "tel passes through", base: "", href: "tel:+100", want: "tel:+100"},
		{name: "javascript passes through", base: "https://clutch.co", href: "javascript:void(0)", want: "javascript:void(0)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, normalize.Canonicalize(tt.base, tt.href))
		})
	}
}

func TestCanonicalizeIsStable(t *testing.T) {
	t.Parallel()

	hrefs := []string{
		"https://clutch.co/a%20b/?x=1&y=hello%20world",
		"https://clutch.co/path%2Fslash?q=a+b",
		"https://[::1]:443/x",
	}
	for _, href := range hrefs {
		once := normalize.Canonicalize("", href)
		assert.NotEmpty(t, once)
		assert.Equal(t, once, normalize.Canonicalize("", once), href)
	}
}

func TestIsAbsoluteHTTP(t *testing.T) {
	t.Parallel()

	assert.True(t, normalize.IsAbsoluteHTTP("https://clutch.co"))
	assert.True(t, normalize.IsAbsoluteHTTP("HTTP://clutch.co"))
	assert.False(t, normalize.IsAbsoluteHTTP("/seo"))
	assert.False(t, normalize.IsAbsoluteHTTP(""))
}
