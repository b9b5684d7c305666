// Package parser extracts raw taxonomy items from directory markup.
package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"taxonomy/builder/internal/domain"
	"taxonomy/builder/internal/normalize"
)

const allInHint = "all in"

// DirectoryParser is stateless and safe for concurrent use.
type DirectoryParser struct {
	profiles []SelectorProfile
}

// NewDirectoryParser returns a parser trying profiles in the given order,
// or the default profiles when none are given.
func NewDirectoryParser(profiles ...SelectorProfile) *DirectoryParser {
	if len(profiles) == 0 {
		profiles = DefaultProfiles()
	}
	return &DirectoryParser{profiles: profiles}
}

// Extract returns the categories, subcategories and all-in links found in
// markup, in document order. Unrecognized markup yields an empty slice.
func (p *DirectoryParser) Extract(markup string) []domain.RawItem {
	items := make([]domain.RawItem, 0)
	if strings.TrimSpace(markup) == "" || !strings.Contains(markup, "<") {
		return items
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return items
	}

	profile, blocks, ok := p.selectProfile(doc)
	if !ok {
		return items
	}

	blocks.Each(func(_ int, block *goquery.Selection) {
		title := p.extractTitle(block, profile)
		if title == "" {
			return
		}
		items = append(items, domain.RawItem{Type: domain.ItemTypeCategory, Name: title})
		items = append(items, p.extractSubcategories(block, profile, title)...)
		items = append(items, p.extractAllIn(block, profile, title)...)
	})

	return items
}

// ProfileFor reports which profile would be used for markup.
func (p *DirectoryParser) ProfileFor(markup string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", false
	}
	profile, _, ok := p.selectProfile(doc)
	return profile.Name, ok
}

func (p *DirectoryParser) selectProfile(doc *goquery.Document) (SelectorProfile, *goquery.Selection, bool) {
	for _, profile := range p.profiles {
		for _, css := range profile.Blocks {
			if blocks := doc.Find(css); blocks.Length() > 0 {
				return profile, blocks, true
			}
		}
	}
	return SelectorProfile{}, nil, false
}

func (p *DirectoryParser) extractTitle(block *goquery.Selection, profile SelectorProfile) string {
	for _, css := range profile.Titles {
		match := block.Find(css).First()
		if match.Length() == 0 {
			continue
		}
		if title := nodeText(match); title != "" {
			return title
		}
	}
	return ""
}

func (p *DirectoryParser) extractSubcategories(block *goquery.Selection, profile SelectorProfile, title string) []domain.RawItem {
	var nodes *goquery.Selection
	for _, css := range profile.Items {
		if found := block.Find(css); found.Length() > 0 {
			nodes = found
			break
		}
	}
	if nodes == nil {
		return nil
	}

	var out []domain.RawItem
	nodes.Each(func(_ int, node *goquery.Selection) {
		link := findLink(node, profile.Links)
		if link == nil {
			return
		}
		name := nodeText(link)
		if name == "" {
			return
		}
		href, _ := link.Attr("href")
		out = append(out, domain.RawItem{
			Type:       domain.ItemTypeSubcategory,
			Name:       name,
			Href:       strings.TrimSpace(href),
			ParentName: title,
		})
	})
	return out
}

func findLink(node *goquery.Selection, candidates []string) *goquery.Selection {
	for _, css := range candidates {
		if node.Is(css) {
			if _, ok := node.Attr("href"); ok {
				return node
			}
		}
		link := node.Find(css).FilterFunction(func(_ int, s *goquery.Selection) bool {
			_, ok := s.Attr("href")
			return ok
		}).First()
		if link.Length() > 0 {
			return link
		}
	}
	return nil
}

func (p *DirectoryParser) extractAllIn(block *goquery.Selection, profile SelectorProfile, title string) []domain.RawItem {
	signalled := make(map[*html.Node]struct{})
	for _, css := range profile.AllInSignals {
		block.Find(css).Each(func(_ int, s *goquery.Selection) {
			signalled[s.Get(0)] = struct{}{}
		})
	}

	type candidateKey struct{ href, text string }
	seen := make(map[candidateKey]struct{})

	var out []domain.RawItem
	anchors := block.Find("a[href]")
	anchors.Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		text := nodeText(a)

		_, signal := signalled[a.Get(0)]
		if !signal && !hasAllInText(text) && !hasAllInAttr(a) && !hasRootHint(href, profile.RootHrefHints) {
			return
		}

		key := candidateKey{href: href, text: text}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}

		if name := anchorName(a, text); name != "" {
			out = append(out, domain.RawItem{Type: domain.ItemTypeAllIn, Name: name, Href: href, ParentName: title})
		}
	})
	if len(out) > 0 {
		return out
	}

	// Fallback: at most one root-hinted anchor. Root-hinted anchors are
	// already candidates above, so this only runs when every candidate was
	// nameless, and then yields nothing as well.
	var fallback []domain.RawItem
	anchors.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if !hasRootHint(href, profile.RootHrefHints) {
			return true
		}
		if name := anchorName(a, nodeText(a)); name != "" {
			fallback = append(fallback, domain.RawItem{Type: domain.ItemTypeAllIn, Name: name, Href: href, ParentName: title})
		}
		return false
	})
	return fallback
}

func hasAllInText(text string) bool {
	return strings.Contains(strings.ToLower(text), allInHint)
}

func hasAllInAttr(a *goquery.Selection) bool {
	for _, attr := range []string{"aria-label", "title"} {
		if v, ok := a.Attr(attr); ok && hasAllInText(normalize.Clean(v)) {
			return true
		}
	}
	return false
}

func hasRootHint(href string, hints []string) bool {
	if href == "" {
		return false
	}
	for _, hint := range hints {
		if strings.Contains(href, hint) {
			return true
		}
	}
	return false
}

// anchorName prefers visible text and falls back to aria-label, then title.
func anchorName(a *goquery.Selection, text string) string {
	if text != "" {
		return text
	}
	for _, attr := range []string{"aria-label", "title"} {
		if v, ok := a.Attr(attr); ok {
			if cleaned := normalize.Clean(v); cleaned != "" {
				return cleaned
			}
		}
	}
	return ""
}

// nodeText joins the trimmed text nodes under the first node of s with
// single spaces, skipping script and style contents.
func nodeText(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	var parts []string
	collectText(s.Get(0), &parts)
	return normalize.Clean(strings.Join(parts, " "))
}

func collectText(n *html.Node, parts *[]string) {
	switch n.Type {
	case html.TextNode:
		if t := strings.TrimSpace(n.Data); t != "" {
			*parts = append(*parts, t)
		}
		return
	case html.ElementNode:
		if n.Data == "script" || n.Data == "style" {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}
