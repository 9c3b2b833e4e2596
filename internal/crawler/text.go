package crawler

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const ellipsis = "…"

// NormalizeText collapses every whitespace run to a single space and trims both ends
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// truncateRunes cuts s to at most n runes, the last one being the ellipsis
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + ellipsis
}

// UniqueTexts normalizes the candidates, drops those shorter than minLen runes and exact
// duplicates, orders the rest longest first and keeps each one that is not contained in
// an already kept text, stopping at limit. A non-positive limit keeps everything.
func UniqueTexts(candidates []string, limit, minLen int) []string {
	seen := make(map[string]struct{}, len(candidates))
	pool := make([]string, 0, len(candidates))
	for _, c := range candidates {
		t := NormalizeText(c)
		if runeLen(t) < minLen {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		pool = append(pool, t)
	}

	sortByLengthDesc(pool)

	kept := make([]string, 0, len(pool))
	for _, c := range pool {
		if containedIn(c, kept) {
			continue
		}
		kept = append(kept, c)
		if limit > 0 && len(kept) == limit {
			break
		}
	}
	return kept
}

func sortByLengthDesc(texts []string) {
	sort.SliceStable(texts, func(i, j int) bool {
		return runeLen(texts[i]) > runeLen(texts[j])
	})
}

func containedIn(s string, texts []string) bool {
	for _, t := range texts {
		if strings.Contains(t, s) {
			return true
		}
	}
	return false
}

var skippedTextParents = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// strippedStrings returns the normalized non-empty text nodes under n in document order
func strippedStrings(n *html.Node) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && skippedTextParents[node.Data] {
			return
		}
		if node.Type == html.TextNode {
			if t := NormalizeText(node.Data); t != "" {
				out = append(out, t)
			}
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func distinctCount(texts []string) int {
	set := make(map[string]struct{}, len(texts))
	for _, t := range texts {
		set[t] = struct{}{}
	}
	return len(set)
}

// linkTexts returns the normalized text of every anchor in document order
func linkTexts(doc *goquery.Document) []string {
	var texts []string
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		if t := NormalizeText(a.Text()); t != "" {
			texts = append(texts, t)
		}
	})
	return texts
}

// textNodes returns every text node in the document outside script-like elements
func textNodes(doc *goquery.Document) []*html.Node {
	var nodes []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && skippedTextParents[node.Data] {
			return
		}
		if node.Type == html.TextNode {
			nodes = append(nodes, node)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, root := range doc.Nodes {
		walk(root)
	}
	return nodes
}

// pageTitle returns the whitespace-collapsed <title> text
func pageTitle(doc *goquery.Document) string {
	return NormalizeText(doc.Find("title").First().Text())
}
