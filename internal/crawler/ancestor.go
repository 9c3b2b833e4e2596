package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	defaultHrefMarker = "event"
	ancestorLevels    = 5
	ancestorMinLen    = 4
	metaMaxRunes      = 60
	cardTitleMin      = 4
	cardTitleMax      = 30
	ancestorLineMax   = 90
	// titleSeparator joins a card title and its subtitle
	titleSeparator = "｜"
)

// AncestorExtractor finds card boundaries by walking up from topical anchors
type AncestorExtractor struct {
	limit      int
	hrefMarker string
}

// NewAncestorExtractor creates a new DOM-ancestor extractor. An empty marker means "event".
func NewAncestorExtractor(limit int, hrefMarker string) *AncestorExtractor {
	if hrefMarker == "" {
		hrefMarker = defaultHrefMarker
	}
	return &AncestorExtractor{limit: limit, hrefMarker: hrefMarker}
}

// Extract implements Extractor
func (e *AncestorExtractor) Extract(in Input) Extraction {
	seen := make(map[string]struct{})
	var lines []string

	in.document().Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.Contains(href, e.hrefMarker) {
			return
		}

		line := composeTitleLine(cardTexts(a.Nodes[0]))
		if line == "" {
			return
		}
		line = truncateRunes(line, ancestorLineMax)
		if _, ok := seen[line]; ok {
			return
		}
		seen[line] = struct{}{}
		lines = append(lines, line)
	})

	return cardsResult(UniqueTexts(lines, e.limit, ancestorMinLen))
}

// cardTexts returns the strings of the first element, starting at the anchor itself,
// that owns at least two distinct strings. Falls back to the anchor's own strings.
func cardTexts(anchor *html.Node) []string {
	cur := anchor
	for level := 0; level <= ancestorLevels && cur != nil; level++ {
		if cur.Type != html.ElementNode {
			break
		}
		texts := strippedStrings(cur)
		if distinctCount(texts) >= 2 {
			return texts
		}
		cur = cur.Parent
	}
	return strippedStrings(anchor)
}

// composeTitleLine builds "title｜subtitle" from a card's strings; empty when no title fits
func composeTitleLine(texts []string) string {
	subtitle := ""
	for _, t := range texts {
		if isMetaLike(t) && runeLen(t) <= metaMaxRunes {
			subtitle = t
			break
		}
	}

	title := ""
	for _, t := range texts {
		if t != subtitle && !isMetaLike(t) && fitsCardTitle(t) {
			title = t
			break
		}
	}
	if title == "" {
		for _, t := range texts {
			if fitsCardTitle(t) {
				title = t
				break
			}
		}
	}

	if title == "" {
		return ""
	}
	if subtitle == "" || subtitle == title {
		return title
	}
	return title + titleSeparator + subtitle
}

func fitsCardTitle(t string) bool {
	n := runeLen(t)
	return n >= cardTitleMin && n <= cardTitleMax
}
