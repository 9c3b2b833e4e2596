package crawler

import (
	"golang.org/x/net/html"
)

const (
	datedLevels   = 6
	datedMinLen   = 4
	datedTitleMax = 40
	datedLineMax  = 100
)

// DatedExtractor anchors cards on text advertising a campaign period
type DatedExtractor struct {
	limit int
}

// NewDatedExtractor creates a new date-anchored extractor
func NewDatedExtractor(limit int) *DatedExtractor {
	return &DatedExtractor{limit: limit}
}

// Extract implements Extractor
func (e *DatedExtractor) Extract(in Input) Extraction {
	seen := make(map[string]struct{})
	var lines []string

	for _, node := range textNodes(in.document()) {
		if !isPeriodAnchor(NormalizeText(node.Data)) {
			continue
		}

		texts := periodContainerTexts(node)
		if texts == nil {
			continue
		}

		line := composePeriodLine(texts)
		if line == "" {
			continue
		}
		line = truncateRunes(line, datedLineMax)
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		lines = append(lines, line)
	}

	return cardsResult(UniqueTexts(lines, e.limit, datedMinLen))
}

// isPeriodAnchor reports text with a date plus period phrasing, or with two dates
func isPeriodAnchor(text string) bool {
	dates := reFullDate.FindAllString(text, -1)
	if len(dates) == 0 {
		return false
	}
	return len(dates) >= 2 || rePeriodPhrase.MatchString(text)
}

// periodContainerTexts walks up from the text node's parent to the first element with
// at least two strings
func periodContainerTexts(textNode *html.Node) []string {
	cur := textNode.Parent
	for level := 0; level < datedLevels && cur != nil; level++ {
		if cur.Type != html.ElementNode {
			return nil
		}
		if texts := strippedStrings(cur); len(texts) >= 2 {
			return texts
		}
		cur = cur.Parent
	}
	return nil
}

func composePeriodLine(texts []string) string {
	title := ""
	for _, t := range texts {
		if runeLen(t) <= datedTitleMax && !isDateLine(t) {
			title = t
			break
		}
	}
	if title == "" {
		return ""
	}

	for _, t := range texts {
		if len(reFullDate.FindAllString(t, -1)) >= 2 {
			return title + titleSeparator + t
		}
	}
	return title
}

func isDateLine(t string) bool {
	return reFullDate.MatchString(t) || rePeriodPhrase.MatchString(t)
}
