package crawler

import (
	"sort"
	"strings"
)

const (
	scoredMinLen = 4
	// newItemGuarantee is how many unseen candidates survive selection regardless of score
	newItemGuarantee = 2
)

type scoredCandidate struct {
	text  string
	score int
}

// ScoredExtractor ranks link texts by promotional signals
type ScoredExtractor struct {
	limit int
}

// NewScoredExtractor creates a new scored keyword extractor
func NewScoredExtractor(limit int) *ScoredExtractor {
	return &ScoredExtractor{limit: limit}
}

// Extract implements Extractor
func (e *ScoredExtractor) Extract(in Input) Extraction {
	var candidates []scoredCandidate
	for _, text := range linkTexts(in.document()) {
		if isChrome(text) || !withinLinkWindow(text) {
			continue
		}
		if s := scoreText(text); s > 0 {
			candidates = append(candidates, scoredCandidate{text: text, score: s})
		}
	}

	fresh := unseenTexts(candidates, in.PriorCards, newItemGuarantee)

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	ordered := make([]string, 0, len(fresh)+len(candidates))
	ordered = append(ordered, fresh...)
	for _, c := range candidates {
		ordered = append(ordered, c.text)
	}

	cards := UniqueTexts(ordered, e.limit, scoredMinLen)
	return cardsResult(ensureIncluded(cards, fresh, e.limit))
}

// scoreText sums the promotional signals in a link text
func scoreText(text string) int {
	score := 0
	if reDiscountRatio.MatchString(text) {
		score += 3
	}
	if rePercent.MatchString(text) {
		score += 3
	}
	if reMinSpend.MatchString(text) {
		score += 2
	}
	if rePrice.MatchString(text) {
		score += 2
	}
	if reShortDate.MatchString(text) {
		score++
	}
	if reFullDate.MatchString(text) {
		score++
	}
	for _, kw := range promoKeywords {
		if strings.Contains(text, kw) {
			score++
		}
	}
	for _, kw := range contradictoryKeywords {
		if strings.Contains(text, kw) {
			score -= 2
		}
	}
	return score
}

// unseenTexts returns up to n candidate texts, in document order, missing from prior
func unseenTexts(candidates []scoredCandidate, prior []string, n int) []string {
	known := make(map[string]struct{}, len(prior))
	for _, p := range prior {
		known[NormalizeText(p)] = struct{}{}
	}

	var fresh []string
	for _, c := range candidates {
		if len(fresh) == n {
			break
		}
		if _, ok := known[c.text]; ok {
			continue
		}
		known[c.text] = struct{}{}
		fresh = append(fresh, c.text)
	}
	return fresh
}

// ensureIncluded puts back any guaranteed text lost to the selector's cap by replacing
// the shortest non-guaranteed card. Texts covered by a kept card are already present, and
// cards a guaranteed text covers give way to it so the list stays containment-free.
func ensureIncluded(cards, guaranteed []string, limit int) []string {
	must := make(map[string]struct{}, len(guaranteed))
	for _, g := range guaranteed {
		must[g] = struct{}{}
	}

	for _, g := range guaranteed {
		if runeLen(g) < scoredMinLen || containedIn(g, cards) {
			continue
		}
		cards = dropCoveredBy(cards, g)
		if limit <= 0 || len(cards) < limit {
			cards = append(cards, g)
		} else {
			for i := len(cards) - 1; i >= 0; i-- {
				if _, ok := must[cards[i]]; !ok {
					cards[i] = g
					break
				}
			}
		}
		sortByLengthDesc(cards)
	}
	return cards
}

// dropCoveredBy removes the cards contained in text
func dropCoveredBy(cards []string, text string) []string {
	kept := make([]string, 0, len(cards)+1)
	for _, c := range cards {
		if !strings.Contains(text, c) {
			kept = append(kept, c)
		}
	}
	return kept
}
