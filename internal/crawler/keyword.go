package crawler

const keywordMinLen = 3

// KeywordExtractor keeps link texts mentioning a promotional term
type KeywordExtractor struct {
	limit int
}

// NewKeywordExtractor creates a new keyword link extractor
func NewKeywordExtractor(limit int) *KeywordExtractor {
	return &KeywordExtractor{limit: limit}
}

// Extract implements Extractor
func (e *KeywordExtractor) Extract(in Input) Extraction {
	var candidates []string
	for _, text := range linkTexts(in.document()) {
		if isChrome(text) || !withinLinkWindow(text) {
			continue
		}
		if containsAny(text, cardKeywords) {
			candidates = append(candidates, text)
		}
	}
	return cardsResult(UniqueTexts(candidates, e.limit, keywordMinLen))
}
