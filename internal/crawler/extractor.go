package crawler

import (
	"fmt"

	"sjsage522/ebookdealworker/config"
)

// default card caps per strategy
const (
	scoredLimit  = 15
	defaultLimit = 12
)

// NewExtractor returns the extractor for a source's strategy
func NewExtractor(src config.Source) (Extractor, error) {
	switch src.Strategy {
	case config.StrategyScoredKeyword:
		return NewScoredExtractor(cardLimit(src, scoredLimit)), nil
	case config.StrategyStructuredData:
		return NewStructuredExtractor(), nil
	case config.StrategyDOMAncestor:
		return NewAncestorExtractor(cardLimit(src, defaultLimit), src.HrefMarker), nil
	case config.StrategyDateAnchored:
		return NewDatedExtractor(cardLimit(src, defaultLimit)), nil
	case config.StrategyKeywordLink:
		return NewKeywordExtractor(cardLimit(src, defaultLimit)), nil
	default:
		return nil, fmt.Errorf("unknown extraction strategy %q for %s", src.Strategy, src.Platform)
	}
}

func cardLimit(src config.Source, fallback int) int {
	if src.Limit <= 0 {
		return fallback
	}
	if src.Limit > config.MaxCardLimit {
		return config.MaxCardLimit
	}
	return src.Limit
}
