package config

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// Strategy names the card extractor used for a platform
type Strategy string

const (
	StrategyScoredKeyword  Strategy = "scored_keyword"
	StrategyStructuredData Strategy = "structured_data"
	StrategyDOMAncestor    Strategy = "dom_ancestor"
	StrategyDateAnchored   Strategy = "date_anchored"
	StrategyKeywordLink    Strategy = "keyword_link"
)

// MaxCardLimit bounds any per-source card cap
const MaxCardLimit = 15

// Strategies lists every known extractor strategy
var Strategies = []Strategy{
	StrategyScoredKeyword,
	StrategyStructuredData,
	StrategyDOMAncestor,
	StrategyDateAnchored,
	StrategyKeywordLink,
}

// Source is one retailer activity page to scrape
type Source struct {
	Platform string   `yaml:"platform"`
	URL      string   `yaml:"url"`
	Note     string   `yaml:"note"`
	Strategy Strategy `yaml:"strategy"`

	// Limit overrides the strategy's default card cap
	Limit int `yaml:"limit,omitempty"`
	// HrefMarker selects card anchors for the DOM-ancestor strategy
	HrefMarker string `yaml:"href_marker,omitempty"`
	// ContentMarker is the marker token a healthy page carries; empty means "活動"
	ContentMarker string `yaml:"content_marker,omitempty"`
	// EntryPortal marks a low-signal page that is always reported as blocked
	EntryPortal bool `yaml:"entry_portal,omitempty"`
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// DefaultSources returns the built-in platform list
func DefaultSources() []Source {
	return []Source{
		{
			Platform: "BookWalker",
			URL:      "https://www.bookwalker.com.tw/event",
			Note:     "主題&活動列表",
			Strategy: StrategyScoredKeyword,
		},
		{
			Platform: "Readmoo",
			URL:      "https://readmoo.com/campaign/activities",
			Note:     "進行中活動",
			Strategy: StrategyStructuredData,
		},
		{
			Platform:   "HyRead",
			URL:        "https://ebook.hyread.com.tw/Template/store/event_list.jsp",
			Note:       "熱門活動",
			Strategy:   StrategyDOMAncestor,
			HrefMarker: "event",
		},
		{
			Platform: "Pubu",
			URL:      "https://www.pubu.com.tw/activity/ongoing",
			Note:     "全站活動",
			Strategy: StrategyDateAnchored,
		},
		{
			Platform:    "Kobo",
			URL:         "https://www.kobo.com/tw/zh",
			Note:        "折扣多在主頁（弱來源）",
			Strategy:    StrategyKeywordLink,
			EntryPortal: true,
		},
		{
			Platform: "博客來",
			URL:      "https://activity.books.com.tw/crosscat/show/A00000062854?loc=mood_001",
			Note:     "電子書活動入口（可能會調整）",
			Strategy: StrategyKeywordLink,
		},
	}
}

// LoadSourcesFile reads a YAML platform list
func LoadSourcesFile(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	return file.Sources, nil
}

// ValidateSources checks platform uniqueness, URLs, strategies and limits
func ValidateSources(sources []Source) error {
	if len(sources) == 0 {
		return fmt.Errorf("no sources configured")
	}

	seen := make(map[string]bool, len(sources))
	for i, src := range sources {
		if src.Platform == "" {
			return fmt.Errorf("source %d: platform must not be empty", i)
		}
		if seen[src.Platform] {
			return fmt.Errorf("source %q: duplicate platform", src.Platform)
		}
		seen[src.Platform] = true

		u, err := url.Parse(src.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("source %q: invalid url %q", src.Platform, src.URL)
		}
		if !src.Strategy.Valid() {
			return fmt.Errorf("source %q: unknown strategy %q", src.Platform, src.Strategy)
		}
		if src.Limit < 0 || src.Limit > MaxCardLimit {
			return fmt.Errorf("source %q: limit must be between 0 and %d", src.Platform, MaxCardLimit)
		}
	}
	return nil
}

// Valid reports whether s is a known strategy
func (s Strategy) Valid() bool {
	for _, known := range Strategies {
		if s == known {
			return true
		}
	}
	return false
}
