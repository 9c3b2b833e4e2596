package crawler

import (
	"strings"

	"sjsage522/ebookdealworker/config"
)

// Blocked reasons shown on the rendered listing
const (
	ReasonEntryPortal        = "入口頁訊號雜訊多，僅提供活動連結"
	ReasonScriptVerification = "需要 JS／機器人驗證，無法自動抓取"
	ReasonSuspectedAntiBot   = "疑似反爬蟲／驗證頁，活動列表無法取得"
)

// defaultContentMarker is the marker token every healthy activity listing carries.
// A page with no cards and no marker token is treated as a verification wall.
// Sources override it with config.Source.ContentMarker.
const defaultContentMarker = "活動"

// challengePhrases are lower-case markers of anti-bot and JavaScript challenge pages
var challengePhrases = []string{
	"verify that you're not a robot",
	"verify that you’re not a robot",
	"verify you are human",
	"are you a robot",
	"enable javascript",
	"javascript is disabled",
	"javascript is required",
	"checking your browser",
	"cf-browser-verification",
	"cf-challenge",
	"please turn javascript on",
	"請啟用 javascript",
	"請開啟 javascript",
	"機器人驗證",
}

// scriptErrorTerms mark a structured-data fetch error as a verification wall
var scriptErrorTerms = []string{"robot", "javascript", "js"}

// challengePhrase returns the first challenge phrase found in the markup
func challengePhrase(markup string) (string, bool) {
	lower := strings.ToLower(markup)
	for _, p := range challengePhrases {
		if strings.Contains(lower, p) {
			return p, true
		}
	}
	return "", false
}

// BlockedStatus tells whether a platform's result should be treated as unusable
type BlockedStatus struct {
	Blocked bool
	Reason  string
	// Rule names the rule that fired
	Rule string
}

// BlockInput is everything the blocking rules look at
type BlockInput struct {
	Source config.Source
	HTML   string
	Error  string
	Cards  []string
}

type blockRule struct {
	name    string
	matches func(in BlockInput) bool
	reason  string
}

// blockRules are evaluated in order; the first match wins
var blockRules = []blockRule{
	{
		name:    "entry_portal",
		matches: func(in BlockInput) bool { return in.Source.EntryPortal },
		reason:  ReasonEntryPortal,
	},
	{
		name: "structured_script_error",
		matches: func(in BlockInput) bool {
			return isStructured(in) && containsAny(strings.ToLower(in.Error), scriptErrorTerms)
		},
		reason: ReasonScriptVerification,
	},
	{
		name: "challenge_phrase",
		matches: func(in BlockInput) bool {
			if isStructured(in) {
				return false
			}
			_, ok := challengePhrase(in.HTML)
			return ok
		},
		reason: ReasonScriptVerification,
	},
	{
		// no cards and no marker token; structured pages carry their data in scripts
		name: "missing_marker_token",
		matches: func(in BlockInput) bool {
			if isStructured(in) {
				return false
			}
			marker := in.Source.ContentMarker
			if marker == "" {
				marker = defaultContentMarker
			}
			return len(in.Cards) == 0 && !strings.Contains(in.HTML, marker)
		},
		reason: ReasonSuspectedAntiBot,
	},
}

func isStructured(in BlockInput) bool {
	return in.Source.Strategy == config.StrategyStructuredData
}

// DetectBlocking applies the blocking rules to one platform's result
func DetectBlocking(in BlockInput) BlockedStatus {
	for _, rule := range blockRules {
		if rule.matches(in) {
			return BlockedStatus{Blocked: true, Reason: rule.reason, Rule: rule.name}
		}
	}
	return BlockedStatus{}
}
