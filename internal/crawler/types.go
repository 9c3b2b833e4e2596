package crawler

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"sjsage522/ebookdealworker/config"
	"sjsage522/ebookdealworker/internal/snapshot"
)

// Crawler interface defines the contract for all crawler implementations
type Crawler interface {
	// Crawl fetches and analyzes one platform. It always returns an entry; failures are
	// recorded in the entry rather than returned.
	Crawl(ctx context.Context, prior snapshot.PriorState) snapshot.Entry

	// GetName returns the crawler's name for logging and identification
	GetName() string

	// GetProvider returns the platform name for the crawler
	GetProvider() string

	// GetSource returns the static configuration the crawler was built from
	GetSource() config.Source
}

// ParseStatus tells why an extraction produced the cards it did
type ParseStatus int

const (
	ParseOK ParseStatus = iota
	ParseEmpty
	ParseChallenge
	ParseMalformed
)

func (s ParseStatus) String() string {
	switch s {
	case ParseOK:
		return "ok"
	case ParseEmpty:
		return "empty"
	case ParseChallenge:
		return "challenge"
	case ParseMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Extraction is the result of running an extractor over one page
type Extraction struct {
	Cards  []string
	Status ParseStatus
	Reason string
}

// Input is what an extractor sees of a fetched page
type Input struct {
	HTML string
	// Doc is parsed from HTML when nil
	Doc *goquery.Document
	// PriorCards are the platform's cards from the previous run, if any
	PriorCards []string
}

// Extractor turns page markup into card strings. Extractors never fail; unusable
// markup yields an empty card list.
type Extractor interface {
	Extract(in Input) Extraction
}

func (in Input) document() *goquery.Document {
	if in.Doc != nil {
		return in.Doc
	}
	return parseDocument(in.HTML)
}

// parseDocument never returns nil; markup the parser rejects yields an empty document
func parseDocument(markup string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return goquery.NewDocumentFromNode(&html.Node{Type: html.DocumentNode})
	}
	return doc
}

func cardsResult(cards []string) Extraction {
	if cards == nil {
		cards = []string{}
	}
	if len(cards) == 0 {
		return Extraction{Cards: cards, Status: ParseEmpty, Reason: "no cards found"}
	}
	return Extraction{Cards: cards, Status: ParseOK}
}
