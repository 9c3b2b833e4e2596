package crawler

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"sjsage522/ebookdealworker/config"
	"sjsage522/ebookdealworker/helpers"
	"sjsage522/ebookdealworker/internal/snapshot"
	"sjsage522/ebookdealworker/logger"
	"sjsage522/ebookdealworker/pkg/errors"
	"sjsage522/ebookdealworker/services/cache"
)

// BaseCrawler runs one platform through fetch, extraction, blocking and fingerprinting
type BaseCrawler struct {
	Source    config.Source
	Fetcher   helpers.Fetcher
	Extractor Extractor
	CacheSvc  cache.CacheService
	CacheKey  string
	BlockTime time.Duration
}

// NewBaseCrawler creates a crawler for src using the extractor its strategy names
func NewBaseCrawler(src config.Source, fetcher helpers.Fetcher, cacheSvc cache.CacheService, blockTime time.Duration) (*BaseCrawler, error) {
	extractor, err := NewExtractor(src)
	if err != nil {
		return nil, errors.NewValidation(src.Platform, err.Error())
	}
	return &BaseCrawler{
		Source:    src,
		Fetcher:   fetcher,
		Extractor: extractor,
		CacheSvc:  cacheSvc,
		CacheKey:  cache.RateLimitKey(src.Platform),
		BlockTime: blockTime,
	}, nil
}

// Crawl implements Crawler
func (c *BaseCrawler) Crawl(ctx context.Context, prior snapshot.PriorState) snapshot.Entry {
	log := logger.ForPlatform(c.Source.Platform).WithFields(logger.Fields{
		"strategy": string(c.Source.Strategy),
		"url":      c.Source.URL,
	})
	start := time.Now()

	page, fetchErr := c.fetchWithCache(ctx)

	var errParts []string
	if fetchErr != nil {
		errParts = append(errParts, fetchErr.Error())
		log.Warn().Err(fetchErr).Int("status", page.StatusCode).Msg("fetch failed")
	}

	doc := parseDocument(page.HTML)
	title := pageTitle(doc)

	extraction := c.Extractor.Extract(Input{
		HTML:       page.HTML,
		Doc:        doc,
		PriorCards: prior.CardsFor(c.Source.Platform),
	})
	switch extraction.Status {
	case ParseChallenge:
		errParts = append(errParts, extraction.Reason)
	case ParseMalformed:
		parseErr := errors.NewParsing(c.Source.Platform, "structured data could not be parsed", stderrors.New(extraction.Reason))
		log.Warn().Err(parseErr).Msg("extraction degraded")
	}

	cards := extraction.Cards
	if cards == nil {
		cards = []string{}
	}
	errText := strings.Join(errParts, "; ")

	blocked := DetectBlocking(BlockInput{
		Source: c.Source,
		HTML:   page.HTML,
		Error:  errText,
		Cards:  cards,
	})

	log.Info().
		Int("status", page.StatusCode).
		Int("cards", len(cards)).
		Str("parse", extraction.Status.String()).
		Bool("blocked", blocked.Blocked).
		Str("rule", blocked.Rule).
		Dur("elapsed", time.Since(start)).
		Msg("platform processed")

	return snapshot.Entry{
		Platform:      c.Source.Platform,
		URL:           c.Source.URL,
		Note:          c.Source.Note,
		PageTitle:     title,
		CardTitles:    cards,
		HTTPStatus:    page.StatusCode,
		Error:         errText,
		Signature:     snapshot.Fingerprint(page.StatusCode, title, cards, errText),
		Blocked:       blocked.Blocked,
		BlockedReason: blocked.Reason,
	}
}

// fetchWithCache fetches the source URL unless the platform is still rate limited.
// The returned page is never nil.
func (c *BaseCrawler) fetchWithCache(ctx context.Context) (*helpers.Page, error) {
	// Check if the crawler is rate limited
	if c.CacheSvc != nil && c.CacheKey != "" {
		if _, err := c.CacheSvc.Get(c.CacheKey); err == nil {
			return &helpers.Page{}, errors.New(errors.ErrorTypeRateLimit, c.Source.Platform,
				fmt.Sprintf("%s: not sending requests for %d seconds", c.CacheKey, int(c.BlockTime/time.Second)), nil)
		}
	}

	page, err := c.Fetcher.Fetch(ctx, c.Source.URL)
	if page == nil {
		page = &helpers.Page{}
	}
	if err == nil {
		return page, nil
	}

	var ce *errors.CrawlerError
	if stderrors.As(err, &ce) && ce.Provider == "" {
		ce.Provider = c.Source.Platform
	}

	if c.CacheSvc != nil && c.CacheKey != "" && errors.IsType(err, errors.ErrorTypeRateLimit) {
		// Set rate limiting cache
		value := []byte(fmt.Sprintf("%d", int(c.BlockTime/time.Second)))
		if cacheErr := c.CacheSvc.Set(c.CacheKey, value, c.BlockTime); cacheErr != nil {
			logger.ForCache().Warn().Err(cacheErr).Str("key", c.CacheKey).Msg("failed to set rate limit gate")
		}
	}
	return page, err
}

// GetName returns the crawler's name for logging
func (c *BaseCrawler) GetName() string {
	return c.Source.Platform + "Crawler"
}

// GetProvider returns the platform name
func (c *BaseCrawler) GetProvider() string {
	return c.Source.Platform
}

// GetSource returns the crawler's source configuration
func (c *BaseCrawler) GetSource() config.Source {
	return c.Source
}
