package crawler

import (
	"sjsage522/ebookdealworker/config"
	"sjsage522/ebookdealworker/helpers"
	"sjsage522/ebookdealworker/logger"
	"sjsage522/ebookdealworker/services/cache"
)

// CreateCrawlers creates one crawler per configured source, in configuration order
func CreateCrawlers(cfg *config.Config, fetcher helpers.Fetcher, cacheSvc cache.CacheService) ([]Crawler, error) {
	crawlers := make([]Crawler, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		c, err := NewBaseCrawler(src, fetcher, cacheSvc, cfg.RateLimitBlock)
		if err != nil {
			return nil, err
		}
		crawlers = append(crawlers, c)
	}

	log := logger.ForWorker()
	log.Debug().Int("count", len(crawlers)).Msg("crawlers created")
	for i, c := range crawlers {
		src := c.GetSource()
		log.Debug().
			Int("index", i).
			Str("crawler", c.GetName()).
			Str("strategy", string(src.Strategy)).
			Str("url", src.URL).
			Msg("crawler configured")
	}

	return crawlers, nil
}
