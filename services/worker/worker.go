package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sjsage522/ebookdealworker/helpers"
	"sjsage522/ebookdealworker/internal"
	"sjsage522/ebookdealworker/internal/crawler"
	"sjsage522/ebookdealworker/internal/snapshot"
	"sjsage522/ebookdealworker/logger"
	errs "sjsage522/ebookdealworker/pkg/errors"
	"sjsage522/ebookdealworker/services/publisher"
)

// Worker handles the crawling, snapshot and publishing process
type Worker struct {
	ctx           context.Context
	crawlers      []crawler.Crawler
	deps          internal.Dependencies
	logger        helpers.LoggerInterface
	crawlInterval time.Duration
	now           func() time.Time
}

// NewWorker creates a new worker
func NewWorker(
	ctx context.Context,
	crawlers []crawler.Crawler,
	deps internal.Dependencies,
	logger helpers.LoggerInterface,
	crawlInterval time.Duration,
) *Worker {
	return &Worker{
		ctx:           ctx,
		crawlers:      crawlers,
		deps:          deps,
		logger:        logger,
		crawlInterval: crawlInterval,
		now:           time.Now,
	}
}

// Start runs back-to-back runs every crawlInterval until the context is cancelled.
// A non-positive interval runs once. Only persistence failures are returned.
func (w *Worker) Start() error {
	for {
		if _, err := w.RunOnce(); err != nil {
			return err
		}
		if w.crawlInterval <= 0 {
			return nil
		}

		select {
		case <-w.ctx.Done():
			return nil
		case <-time.After(w.crawlInterval):
		}
	}
}

// RunOnce processes every platform sequentially and persists the snapshot. The snapshot
// is always returned; the error is set only when it could not be saved.
func (w *Worker) RunOnce() (*snapshot.Snapshot, error) {
	log := logger.ForWorker()
	start := w.now()

	prior, err := snapshot.LoadPrior(w.deps.Store)
	if err != nil {
		w.logger.LogError("PriorState", err)
	}
	log.Debug().Str("prior", prior.Status.String()).Int("version", prior.Version).Msg("previous snapshot read")

	entries := make([]snapshot.Entry, 0, len(w.crawlers))
	for _, c := range w.crawlers {
		entries = append(entries, w.crawlOne(c, prior))
	}

	changed := snapshot.DetectChanges(prior, entries, snapshot.ParserVersion)
	snap := snapshot.New(entries, changed, w.now())
	elapsed := w.now().Sub(start)

	if err := w.deps.Store.Save(snap); err != nil {
		persistErr := errs.NewPersist("failed to save snapshot", err)
		w.logger.LogError("Snapshot", persistErr)
		return snap, persistErr
	}

	if w.deps.Renderer != nil {
		if err := w.deps.Renderer.Render(snap); err != nil {
			w.logger.LogError("Render", err)
		}
	}

	if snap.HasNewChanges && w.deps.Publisher != nil {
		if err := publisher.PublishSnapshot(w.deps.Publisher, snap); err != nil {
			w.logger.LogError("Publisher", err)
		}
	}

	if w.deps.Metrics != nil {
		w.deps.Metrics.Observe(snap, elapsed)
		if err := w.deps.Metrics.Flush(); err != nil {
			w.logger.LogError("Metrics", err)
		}
	}

	w.logger.LogInfo("run finished in %s: %d platforms, changed %v", elapsed, len(entries), changed)
	return snap, nil
}

// crawlOne runs a single crawler. A panic is recorded as that platform's error.
func (w *Worker) crawlOne(c crawler.Crawler, prior snapshot.PriorState) (entry snapshot.Entry) {
	src := c.GetSource()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic while processing %s: %v", src.Platform, r)
			w.logger.LogError(c.GetName(), err)
			entry = snapshot.FailedEntry(src.Platform, src.URL, src.Note, err)
		}
	}()

	entry = c.Crawl(w.ctx, prior)
	if entry.Error != "" {
		w.logger.LogError(c.GetName(), errors.New(entry.Error))
	}
	return entry
}
