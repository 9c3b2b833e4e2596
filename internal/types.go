package internal

import (
	"time"

	"sjsage522/ebookdealworker/internal/snapshot"
	"sjsage522/ebookdealworker/services/cache"
	"sjsage522/ebookdealworker/services/publisher"
)

// SnapshotRenderer turns a finished snapshot into the public listing
type SnapshotRenderer interface {
	Render(s *snapshot.Snapshot) error
}

// MetricsSink records run results
type MetricsSink interface {
	Observe(s *snapshot.Snapshot, elapsed time.Duration)
	Flush() error
}

// Dependencies holds all service dependencies. Only Store is required.
type Dependencies struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
	Store     snapshot.Store
	Renderer  SnapshotRenderer
	Metrics   MetricsSink
}
