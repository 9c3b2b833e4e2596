package publisher

import (
	"encoding/json"

	"sjsage522/ebookdealworker/internal/snapshot"
	"sjsage522/ebookdealworker/pkg/errors"
)

// SnapshotKey is the stream field carrying a base64 encoded snapshot
const SnapshotKey = "b64_snapshot"

// Publisher represents a service for publishing messages
type Publisher interface {
	// Publish publishes a message to a stream
	Publish(key string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}

// PublishSnapshot publishes a snapshot as compact JSON under SnapshotKey and trims the streams
func PublishSnapshot(p Publisher, s *snapshot.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return errors.NewPublisher("", "failed to encode snapshot", err)
	}
	if err := p.Publish(SnapshotKey, data); err != nil {
		return errors.NewPublisher("", "failed to publish snapshot", err)
	}
	if err := p.TrimStreams(); err != nil {
		return errors.NewPublisher("", "failed to trim streams", err)
	}
	return nil
}
