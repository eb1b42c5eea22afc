package publisher

// Publisher represents a service for publishing snapshot batches to
// downstream consumers (e.g. the dashboard's refresh pipeline)
type Publisher interface {
	// Publish publishes a snapshot batch for a platform
	Publish(platform string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}
