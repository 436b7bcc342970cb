package relaymq

import "time"

// Config is the per-queue policy governing poison routing, visibility, and
// retention.
type Config struct {
	// MaxReceiveCount is the threshold beyond which a message is considered
	// poisoned: the dequeue whose post-increment receive count strictly
	// exceeds this value routes the message to the DLQ (or drops it).
	MaxReceiveCount int

	// VisibilityTimeout is how long a dequeued message remains invisible to
	// subsequent dequeues before being automatically restored.
	VisibilityTimeout time.Duration

	// MessageRetentionPeriod is the maximum age from CreatedAt after which a
	// message is silently purged. Zero means no retention.
	MessageRetentionPeriod time.Duration
}

// DefaultConfig is the standard preset: 3 receives, 30s visibility, no
// retention.
func DefaultConfig() Config {
	return Config{
		MaxReceiveCount:   3,
		VisibilityTimeout: 30 * time.Second,
	}
}

// HighThroughputConfig favors fewer visibility restores and more retry
// budget: 5 receives, 2m visibility, no retention.
func HighThroughputConfig() Config {
	return Config{
		MaxReceiveCount:   5,
		VisibilityTimeout: 2 * time.Minute,
	}
}

// TestingConfig is tuned for fast test iteration: 2 receives, 100ms
// visibility, 5m retention.
func TestingConfig() Config {
	return Config{
		MaxReceiveCount:        2,
		VisibilityTimeout:      100 * time.Millisecond,
		MessageRetentionPeriod: 5 * time.Minute,
	}
}

// HasRetention reports whether a message retention period is configured.
func (c Config) HasRetention() bool {
	return c.MessageRetentionPeriod > 0
}
