// Package mqconfig loads queue configuration from a TOML document, so a
// fleet of named queues can be declared and tuned without a redeploy.
package mqconfig

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/relaymq/relaymq"
)

// QueueSpec is the TOML shape of a single queue's policy:
//
//	[queues.orders]
//	max_receive_count = 3
//	visibility_timeout = "30s"
//	message_retention_period = "0s"
//	dead_letter_queue = "orders-dlq"
type QueueSpec struct {
	MaxReceiveCount        int    `toml:"max_receive_count"`
	VisibilityTimeout      string `toml:"visibility_timeout"`
	MessageRetentionPeriod string `toml:"message_retention_period"`
	DeadLetterQueue        string `toml:"dead_letter_queue"`
}

// Document is the root of a queue configuration file: a named set of
// QueueSpecs, each convertible to a relaymq.Config.
type Document struct {
	Queues map[string]QueueSpec `toml:"queues"`
}

// Load reads and parses a TOML queue configuration document from path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mqconfig: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses a TOML queue configuration document from raw bytes.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, fmt.Errorf("mqconfig: decoding document: %w", err)
	}
	return &doc, nil
}

// Config converts the named QueueSpec into a relaymq.Config. It fails if the
// name is not present in the document or if a duration field cannot be
// parsed.
func (d *Document) Config(name string) (relaymq.Config, error) {
	spec, ok := d.Queues[name]
	if !ok {
		return relaymq.Config{}, fmt.Errorf("mqconfig: no queue named %q in document", name)
	}
	return spec.toConfig()
}

// Names returns the queue names present in the document.
func (d *Document) Names() []string {
	names := make([]string, 0, len(d.Queues))
	for name := range d.Queues {
		names = append(names, name)
	}
	return names
}

// DeadLetterQueueOf returns the dead-letter queue name configured for the
// named queue. ok is false if name is not present in the document, or if it
// has no dead_letter_queue set. The caller is responsible for looking up (or
// creating) a queue under that name and attaching it via
// relaymq.WithDeadLetterQueue — a name in TOML alone names a relation, it
// doesn't construct one.
func (d *Document) DeadLetterQueueOf(name string) (dlqName string, ok bool) {
	spec, exists := d.Queues[name]
	if !exists || spec.DeadLetterQueue == "" {
		return "", false
	}
	return spec.DeadLetterQueue, true
}

func (s QueueSpec) toConfig() (relaymq.Config, error) {
	cfg := relaymq.Config{MaxReceiveCount: s.MaxReceiveCount}

	if s.VisibilityTimeout != "" {
		d, err := time.ParseDuration(s.VisibilityTimeout)
		if err != nil {
			return relaymq.Config{}, fmt.Errorf("mqconfig: parsing visibility_timeout %q: %w", s.VisibilityTimeout, err)
		}
		cfg.VisibilityTimeout = d
	}

	if s.MessageRetentionPeriod != "" {
		d, err := time.ParseDuration(s.MessageRetentionPeriod)
		if err != nil {
			return relaymq.Config{}, fmt.Errorf("mqconfig: parsing message_retention_period %q: %w", s.MessageRetentionPeriod, err)
		}
		cfg.MessageRetentionPeriod = d
	}

	return cfg, nil
}
