package relaymq

import (
	"fmt"
	"hash/fnv"
	"reflect"
	"time"
)

// Message is the immutable envelope carrying a user payload of type T
// through a Queue[T, S].
//
// Equality and hashing are derived from (ID, Payload, CreatedAt) only;
// ProcessedAt and AcknowledgedAt are observational — they are stamped on the
// copy returned to callers and must never participate in equality.
type Message[T any] struct {
	ID        string
	Payload   T
	CreatedAt time.Time

	// ProcessedAt is set on the value returned by Dequeue and Reject; it is
	// never part of the stored record.
	ProcessedAt *time.Time

	// AcknowledgedAt is an observational acknowledge timestamp. Acknowledge
	// returns only an error, and the in-memory engine never sets this field.
	AcknowledgedAt *time.Time
}

// NewMessage constructs a Message with the given id, payload and CreatedAt;
// ProcessedAt and AcknowledgedAt are left nil.
func NewMessage[T any](id string, payload T, createdAt time.Time) Message[T] {
	return Message[T]{ID: id, Payload: payload, CreatedAt: createdAt}
}

// Equal reports whether two messages share the same identity triple.
func (m Message[T]) Equal(other Message[T]) bool {
	return m.ID == other.ID &&
		m.CreatedAt.Equal(other.CreatedAt) &&
		reflect.DeepEqual(m.Payload, other.Payload)
}

// Hash derives a hash from the same (ID, Payload, CreatedAt) triple used by
// Equal, so that a == b implies hash(a) == hash(b).
func (m Message[T]) Hash() uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s\x00%d\x00%#v", m.ID, m.CreatedAt.UnixNano(), m.Payload)
	return h.Sum64()
}
