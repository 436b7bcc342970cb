package relaymq

import "context"

// IDGenerator produces a non-empty, unique string used as a message id when
// the caller does not supply one. The default, used when none is configured,
// renders a random 128-bit identifier in canonical hyphenated hex form (see
// idgen.go).
type IDGenerator func() string

// Queue is the abstract contract every backend — the reference in-memory
// engine here, or an external adapter — must satisfy. Every operation takes
// a context so that backends whose operations involve I/O (a remote DLQ
// enqueue, a network round trip) have somewhere to hang cancellation; the
// reference engine itself performs no blocking I/O.
type Queue[T, S any] interface {
	// Enqueue appends msg to the tail, preserving insertion order among
	// visible messages. If MessageRetentionPeriod is set and msg is already
	// past retention, this is a silent no-op. If a Serializer is configured,
	// its Serialize side is applied; failure is returned as
	// *SerializationError.
	Enqueue(ctx context.Context, msg Message[T]) error

	// EnqueuePayload constructs a Message with a fresh id (via the queue's
	// IDGenerator, or a random id if none was configured) and CreatedAt set
	// to now, then enqueues it. It returns the constructed message so the
	// caller can observe the assigned id.
	EnqueuePayload(ctx context.Context, payload T) (Message[T], error)

	// Dequeue returns the first visible, non-poisoned message, marking it
	// invisible for VisibilityTimeout and incrementing its receive count.
	// found is false if no visible message exists. A *DeserializationError
	// is returned if the stored payload cannot be converted back to T.
	Dequeue(ctx context.Context) (msg Message[T], found bool, err error)

	// Acknowledge removes id from the queue. Returns
	// *MessageNotFoundError if id is not currently present.
	Acknowledge(ctx context.Context, id string) error

	// Reject removes id from the queue and, if requeue is true, re-appends
	// the stored record to the tail with its invisibility cleared (the
	// receive count is preserved). Returns the deserialized message in both
	// cases, or *MessageNotFoundError if id is not currently present.
	Reject(ctx context.Context, id string, requeue bool) (Message[T], error)

	// Dispose stops the background sweep and releases resources. The queue
	// must not be used after Dispose returns.
	Dispose(ctx context.Context) error
}
