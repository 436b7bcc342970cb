package relaymq

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/relaymq/relaymq/mqmetrics"
)

// defaultSweepInterval is the nominal background sweep period: frequent
// enough that visibility restores and retention purges feel prompt, without
// making every idle queue spin its goroutine unreasonably hot.
const defaultSweepInterval = time.Second

type storedRecord[S any] struct {
	stored    S
	createdAt time.Time
}

// MemoryQueue is the reference Queue[T, S] implementation: an ordered,
// mutex-guarded sequence of stored records plus the invisibleUntil and
// receiveCount side-tables that drive at-least-once delivery.
type MemoryQueue[T, S any] struct {
	mu sync.Mutex

	name string
	cfg  Config

	order          []string
	records        map[string]storedRecord[S]
	invisibleUntil map[string]time.Time
	receiveCount   map[string]int

	serializer Serializer[T, S]
	idGen      IDGenerator
	dlq        Queue[T, S]
	dlqName    string
	metrics    mqmetrics.Recorder

	sweepInterval time.Duration
	sweepCancel   context.CancelFunc

	disposed bool
}

// Option configures a MemoryQueue at construction time.
type Option[T, S any] func(*MemoryQueue[T, S])

// WithDeadLetterQueue attaches a non-owning reference to a DLQ, identified
// by name for introspection. Poisoned messages are routed there; disposing
// the source queue never disposes the DLQ — it's a relation between two
// independently owned queues, not ownership.
func WithDeadLetterQueue[T, S any](name string, dlq Queue[T, S]) Option[T, S] {
	return func(q *MemoryQueue[T, S]) {
		q.dlqName = name
		q.dlq = dlq
	}
}

// WithIDGenerator overrides the default random-UUID id generator.
func WithIDGenerator[T, S any](gen IDGenerator) Option[T, S] {
	return func(q *MemoryQueue[T, S]) { q.idGen = gen }
}

// WithMetrics attaches a mqmetrics.Recorder. Without this option the queue
// records nothing (mqmetrics.Noop()).
func WithMetrics[T, S any](rec mqmetrics.Recorder) Option[T, S] {
	return func(q *MemoryQueue[T, S]) { q.metrics = rec }
}

// WithSweepInterval overrides the background sweep period (default 1s).
func WithSweepInterval[T, S any](d time.Duration) Option[T, S] {
	return func(q *MemoryQueue[T, S]) { q.sweepInterval = d }
}

// NewMemoryQueue constructs a reference Queue[T, S] named name, governed by
// cfg, using serializer to bridge the payload type T and stored type S. The
// background sweep goroutine starts immediately; Dispose stops it.
func NewMemoryQueue[T, S any](name string, cfg Config, serializer Serializer[T, S], opts ...Option[T, S]) *MemoryQueue[T, S] {
	q := &MemoryQueue[T, S]{
		name:           name,
		cfg:            cfg,
		order:          make([]string, 0),
		records:        make(map[string]storedRecord[S]),
		invisibleUntil: make(map[string]time.Time),
		receiveCount:   make(map[string]int),
		serializer:     serializer,
		idGen:          randomID,
		metrics:        mqmetrics.Noop(),
		sweepInterval:  defaultSweepInterval,
	}

	for _, opt := range opts {
		opt(q)
	}

	ctx, cancel := context.WithCancel(context.Background())
	q.sweepCancel = cancel
	go q.runSweep(ctx)

	return q
}

// NewSimpleMemoryQueue constructs a MemoryQueue for the common case where no
// conversion is needed: T = S, payloads are stored by reference.
func NewSimpleMemoryQueue[T any](name string, cfg Config, opts ...Option[T, T]) *MemoryQueue[T, T] {
	identity := Serializer[T, T]{
		Serialize:   func(v T) (T, error) { return v, nil },
		Deserialize: func(v T) (T, error) { return v, nil },
	}
	return NewMemoryQueue(name, cfg, identity, opts...)
}

func (q *MemoryQueue[T, S]) Enqueue(ctx context.Context, msg Message[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	if q.cfg.HasRetention() && now.Sub(msg.CreatedAt) > q.cfg.MessageRetentionPeriod {
		// Already past retention: a deliberate silent no-op rather than an
		// error, since the caller had no way to know retention had elapsed
		// between constructing the message and calling Enqueue.
		return nil
	}

	stored, err := q.serialize(msg.Payload)
	if err != nil {
		return err
	}

	q.order = append(q.order, msg.ID)
	q.records[msg.ID] = storedRecord[S]{stored: stored, createdAt: msg.CreatedAt}
	q.receiveCount[msg.ID] = 0

	q.metrics.IncEnqueued(q.name)
	q.metrics.SetDepth(q.name, len(q.order))

	return nil
}

func (q *MemoryQueue[T, S]) EnqueuePayload(ctx context.Context, payload T) (Message[T], error) {
	msg := Message[T]{ID: q.idGen(), Payload: payload, CreatedAt: time.Now()}
	if err := q.Enqueue(ctx, msg); err != nil {
		return Message[T]{}, err
	}
	return msg, nil
}

func (q *MemoryQueue[T, S]) Dequeue(ctx context.Context) (Message[T], bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	q.sweepLocked(now)

	for i := 0; i < len(q.order); i++ {
		id := q.order[i]

		if _, invisible := q.invisibleUntil[id]; invisible {
			continue
		}

		rec := q.records[id]
		q.receiveCount[id]++
		count := q.receiveCount[id]

		if count > q.cfg.MaxReceiveCount {
			q.removeAt(i)
			i--

			q.metrics.ObserveReceiveCount(q.name, count)

			payload, derr := q.deserialize(rec.stored)
			if derr != nil {
				return Message[T]{}, false, derr
			}

			if q.dlq != nil {
				dlqMsg := Message[T]{ID: id, Payload: payload, CreatedAt: rec.createdAt}
				if err := q.dlq.Enqueue(ctx, dlqMsg); err != nil {
					log.Error().Err(err).Str("queue", q.name).Str("messageId", id).
						Msg("dead-letter enqueue failed")
					return Message[T]{}, false, err
				}
				q.metrics.IncDeadLettered(q.name)
				log.Debug().Str("queue", q.name).Str("messageId", id).Int("receiveCount", count).
					Msg("message routed to dead-letter queue")
			} else {
				q.metrics.IncDropped(q.name)
				log.Debug().Str("queue", q.name).Str("messageId", id).Int("receiveCount", count).
					Msg("poisoned message dropped: no dead-letter queue configured")
			}

			q.metrics.SetDepth(q.name, len(q.order))
			continue
		}

		q.invisibleUntil[id] = now.Add(q.cfg.VisibilityTimeout)

		payload, derr := q.deserialize(rec.stored)
		if derr != nil {
			return Message[T]{}, false, derr
		}

		processedAt := now
		msg := Message[T]{ID: id, Payload: payload, CreatedAt: rec.createdAt, ProcessedAt: &processedAt}

		q.metrics.IncDequeued(q.name)
		q.metrics.ObserveReceiveCount(q.name, count)

		return msg, true, nil
	}

	return Message[T]{}, false, nil
}

func (q *MemoryQueue[T, S]) Acknowledge(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	idx := q.indexOf(id)
	if idx < 0 {
		return &MessageNotFoundError{MessageID: id}
	}

	q.removeAt(idx)

	q.metrics.IncAcknowledged(q.name)
	q.metrics.SetDepth(q.name, len(q.order))

	return nil
}

func (q *MemoryQueue[T, S]) Reject(ctx context.Context, id string, requeue bool) (Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	idx := q.indexOf(id)
	if idx < 0 {
		return Message[T]{}, &MessageNotFoundError{MessageID: id}
	}

	rec := q.records[id]
	payload, derr := q.deserialize(rec.stored)
	if derr != nil {
		return Message[T]{}, derr
	}

	q.order = append(q.order[:idx], q.order[idx+1:]...)
	delete(q.invisibleUntil, id)

	if requeue {
		q.order = append(q.order, id)
		// receiveCount is intentionally preserved: a message that has
		// already been dequeued maxReceiveCount times must poison out on
		// its next dequeue, even after repeated requeue.
	} else {
		delete(q.records, id)
		delete(q.receiveCount, id)
	}

	q.metrics.IncRejected(q.name, requeue)
	q.metrics.SetDepth(q.name, len(q.order))

	now := time.Now()
	return Message[T]{ID: id, Payload: payload, CreatedAt: rec.createdAt, ProcessedAt: &now}, nil
}

// Depth returns the number of live messages currently held by the queue,
// regardless of visibility. Intended for introspection (see mqhttp).
func (q *MemoryQueue[T, S]) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// OldestVisibleAge returns how long the oldest currently-visible message has
// been sitting in the queue since it was created. ok is false if no message
// is currently visible. Intended for introspection (see mqhttp).
func (q *MemoryQueue[T, S]) OldestVisibleAge() (age time.Duration, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	q.sweepLocked(now)

	var oldest time.Time
	for _, id := range q.order {
		if _, invisible := q.invisibleUntil[id]; invisible {
			continue
		}
		createdAt := q.records[id].createdAt
		if !ok || createdAt.Before(oldest) {
			oldest = createdAt
			ok = true
		}
	}

	if !ok {
		return 0, false
	}
	return now.Sub(oldest), true
}

// DeadLetterQueueName returns the name this queue's dead-letter queue was
// registered under, if one is attached.
func (q *MemoryQueue[T, S]) DeadLetterQueueName() (name string, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dlqName, q.dlqName != ""
}

func (q *MemoryQueue[T, S]) Dispose(ctx context.Context) error {
	q.mu.Lock()
	if q.disposed {
		q.mu.Unlock()
		return nil
	}
	q.disposed = true
	cancel := q.sweepCancel
	q.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	log.Debug().Str("queue", q.name).Msg("queue disposed")
	return nil
}

// sweepLocked purges messages past their retention period and restores
// messages whose visibility timeout has elapsed. Callers must hold q.mu.
func (q *MemoryQueue[T, S]) sweepLocked(now time.Time) {
	if q.cfg.HasRetention() {
		for i := 0; i < len(q.order); {
			id := q.order[i]
			if now.Sub(q.records[id].createdAt) > q.cfg.MessageRetentionPeriod {
				q.removeAt(i)
				q.metrics.IncExpired(q.name)
				log.Debug().Str("queue", q.name).Str("messageId", id).
					Msg("message purged by retention sweep")
				continue
			}
			i++
		}
	}

	for id, deadline := range q.invisibleUntil {
		if !deadline.After(now) {
			delete(q.invisibleUntil, id)
		}
	}
}

func (q *MemoryQueue[T, S]) runSweep(ctx context.Context) {
	ticker := time.NewTicker(q.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.mu.Lock()
			q.sweepLocked(time.Now())
			depth := len(q.order)
			q.mu.Unlock()
			q.metrics.SetDepth(q.name, depth)
		}
	}
}

func (q *MemoryQueue[T, S]) indexOf(id string) int {
	for i, v := range q.order {
		if v == id {
			return i
		}
	}
	return -1
}

// removeAt deletes the record at position i from the sequence and every
// side-table, including receiveCount — callers that need to preserve
// receiveCount (reject-with-requeue) must not use this helper.
func (q *MemoryQueue[T, S]) removeAt(i int) {
	id := q.order[i]
	q.order = append(q.order[:i], q.order[i+1:]...)
	delete(q.records, id)
	delete(q.invisibleUntil, id)
	delete(q.receiveCount, id)
}

func (q *MemoryQueue[T, S]) serialize(payload T) (S, error) {
	s, err := q.serializer.Serialize(payload)
	if err != nil {
		var zero S
		return zero, &SerializationError{Message: "payload could not be converted to the stored type", Cause: err}
	}
	return s, nil
}

func (q *MemoryQueue[T, S]) deserialize(stored S) (T, error) {
	t, err := q.serializer.Deserialize(stored)
	if err != nil {
		var zero T
		return zero, &DeserializationError{Message: "stored payload could not be converted back to the in-flight type", Raw: stored, Cause: err}
	}
	return t, nil
}
