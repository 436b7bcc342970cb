package relaymq

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/relaymq/relaymq/internal/lifecycle"
	"github.com/relaymq/relaymq/mqmetrics"
)

// Factory owns a process-local registry of named queues: it issues,
// retrieves, and destroys them.
//
// Go has no way to hold a heterogeneous collection of Queue[T, S] values for
// arbitrary T, S without erasing to interface{}; CreateQueue stores each
// queue as its concrete Queue[T, S] value boxed in any, and GetQueue
// recovers it with a type assertion back to Queue[T, S]. A mismatched type
// pair therefore fails the assertion and surfaces as QueueDoesNotExistError
// rather than a compile error, since the type pair can't be checked until
// the caller actually asks for it back.
type Factory struct {
	mu     sync.RWMutex
	queues map[string]*registeredQueue

	defaultIDGen      IDGenerator
	defaultMetrics    mqmetrics.Recorder
	defaultSerializer any
}

type registeredQueue struct {
	value            any
	disposer         func(ctx context.Context) error
	depth            func() int
	oldestVisibleAge func() (time.Duration, bool)
	dlqName          func() (string, bool)
}

// FactoryOption configures a Factory at construction time.
type FactoryOption func(*Factory)

// WithFactoryDefaultIDGenerator sets the id generator applied to every queue
// this Factory creates, unless overridden per-queue via WithIDGenerator.
func WithFactoryDefaultIDGenerator(gen IDGenerator) FactoryOption {
	return func(f *Factory) { f.defaultIDGen = gen }
}

// WithFactoryDefaultMetrics sets the mqmetrics.Recorder applied to every
// queue this Factory creates, unless overridden per-queue via WithMetrics.
func WithFactoryDefaultMetrics(rec mqmetrics.Recorder) FactoryOption {
	return func(f *Factory) { f.defaultMetrics = rec }
}

// WithFactoryDefaultSerializer sets the Serializer[T, S] applied to queues
// created via CreateQueue that pass a zero-value Serializer, unless
// overridden by an explicit serializer argument.
func WithFactoryDefaultSerializer[T, S any](ser Serializer[T, S]) FactoryOption {
	return func(f *Factory) { f.defaultSerializer = ser }
}

// NewFactory constructs an empty Factory.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{queues: make(map[string]*registeredQueue)}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateQueue constructs a MemoryQueue[T, S] named name, registers it, and
// returns it. It fails with *QueueAlreadyExistsError if name is already
// registered. A serializer with a nil Serialize or Deserialize field (such as
// the zero value) falls back to the Factory's default serializer, if one was
// configured via WithFactoryDefaultSerializer[T, S]; otherwise it is used as
// given.
func CreateQueue[T, S any](f *Factory, name string, cfg Config, serializer Serializer[T, S], opts ...Option[T, S]) (Queue[T, S], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.queues[name]; exists {
		return nil, &QueueAlreadyExistsError{QueueName: name}
	}

	ser := serializer
	if ser.Serialize == nil || ser.Deserialize == nil {
		if def, ok := f.defaultSerializer.(Serializer[T, S]); ok {
			ser = def
		}
	}

	allOpts := make([]Option[T, S], 0, len(opts)+2)
	if f.defaultIDGen != nil {
		allOpts = append(allOpts, WithIDGenerator[T, S](f.defaultIDGen))
	}
	if f.defaultMetrics != nil {
		allOpts = append(allOpts, WithMetrics[T, S](f.defaultMetrics))
	}
	allOpts = append(allOpts, opts...)

	q := NewMemoryQueue(name, cfg, ser, allOpts...)
	var iface Queue[T, S] = q

	f.queues[name] = &registeredQueue{
		value:            iface,
		disposer:         func(ctx context.Context) error { return q.Dispose(ctx) },
		depth:            q.Depth,
		oldestVisibleAge: q.OldestVisibleAge,
		dlqName:          q.DeadLetterQueueName,
	}

	log.Info().Str("queue", name).Msg("queue created")

	return q, nil
}

// CreateSimpleQueue is CreateQueue for the common T = S case: payloads are
// stored by reference with no conversion.
func CreateSimpleQueue[T any](f *Factory, name string, cfg Config, opts ...Option[T, T]) (Queue[T, T], error) {
	identity := Serializer[T, T]{
		Serialize:   func(v T) (T, error) { return v, nil },
		Deserialize: func(v T) (T, error) { return v, nil },
	}
	return CreateQueue(f, name, cfg, identity, opts...)
}

// GetQueue returns the previously registered Queue[T, S] for name. It fails
// with *QueueDoesNotExistError if no queue is registered under name, or if
// it was registered under a different type pair.
func GetQueue[T, S any](f *Factory, name string) (Queue[T, S], error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entry, ok := f.queues[name]
	if !ok {
		return nil, &QueueDoesNotExistError{QueueName: name}
	}

	q, ok := entry.value.(Queue[T, S])
	if !ok {
		return nil, &QueueDoesNotExistError{QueueName: name}
	}

	return q, nil
}

// DepthOf returns the live message count for the named queue, for use as a
// mqhttp.DepthFunc. ok is false if name is not registered.
func (f *Factory) DepthOf(name string) (depth int, ok bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entry, exists := f.queues[name]
	if !exists {
		return 0, false
	}
	return entry.depth(), true
}

// OldestVisibleAgeOf returns how long the named queue's oldest visible
// message has been waiting, for use as a mqhttp.OldestVisibleAgeFunc. ok is
// false if name is not registered, or if it has no visible message.
func (f *Factory) OldestVisibleAgeOf(name string) (age time.Duration, ok bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entry, exists := f.queues[name]
	if !exists {
		return 0, false
	}
	return entry.oldestVisibleAge()
}

// DeadLetterQueueNameOf returns the name the named queue's dead-letter queue
// was registered under, for use as a mqhttp.DeadLetterQueueFunc. ok is false
// if name is not registered, or if it has no dead-letter queue attached.
func (f *Factory) DeadLetterQueueNameOf(name string) (dlqName string, ok bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entry, exists := f.queues[name]
	if !exists {
		return "", false
	}
	return entry.dlqName()
}

// DeleteQueue removes name from the registry and disposes the queue. It
// fails with *QueueDoesNotExistError if name is not registered.
func (f *Factory) DeleteQueue(ctx context.Context, name string) error {
	f.mu.Lock()
	entry, ok := f.queues[name]
	if !ok {
		f.mu.Unlock()
		return &QueueDoesNotExistError{QueueName: name}
	}
	delete(f.queues, name)
	f.mu.Unlock()

	log.Info().Str("queue", name).Msg("queue deleted")
	return entry.disposer(ctx)
}

// Names returns the currently registered queue names.
func (f *Factory) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.queues))
	for name := range f.queues {
		names = append(names, name)
	}
	return names
}

// DisposeAll disposes every registered queue concurrently, each bounded by a
// 10-second timeout, and clears the registry.
func (f *Factory) DisposeAll(ctx context.Context) error {
	f.mu.Lock()
	entries := f.queues
	f.queues = make(map[string]*registeredQueue)
	f.mu.Unlock()

	mgr := lifecycle.NewManager()
	for name, entry := range entries {
		mgr.Register(name, 10*time.Second, entry.disposer)
	}

	log.Info().Int("queues", len(entries)).Msg("disposing all registered queues")
	return mgr.Execute(ctx)
}
