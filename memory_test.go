package relaymq

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T, cfg Config, opts ...Option[string, string]) *MemoryQueue[string, string] {
	t.Helper()
	opts = append([]Option[string, string]{WithSweepInterval[string, string](10 * time.Millisecond)}, opts...)
	q := NewSimpleMemoryQueue[string]("test-queue", cfg, opts...)
	t.Cleanup(func() { _ = q.Dispose(context.Background()) })
	return q
}

func TestEnqueueDequeueAcknowledgeRoundTrip(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t, DefaultConfig())

	enqueued, err := q.EnqueuePayload(ctx, "hello")
	require.NoError(t, err)
	require.NotEmpty(t, enqueued.ID)

	msg, found, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hello", msg.Payload)
	assert.Equal(t, enqueued.ID, msg.ID)
	require.NotNil(t, msg.ProcessedAt)

	require.NoError(t, q.Acknowledge(ctx, msg.ID))
	assert.Equal(t, 0, q.Depth())

	_, found, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDequeueHidesMessageUntilVisibilityTimeoutElapses(t *testing.T) {
	ctx := context.Background()
	cfg := Config{MaxReceiveCount: 3, VisibilityTimeout: 30 * time.Millisecond}
	q := newTestQueue(t, cfg)

	_, err := q.EnqueuePayload(ctx, "payload")
	require.NoError(t, err)

	first, found, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.True(t, found)

	_, found, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.False(t, found, "message should still be invisible")

	require.Eventually(t, func() bool {
		_, found, err := q.Dequeue(ctx)
		return err == nil && found
	}, time.Second, 5*time.Millisecond, "message should become visible again after its timeout elapses")

	assert.NotEmpty(t, first.ID)
}

func TestPoisonedMessageRoutesToDeadLetterQueue(t *testing.T) {
	ctx := context.Background()

	dlqCfg := DefaultConfig()
	dlq := newTestQueue(t, dlqCfg)

	mainCfg := Config{MaxReceiveCount: 1, VisibilityTimeout: time.Millisecond}
	main := newTestQueue(t, mainCfg, WithDeadLetterQueue[string, string]("test-queue-dlq", dlq))

	dlqName, ok := main.DeadLetterQueueName()
	require.True(t, ok)
	assert.Equal(t, "test-queue-dlq", dlqName)

	_, err := main.EnqueuePayload(ctx, "poison")
	require.NoError(t, err)

	// First dequeue: receive count becomes 1, within MaxReceiveCount.
	_, found, err := main.Dequeue(ctx)
	require.NoError(t, err)
	require.True(t, found)

	// Once visible again, the next dequeue pushes the receive count to 2, past
	// MaxReceiveCount, so the message is routed instead of returned.
	require.Eventually(t, func() bool {
		_, found, err := main.Dequeue(ctx)
		require.NoError(t, err)
		return !found && dlq.Depth() == 1
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return dlq.Depth() == 1
	}, time.Second, 5*time.Millisecond, "poisoned message should land on the dead-letter queue")

	assert.Equal(t, 0, main.Depth())
}

func TestPoisonedMessageDroppedWithoutDeadLetterQueue(t *testing.T) {
	ctx := context.Background()
	cfg := Config{MaxReceiveCount: 1, VisibilityTimeout: time.Millisecond}
	q := newTestQueue(t, cfg)

	_, err := q.EnqueuePayload(ctx, "poison")
	require.NoError(t, err)

	_, found, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.True(t, found)

	require.Eventually(t, func() bool {
		_, found, err := q.Dequeue(ctx)
		require.NoError(t, err)
		return !found && q.Depth() == 0
	}, time.Second, 5*time.Millisecond, "poisoned message should be dropped when no dead-letter queue is configured")
}

func TestEnqueueAppliesRetentionAtEnqueueTime(t *testing.T) {
	ctx := context.Background()
	cfg := Config{MaxReceiveCount: 3, VisibilityTimeout: time.Second, MessageRetentionPeriod: time.Minute}
	q := newTestQueue(t, cfg)

	stale := NewMessage("stale-1", "payload", time.Now().Add(-time.Hour))
	require.NoError(t, q.Enqueue(ctx, stale))

	assert.Equal(t, 0, q.Depth(), "a message already past retention should be a silent no-op")

	_, found, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAcknowledgeUnknownIDReturnsMessageNotFoundError(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t, DefaultConfig())

	err := q.Acknowledge(ctx, "does-not-exist")
	require.Error(t, err)

	var notFound *MessageNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "does-not-exist", notFound.MessageID)
}

func TestRejectUnknownIDReturnsMessageNotFoundError(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t, DefaultConfig())

	_, err := q.Reject(ctx, "does-not-exist", true)
	require.Error(t, err)

	var notFound *MessageNotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestRejectWithRequeuePreservesReceiveCountTowardPoisoning(t *testing.T) {
	ctx := context.Background()
	cfg := Config{MaxReceiveCount: 1, VisibilityTimeout: time.Second}
	q := newTestQueue(t, cfg)

	_, err := q.EnqueuePayload(ctx, "payload")
	require.NoError(t, err)

	msg, found, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.True(t, found)

	rejected, err := q.Reject(ctx, msg.ID, true)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, rejected.ID)
	assert.Equal(t, 1, q.Depth())

	// receiveCount was already 1 (== MaxReceiveCount) before the requeue; the
	// next dequeue must push it over the threshold and poison the message
	// rather than resetting the count.
	_, found, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.False(t, found, "requeued message should poison out, not be redelivered")
	assert.Equal(t, 0, q.Depth())
}

func TestRejectWithoutRequeueDropsMessage(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t, DefaultConfig())

	_, err := q.EnqueuePayload(ctx, "payload")
	require.NoError(t, err)

	msg, found, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.True(t, found)

	_, err = q.Reject(ctx, msg.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, q.Depth())
}

func TestDisposeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	q := NewSimpleMemoryQueue[string]("dispose-test", DefaultConfig())

	require.NoError(t, q.Dispose(ctx))
	require.NoError(t, q.Dispose(ctx))
}

func TestOldestVisibleAgeReflectsEarliestVisibleMessage(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t, DefaultConfig())

	_, ok := q.OldestVisibleAge()
	assert.False(t, ok, "an empty queue has no oldest visible message")

	_, err := q.EnqueuePayload(ctx, "first")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = q.EnqueuePayload(ctx, "second")
	require.NoError(t, err)

	age, ok := q.OldestVisibleAge()
	require.True(t, ok)
	assert.GreaterOrEqual(t, age, 20*time.Millisecond)
}

func TestOldestVisibleAgeSkipsInvisibleMessages(t *testing.T) {
	ctx := context.Background()
	cfg := Config{MaxReceiveCount: 3, VisibilityTimeout: time.Minute}
	q := newTestQueue(t, cfg)

	_, err := q.EnqueuePayload(ctx, "only")
	require.NoError(t, err)

	_, found, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.True(t, found)

	_, ok := q.OldestVisibleAge()
	assert.False(t, ok, "the only message is invisible after being dequeued")
}

func TestCountingSerializerTracksCallsThroughEnqueueAndDequeue(t *testing.T) {
	ctx := context.Background()

	counting := NewCountingSerializer(Serializer[string, string]{
		Serialize:   func(v string) (string, error) { return v, nil },
		Deserialize: func(v string) (string, error) { return v, nil },
	})

	q := NewMemoryQueue[string, string]("counting-queue", DefaultConfig(), counting.Serializer(),
		WithSweepInterval[string, string](10*time.Millisecond))
	t.Cleanup(func() { _ = q.Dispose(ctx) })

	msg, err := q.EnqueuePayload(ctx, "payload")
	require.NoError(t, err)
	assert.Equal(t, 1, counting.SerializeCalls)
	assert.Equal(t, 0, counting.DeserializeCalls)

	out, found, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, msg.ID, out.ID)
	assert.Equal(t, 1, counting.SerializeCalls)
	assert.Equal(t, 1, counting.DeserializeCalls)
}
