package relaymq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageEqual(t *testing.T) {
	now := time.Now()

	a := NewMessage("m-1", "hello", now)
	b := NewMessage("m-1", "hello", now)
	require.True(t, a.Equal(b))

	c := NewMessage("m-1", "goodbye", now)
	assert.False(t, a.Equal(c))

	d := NewMessage("m-2", "hello", now)
	assert.False(t, a.Equal(d))

	e := NewMessage("m-1", "hello", now.Add(time.Second))
	assert.False(t, a.Equal(e))
}

func TestMessageEqualIgnoresObservationalFields(t *testing.T) {
	now := time.Now()
	processedAt := now.Add(time.Minute)

	a := NewMessage("m-1", 42, now)
	b := NewMessage("m-1", 42, now)
	b.ProcessedAt = &processedAt

	assert.True(t, a.Equal(b))
}

func TestMessageHashConsistentWithEqual(t *testing.T) {
	now := time.Now()

	a := NewMessage("m-1", "payload", now)
	b := NewMessage("m-1", "payload", now)

	require.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestMessageHashDiffersOnPayload(t *testing.T) {
	now := time.Now()

	a := NewMessage("m-1", "payload-a", now)
	b := NewMessage("m-1", "payload-b", now)

	assert.NotEqual(t, a.Hash(), b.Hash())
}
