package relaymq

import "encoding/json"

// Serializer is a pair of pure functions bridging the in-flight payload type
// T and the stored representation S. It is a capability, supplied as a
// value, never a base class the payload must extend.
type Serializer[T, S any] struct {
	Serialize   func(T) (S, error)
	Deserialize func(S) (T, error)
}

// JSONSerializer returns a Serializer[T, []byte] backed by encoding/json.
func JSONSerializer[T any]() Serializer[T, []byte] {
	return Serializer[T, []byte]{
		Serialize: func(payload T) ([]byte, error) {
			return json.Marshal(payload)
		},
		Deserialize: func(stored []byte) (T, error) {
			var payload T
			err := json.Unmarshal(stored, &payload)
			return payload, err
		},
	}
}

// CountingSerializer wraps a Serializer and tracks how many times each side
// was invoked. Useful in tests that assert a queue serializes and
// deserializes exactly as often as expected.
type CountingSerializer[T, S any] struct {
	inner            Serializer[T, S]
	SerializeCalls   int
	DeserializeCalls int
}

// NewCountingSerializer wraps inner, counting calls to each side.
func NewCountingSerializer[T, S any](inner Serializer[T, S]) *CountingSerializer[T, S] {
	return &CountingSerializer[T, S]{inner: inner}
}

// Serializer returns the Serializer value to pass to NewMemoryQueue; its
// closures reference the counting receiver, so counts update as it is used.
func (c *CountingSerializer[T, S]) Serializer() Serializer[T, S] {
	return Serializer[T, S]{
		Serialize: func(payload T) (S, error) {
			c.SerializeCalls++
			return c.inner.Serialize(payload)
		},
		Deserialize: func(stored S) (T, error) {
			c.DeserializeCalls++
			return c.inner.Deserialize(stored)
		},
	}
}
