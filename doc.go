// Package relaymq is an embeddable, backend-agnostic message-queue engine.
//
// It provides the Queue contract (enqueue/dequeue/acknowledge/reject), a
// reference in-memory implementation with at-least-once delivery,
// visibility timeouts, receive-count tracking, dead-letter routing and
// retention, and a Factory that owns named queue lifecycles within a
// process.
//
// Concrete backend adapters (SQS, Pub/Sub, and similar) are out of scope for
// this module; they consume only the Queue[T, S] contract defined here.
package relaymq
