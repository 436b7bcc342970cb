// Package mqmetrics instruments the in-memory engine with Prometheus
// collectors: one promauto vector per lifecycle event (enqueue, dequeue,
// acknowledge, reject, dead-letter, drop, expire), plus a depth gauge and a
// receive-count histogram.
package mqmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is the instrumentation hook a Queue calls at each lifecycle
// transition. Engines constructed without one use Noop().
type Recorder interface {
	SetDepth(queue string, depth int)
	IncEnqueued(queue string)
	IncDequeued(queue string)
	IncAcknowledged(queue string)
	IncRejected(queue string, requeued bool)
	IncDeadLettered(queue string)
	IncDropped(queue string)
	IncExpired(queue string)
	ObserveReceiveCount(queue string, count int)
}

type noopRecorder struct{}

func (noopRecorder) SetDepth(string, int)            {}
func (noopRecorder) IncEnqueued(string)              {}
func (noopRecorder) IncDequeued(string)              {}
func (noopRecorder) IncAcknowledged(string)          {}
func (noopRecorder) IncRejected(string, bool)        {}
func (noopRecorder) IncDeadLettered(string)          {}
func (noopRecorder) IncDropped(string)               {}
func (noopRecorder) IncExpired(string)               {}
func (noopRecorder) ObserveReceiveCount(string, int) {}

// Noop returns a Recorder whose methods are all no-ops.
func Noop() Recorder { return noopRecorder{} }

// PrometheusRecorder is the reference Recorder, backed by promauto vectors
// registered against a caller-supplied registerer (a nil registerer
// registers the collectors nowhere).
type PrometheusRecorder struct {
	depth             *prometheus.GaugeVec
	enqueued          *prometheus.CounterVec
	dequeued          *prometheus.CounterVec
	acknowledged      *prometheus.CounterVec
	rejected          *prometheus.CounterVec
	deadLettered      *prometheus.CounterVec
	dropped           *prometheus.CounterVec
	expired           *prometheus.CounterVec
	receiveCountHisto *prometheus.HistogramVec
}

// NewPrometheusRecorder constructs and registers the relaymq collector
// family against reg. Pass prometheus.DefaultRegisterer to use the global
// registry.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		depth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "relaymq",
			Name:      "queue_depth",
			Help:      "Number of live messages currently held by the queue.",
		}, []string{"queue"}),

		enqueued: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relaymq",
			Name:      "messages_enqueued_total",
			Help:      "Total messages successfully enqueued.",
		}, []string{"queue"}),

		dequeued: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relaymq",
			Name:      "messages_dequeued_total",
			Help:      "Total messages returned by dequeue.",
		}, []string{"queue"}),

		acknowledged: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relaymq",
			Name:      "messages_acknowledged_total",
			Help:      "Total messages acknowledged.",
		}, []string{"queue"}),

		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relaymq",
			Name:      "messages_rejected_total",
			Help:      "Total messages rejected, labeled by whether they were requeued.",
		}, []string{"queue", "requeued"}),

		deadLettered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relaymq",
			Name:      "messages_dead_lettered_total",
			Help:      "Total messages routed to a dead-letter queue after exceeding max receive count.",
		}, []string{"queue"}),

		dropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relaymq",
			Name:      "messages_dropped_total",
			Help:      "Total poisoned messages dropped because no dead-letter queue was configured.",
		}, []string{"queue"}),

		expired: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relaymq",
			Name:      "messages_expired_total",
			Help:      "Total messages purged by the retention sweep.",
		}, []string{"queue"}),

		receiveCountHisto: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "relaymq",
			Name:      "receive_count",
			Help:      "Distribution of receive counts observed at dequeue time.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}, []string{"queue"}),
	}
}

func (r *PrometheusRecorder) SetDepth(queue string, depth int) {
	r.depth.WithLabelValues(queue).Set(float64(depth))
}

func (r *PrometheusRecorder) IncEnqueued(queue string) {
	r.enqueued.WithLabelValues(queue).Inc()
}

func (r *PrometheusRecorder) IncDequeued(queue string) {
	r.dequeued.WithLabelValues(queue).Inc()
}

func (r *PrometheusRecorder) IncAcknowledged(queue string) {
	r.acknowledged.WithLabelValues(queue).Inc()
}

func (r *PrometheusRecorder) IncRejected(queue string, requeued bool) {
	r.rejected.WithLabelValues(queue, boolLabel(requeued)).Inc()
}

func (r *PrometheusRecorder) IncDeadLettered(queue string) {
	r.deadLettered.WithLabelValues(queue).Inc()
}

func (r *PrometheusRecorder) IncDropped(queue string) {
	r.dropped.WithLabelValues(queue).Inc()
}

func (r *PrometheusRecorder) IncExpired(queue string) {
	r.expired.WithLabelValues(queue).Inc()
}

func (r *PrometheusRecorder) ObserveReceiveCount(queue string, count int) {
	r.receiveCountHisto.WithLabelValues(queue).Observe(float64(count))
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
