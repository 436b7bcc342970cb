// Package mqhttp provides a read-only introspection surface over a
// relaymq.Factory: the registered queue names plus, per queue, depth,
// oldest-visible age, and dead-letter queue name where available.
package mqhttp

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Inspector is the subset of *relaymq.Factory this handler depends on,
// narrowed for testability.
type Inspector interface {
	Names() []string
}

// DepthFunc reports how many live messages the named queue holds.
// relaymq.MemoryQueue does not implement this directly as an interface (its
// depth lives behind its mutex), so NewHandler accepts it as a plain func
// instead of requiring every queue type to implement one.
type DepthFunc func(queueName string) (depth int, ok bool)

// OldestVisibleAgeFunc reports how long the named queue's oldest visible
// message has been waiting. ok is false if the queue has no visible message.
type OldestVisibleAgeFunc func(queueName string) (age time.Duration, ok bool)

// DeadLetterQueueFunc reports the name of the named queue's attached
// dead-letter queue, if any.
type DeadLetterQueueFunc func(queueName string) (dlqName string, ok bool)

// NewHandler returns a chi-based http.Handler exposing:
//
//	GET /queues           - registered queue names
//	GET /queues/{name}    - {"name", "depth", "oldestVisibleAgeSeconds", "deadLetterQueue"}, each present only if its func reports one
//	GET /metrics          - promhttp.Handler() passthrough
//
// Any of depthFn, ageFn, dlqFn may be nil, in which case /queues/{name} omits
// the corresponding field.
func NewHandler(factory Inspector, depthFn DepthFunc, ageFn OldestVisibleAgeFunc, dlqFn DeadLetterQueueFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/queues", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"queues": factory.Names()})
	})

	r.Get("/queues/{name}", func(w http.ResponseWriter, req *http.Request) {
		name := chi.URLParam(req, "name")

		found := false
		for _, n := range factory.Names() {
			if n == name {
				found = true
				break
			}
		}
		if !found {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "queue does not exist", "name": name})
			return
		}

		body := map[string]any{"name": name}
		if depthFn != nil {
			if depth, ok := depthFn(name); ok {
				body["depth"] = depth
			}
		}
		if ageFn != nil {
			if age, ok := ageFn(name); ok {
				body["oldestVisibleAgeSeconds"] = age.Seconds()
			}
		}
		if dlqFn != nil {
			if dlqName, ok := dlqFn(name); ok {
				body["deadLetterQueue"] = dlqName
			}
		}
		writeJSON(w, http.StatusOK, body)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
