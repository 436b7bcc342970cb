// Package lifecycle provides disposal orchestration for groups of resources
// that must all be released concurrently, each bounded by its own timeout.
package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Hook is a single named disposal action with its own timeout.
type Hook struct {
	Name    string
	Timeout time.Duration
	Dispose func(ctx context.Context) error
}

// Manager runs a set of Hooks concurrently and waits for all of them,
// bounding each by its own timeout.
type Manager struct {
	mu    sync.Mutex
	hooks []Hook
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{}
}

// Register adds a disposal hook. A zero timeout defaults to 10 seconds.
func (m *Manager) Register(name string, timeout time.Duration, dispose func(ctx context.Context) error) {
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, Hook{Name: name, Timeout: timeout, Dispose: dispose})
}

// Execute runs every registered hook in parallel and returns the first error
// encountered, if any, after all hooks have either completed or timed out.
func (m *Manager) Execute(ctx context.Context) error {
	m.mu.Lock()
	hooks := make([]Hook, len(m.hooks))
	copy(hooks, m.hooks)
	m.mu.Unlock()

	var wg sync.WaitGroup
	errs := make([]error, len(hooks))

	for i, hook := range hooks {
		wg.Add(1)
		go func(i int, h Hook) {
			defer wg.Done()
			errs[i] = m.executeHook(ctx, h)
		}(i, hook)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) executeHook(parentCtx context.Context, hook Hook) error {
	ctx, cancel := context.WithTimeout(parentCtx, hook.Timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- hook.Dispose(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Str("hook", hook.Name).Msg("disposal hook failed")
		}
		return err
	case <-ctx.Done():
		log.Warn().Str("hook", hook.Name).Msg("disposal hook timed out")
		return ctx.Err()
	}
}
