package gallery

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultSessionIdleTimeout = 30 * time.Minute
)

type RegistryConfig struct {
	Factory     func(session string) *Controller
	IdleTimeout time.Duration
	Now         func() time.Time
}

type registryEntry struct {
	controller *Controller
	lastSeen   time.Time
}

/*
Registry hands out one Controller per browser session and tears down the
ones that have been idle for longer than IdleTimeout.
*/
type Registry struct {
	factory     func(session string) *Controller
	idleTimeout time.Duration
	now         func() time.Time

	mu      sync.Mutex
	entries map[string]*registryEntry

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	wg            sync.WaitGroup
}

func NewRegistry(config RegistryConfig) *Registry {
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = DefaultSessionIdleTimeout
	}

	if config.Now == nil {
		config.Now = time.Now
	}

	return &Registry{
		factory:     config.Factory,
		idleTimeout: config.IdleTimeout,
		now:         config.Now,
		entries:     map[string]*registryEntry{},
	}
}

func (r *Registry) Get(session string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[session]
	if !ok {
		entry = &registryEntry{controller: r.factory(session)}
		r.entries[session] = entry
		slog.Debug("gallery session opened", "session", session)
	}

	entry.lastSeen = r.now()
	return entry.controller
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

/*
Remove tears the session down right away, as on logout.
*/
func (r *Registry) Remove(ctx context.Context, session string) {
	r.mu.Lock()
	entry, ok := r.entries[session]
	delete(r.entries, session)
	r.mu.Unlock()

	if ok {
		entry.controller.Teardown(ctx)
		slog.Debug("gallery session closed", "session", session)
	}
}

func (r *Registry) StartCleanupRoutine(interval time.Duration) {
	r.stopCleanup = make(chan struct{})
	r.cleanupTicker = time.NewTicker(interval)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		for {
			select {
			case <-r.cleanupTicker.C:
				r.EvictIdle(context.Background())
			case <-r.stopCleanup:
				r.cleanupTicker.Stop()
				return
			}
		}
	}()

	slog.Info("gallery session cleanup routine started", "interval", interval, "idleTimeout", r.idleTimeout)
}

func (r *Registry) StopCleanupRoutine() {
	if r.cleanupTicker != nil {
		close(r.stopCleanup)
		r.wg.Wait()
		r.cleanupTicker = nil
		slog.Info("gallery session cleanup routine stopped")
	}
}

/*
EvictIdle tears down every session not seen within the idle timeout and
returns how many were removed.
*/
func (r *Registry) EvictIdle(ctx context.Context) int {
	var (
		idle []*Controller
	)

	cutoff := r.now().Add(-r.idleTimeout)

	r.mu.Lock()

	for session, entry := range r.entries {
		if entry.lastSeen.Before(cutoff) {
			idle = append(idle, entry.controller)
			delete(r.entries, session)
		}
	}

	r.mu.Unlock()

	for _, controller := range idle {
		controller.Teardown(ctx)
	}

	if len(idle) > 0 {
		slog.Info("evicted idle gallery sessions", "count", len(idle))
	}

	return len(idle)
}

/*
Shutdown tears down every session, used when the server stops.
*/
func (r *Registry) Shutdown(ctx context.Context) {
	r.StopCleanupRoutine()

	r.mu.Lock()
	entries := r.entries
	r.entries = map[string]*registryEntry{}
	r.mu.Unlock()

	for _, entry := range entries {
		entry.controller.Teardown(ctx)
	}
}
