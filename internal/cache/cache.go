// Package cache holds the summary cache and the janitor that sweeps expired
// entries from anything registered with it.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Cache is the read-through surface the services use.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner removes expired entries and reports how many it dropped.
type Cleaner interface {
	CleanExpired() int
}

// CleanerFunc adapts a plain function, such as a session-token pruner.
type CleanerFunc func() int

func (f CleanerFunc) CleanExpired() int { return f() }

// Manager periodically calls every registered Cleaner until its context is
// cancelled or Stop is called.
type Manager struct {
	mu       sync.Mutex
	cleaners map[string]Cleaner
	logger   *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{cleaners: make(map[string]Cleaner), logger: logger}
}

// Register adds c under name. Registering the same name again replaces it.
func (m *Manager) Register(name string, c Cleaner) {
	m.mu.Lock()
	m.cleaners[name] = c
	m.mu.Unlock()
}

// Sweep runs every cleaner once and returns the total removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for name, c := range m.cleaners {
		n := c.CleanExpired()
		if n > 0 {
			m.logger.Debug("Expired entries removed", "cache", name, "count", n)
		}
		total += n
	}
	return total
}

// Start launches the sweep loop. It must be called at most once.
func (m *Manager) Start(ctx context.Context, interval time.Duration) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.Sweep()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the sweep loop and waits for it. It is a no-op before Start.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
}
