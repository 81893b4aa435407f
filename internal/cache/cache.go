// Package cache holds the in-process read caches and the janitor that
// expires them.
package cache

import "time"

// Cache is the read-cache contract the services program against.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches whose entries can expire.
type Cleaner interface {
	CleanExpired() int
}

// Manager sweeps expired entries out of every registered cache on a
// shared ticker.
type Manager struct {
	caches []Cleaner
	quit   chan struct{}
	idle   chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		quit: make(chan struct{}),
		idle: make(chan struct{}),
	}
}

// Register adds a cache to the sweep set. Not safe to call after
// StartCleanup.
func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// StartCleanup launches the sweep loop.
func (m *Manager) StartCleanup(interval time.Duration) {
	go func() {
		defer close(m.idle)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-m.quit:
				return
			case <-ticker.C:
				for _, c := range m.caches {
					c.CleanExpired()
				}
			}
		}
	}()
}

// Stop halts the sweep loop and waits for it to exit.
func (m *Manager) Stop() {
	close(m.quit)
	<-m.idle
}
