// Package stream fans entity snapshots out to per-owner subscribers.
//
// Deliveries are replace-entire-result-set: every mutation pushes the
// owner's full, freshly sorted snapshot to all of that owner's
// subscribers. Consumers treat each delivery as the authoritative new
// state; there is no diffing.
package stream

import "sync"

// Broadcaster delivers snapshots of []T keyed by owner id.
type Broadcaster[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan []T
}

func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{subs: make(map[string]map[int]chan []T)}
}

// Subscribe registers a listener for one owner's snapshots. The
// returned cancel func must be called on teardown; afterwards the
// channel is closed.
func (b *Broadcaster[T]) Subscribe(ownerID string) (<-chan []T, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	ch := make(chan []T, 1)

	if b.subs[ownerID] == nil {
		b.subs[ownerID] = make(map[int]chan []T)
	}
	b.subs[ownerID][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if owner, ok := b.subs[ownerID]; ok {
			if c, ok := owner[id]; ok {
				delete(owner, id)
				close(c)
				if len(owner) == 0 {
					delete(b.subs, ownerID)
				}
			}
		}
	}
	return ch, cancel
}

// Publish delivers a snapshot to every subscriber of ownerID. A
// subscriber that has not consumed its previous delivery gets the
// stale one replaced, so a slow reader never blocks a writer and only
// ever observes the most recent state.
func (b *Broadcaster[T]) Publish(ownerID string, snapshot []T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs[ownerID] {
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}

// Subscribers reports how many listeners ownerID currently has.
func (b *Broadcaster[T]) Subscribers(ownerID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[ownerID])
}
