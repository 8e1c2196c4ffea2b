// Package live implements the snapshot subscription contract: a subscriber
// receives the full current collection immediately and a fresh snapshot after
// every mutation, until it cancels. Feeds are per-owner and independent of
// each other; Join makes the "both sources have delivered" condition explicit
// for consumers that need vehicles and transactions together.
package live

import (
	"context"
	"log/slog"
	"sync"
)

// LoadFunc fetches the current snapshot for an owner.
type LoadFunc[T any] func(ctx context.Context, ownerID string) ([]T, error)

// Feed fans out snapshots of one collection. Each subscriber owns a buffered
// channel of capacity one; when a subscriber lags, the pending snapshot is
// replaced rather than queued, so consumers always see the latest state.
type Feed[T any] struct {
	name string
	load LoadFunc[T]

	mu   sync.Mutex
	next uint64
	subs map[string]map[uint64]chan []T
}

func NewFeed[T any](name string, load LoadFunc[T]) *Feed[T] {
	return &Feed[T]{
		name: name,
		load: load,
		subs: make(map[string]map[uint64]chan []T),
	}
}

// Subscribe registers a subscriber for the owner and delivers the initial
// snapshot before returning. The cancel func is idempotent; after it returns
// no further snapshots are delivered.
func (f *Feed[T]) Subscribe(ctx context.Context, ownerID string) (<-chan []T, func(), error) {
	snap, err := f.load(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan []T, 1)
	ch <- snap

	f.mu.Lock()
	id := f.next
	f.next++
	if f.subs[ownerID] == nil {
		f.subs[ownerID] = make(map[uint64]chan []T)
	}
	f.subs[ownerID][id] = ch
	f.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if owner := f.subs[ownerID]; owner != nil {
				delete(owner, id)
				if len(owner) == 0 {
					delete(f.subs, ownerID)
				}
			}
			close(ch)
		})
	}
	return ch, cancel, nil
}

// Notify reloads the owner's snapshot and delivers it to every active
// subscriber. A load failure degrades to an empty snapshot so consumers show
// "no data" instead of going stale silently.
func (f *Feed[T]) Notify(ctx context.Context, ownerID string) {
	f.mu.Lock()
	n := len(f.subs[ownerID])
	f.mu.Unlock()
	if n == 0 {
		return
	}

	snap, err := f.load(ctx, ownerID)
	if err != nil {
		slog.ErrorContext(ctx, "Feed reload failed, delivering empty snapshot",
			"feed", f.name, "error", err)
		snap = nil
	}

	// Delivery happens under the lock so a concurrent cancel cannot close a
	// channel mid-send.
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs[ownerID] {
		select {
		case <-ch: // drop the stale pending snapshot
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// Subscribers returns the number of active subscriptions across all owners.
func (f *Feed[T]) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, owner := range f.subs {
		total += len(owner)
	}
	return total
}
