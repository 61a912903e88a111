// Package mem holds the per-key locks that serialize usage writes on a subscription and the
// short-lived password reset tokens.
package mem

import (
	"context"
	"sync"
	"time"
)

// LockStore hands out exclusive per-key locks. The returned release func is safe to call
// more than once.
type LockStore interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

type lockEntry struct {
	slot chan struct{}
	refs int
}

// KeyedLocks is the in-process LockStore. ttl is ignored: a lock cannot outlive the process
// holding it.
type KeyedLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

func NewKeyedLocks() *KeyedLocks {
	return &KeyedLocks{entries: make(map[string]*lockEntry)}
}

func (l *KeyedLocks) Acquire(ctx context.Context, key string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &lockEntry{slot: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.slot <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.slot
			l.unref(key, e)
		})
	}, nil
}

func (l *KeyedLocks) unref(key string, e *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// Len reports how many keys are currently held or awaited.
func (l *KeyedLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
