// Package keylock provides per-key mutual exclusion with bounded
// acquisition. Unrelated keys proceed fully in parallel; acquiring a
// contended key blocks until the holder releases it or the caller's
// context expires.
package keylock

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// KeyLock serializes access per string key.
// The zero value is not usable; call New.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	sem  *semaphore.Weighted
	refs int
}

// New creates an empty KeyLock.
func New() *KeyLock {
	return &KeyLock{locks: make(map[string]*entry)}
}

// Acquire blocks until the key's lock is held or ctx expires.
// On success it returns a release function that must be called exactly once.
func (k *KeyLock) Acquire(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{sem: semaphore.NewWeighted(1)}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		k.put(key, e)
		return nil, err
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			e.sem.Release(1)
			k.put(key, e)
		})
	}
	return release, nil
}

// put drops a reference and evicts the entry when unused, so the map
// does not grow without bound across many distinct keys.
func (k *KeyLock) put(key string, e *entry) {
	k.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()
}
