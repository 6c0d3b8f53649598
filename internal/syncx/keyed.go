// Package syncx holds small concurrency helpers.
package syncx

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// KeyedLock serializes work per key. Distinct keys never block each other.
// Entries are dropped once no goroutine holds or waits for them.
type KeyedLock struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	sem  *semaphore.Weighted
	refs int
}

func NewKeyedLock() *KeyedLock {
	return &KeyedLock{locks: make(map[string]*keyedEntry)}
}

// Lock blocks until key is free or ctx is done. On success the returned
// func releases the key and must be called exactly once.
func (k *KeyedLock) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{sem: semaphore.NewWeighted(1)}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		k.release(key, e)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			e.sem.Release(1)
			k.release(key, e)
		})
	}, nil
}

func (k *KeyedLock) release(key string, e *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
}

// Len reports how many keys are currently tracked.
func (k *KeyedLock) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
