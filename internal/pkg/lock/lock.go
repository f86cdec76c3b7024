// Package lock provides per-set locking for conference read-modify-write
// cycles. Operations on the same saved set are serialized; operations on
// different sets proceed concurrently.
package lock

import "sync"

// keyedMutex wraps a mutex so instances can be pooled.
type keyedMutex struct {
	mu sync.Mutex
}

// SetLock provides per-key locking. Keys are saved set IDs.
type SetLock struct {
	locks sync.Map // map[string]*keyedMutex
	pool  sync.Pool
}

// NewSetLock creates a new SetLock instance.
func NewSetLock() *SetLock {
	return &SetLock{
		pool: sync.Pool{
			New: func() any {
				return &keyedMutex{}
			},
		},
	}
}

// getLock retrieves or creates the mutex for a key.
func (sl *SetLock) getLock(key string) *keyedMutex {
	if v, ok := sl.locks.Load(key); ok {
		return v.(*keyedMutex)
	}

	newLock := sl.pool.Get().(*keyedMutex)
	actual, loaded := sl.locks.LoadOrStore(key, newLock)
	if loaded {
		// Another goroutine created the lock first, return ours to pool.
		sl.pool.Put(newLock)
	}
	return actual.(*keyedMutex)
}

// Lock acquires the lock for a set.
func (sl *SetLock) Lock(key string) {
	sl.getLock(key).mu.Lock()
}

// Unlock releases the lock for a set.
func (sl *SetLock) Unlock(key string) {
	if v, ok := sl.locks.Load(key); ok {
		v.(*keyedMutex).mu.Unlock()
	}
}

// TryLock attempts to acquire the lock without blocking.
func (sl *SetLock) TryLock(key string) bool {
	return sl.getLock(key).mu.TryLock()
}

// WithLock executes fn while holding the set's lock.
func (sl *SetLock) WithLock(key string, fn func() error) error {
	sl.Lock(key)
	defer sl.Unlock(key)
	return fn()
}
