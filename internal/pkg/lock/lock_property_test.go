// Package lock property-based tests.
package lock

import (
	"fmt"
	"sync"
	"testing"

	"pgregory.net/rapid"
)

// TestSetLockSerializationProperty checks that concurrent WithLock calls on
// the same key never interleave: a plain int counter incremented under the
// lock ends up exact.
func TestSetLockSerializationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		goroutines := rapid.IntRange(2, 16).Draw(t, "goroutines")
		increments := rapid.IntRange(1, 100).Draw(t, "increments")

		sl := NewSetLock()
		counter := 0

		var wg sync.WaitGroup
		for g := 0; g < goroutines; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < increments; i++ {
					_ = sl.WithLock("set-a", func() error {
						counter++
						return nil
					})
				}
			}()
		}
		wg.Wait()

		if counter != goroutines*increments {
			t.Fatalf("counter = %d, want %d", counter, goroutines*increments)
		}
	})
}

// TestSetLockIndependentKeysProperty checks that different keys do not block
// each other: TryLock on a fresh key always succeeds while another key is held.
func TestSetLockIndependentKeysProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		keys := rapid.IntRange(1, 10).Draw(t, "keys")

		sl := NewSetLock()
		sl.Lock("held")
		defer sl.Unlock("held")

		for i := 0; i < keys; i++ {
			key := fmt.Sprintf("set-%d", i)
			if !sl.TryLock(key) {
				t.Fatalf("TryLock(%q) blocked by unrelated held lock", key)
			}
			sl.Unlock(key)
		}

		if sl.TryLock("held") {
			t.Fatal("TryLock succeeded on a held key")
		}
	})
}
