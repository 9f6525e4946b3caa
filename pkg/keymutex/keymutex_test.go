package keymutex

import (
	"sync"
	"testing"
)

func TestKeyMutex_SerializesSameKey(t *testing.T) {
	km := New(8)

	const goroutines = 50
	const increments = 100

	counter := 0
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < increments; j++ {
				km.Do("same-key", func() {
					counter++
				})
			}
		}()
	}
	wg.Wait()

	if counter != goroutines*increments {
		t.Errorf("expected %d increments, got %d", goroutines*increments, counter)
	}
}

func TestKeyMutex_DisjointKeysDoNotBlock(t *testing.T) {
	km := New(8)

	km.Lock("a")
	done := make(chan struct{})
	go func() {
		km.Do("b", func() {})
		close(done)
	}()
	<-done // must complete while "a" is still held
	km.Unlock("a")
}

func TestKeyMutex_EntriesReleased(t *testing.T) {
	km := New(4)

	km.Do("k1", func() {})
	km.Do("k2", func() {})

	total := 0
	for _, s := range km.shards {
		s.mu.Lock()
		total += len(s.entries)
		s.mu.Unlock()
	}
	if total != 0 {
		t.Errorf("expected empty table after release, got %d entries", total)
	}
}

func TestKeyMutex_UnlockUnknownKeyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on unlock of unlocked key")
		}
	}()
	New(4).Unlock("ghost")
}
