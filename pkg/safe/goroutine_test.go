package safe

import (
	"sync"
	"testing"
)

func TestDo_RecoverPanic(t *testing.T) {
	// Must not propagate the panic.
	Do(func() {
		panic("boom")
	})
}

func TestGo_RunsFunction(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)

	ran := false
	Go(func() {
		defer wg.Done()
		ran = true
	})

	wg.Wait()
	if !ran {
		t.Error("expected function to run")
	}
}

func TestGo_RecoverPanic(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	Go(func() {
		defer wg.Done()
		panic("boom")
	})
	wg.Wait()
}
