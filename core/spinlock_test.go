package core

import (
	"sync"
	"testing"
)

func TestSpinlockLockUnlock(t *testing.T) {
	var l Spinlock

	l.Lock()
	if !l.Locked() {
		t.Error("Lock should report held")
	}

	l.Unlock()
	if l.Locked() {
		t.Error("Lock should be free after Unlock")
	}
}

func TestSpinlockUnlockFree(t *testing.T) {
	var l Spinlock
	l.Unlock() // No effect

	if l.Locked() {
		t.Error("Unlock on a free lock should leave it free")
	}
	l.Lock()
	l.Unlock()
}

func TestSpinlockContention(t *testing.T) {
	var l Spinlock
	var wg sync.WaitGroup
	counter := 0

	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				l.Lock()
				counter++
				l.Unlock()
			}
		}()
	}
	wg.Wait()

	if counter != 4000 {
		t.Errorf("Expected counter 4000, got %d", counter)
	}
}
