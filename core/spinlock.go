package core

import "sync/atomic"

// Spinlock is a test-and-set lock that is safe to take from interrupt
// context. Lock disables interrupts on the local core before spinning, so
// an ISR can never preempt a holder on the same core and spin against it.
//
// The lock is not reentrant: taking it twice from the same context spins
// forever.
type Spinlock struct {
	state uint32
	saved State
}

// Lock busy-retries until the lock is owned by the caller
func (l *Spinlock) Lock() {
	for {
		st := disableInterrupts()
		if atomic.CompareAndSwapUint32(&l.state, 0, 1) {
			l.saved = st
			return
		}
		// Let pending interrupts in while waiting
		restoreInterrupts(st)
		spinWait()
	}
}

// Unlock releases the lock and restores the interrupt state saved by Lock.
// Calling Unlock on a free lock has no effect.
func (l *Spinlock) Unlock() {
	st := l.saved
	if atomic.SwapUint32(&l.state, 0) == 0 {
		return
	}
	restoreInterrupts(st)
}

// Locked reports whether the lock is currently held
func (l *Spinlock) Locked() bool {
	return atomic.LoadUint32(&l.state) != 0
}
