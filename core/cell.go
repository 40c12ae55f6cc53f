package core

import "sync/atomic"

// Cell is a statically allocatable container shared between the
// foreground and an interrupt handler. The zero value is an empty,
// unlocked cell.
//
// The stored value is only reachable through WithExclusiveAccess. The cell
// moves through empty, then populated, and stays populated.
type Cell[T any] struct {
	lock  Spinlock
	ready atomic.Bool
	value T
}

// PinSlot holds the input pin shared with the GPIO interrupt handler
type PinSlot = Cell[InputPin]

// Initialize sets the cell empty. It must run before the interrupt that
// reads the cell can fire. Initializing a published cell panics with
// ErrSlotPublished.
func (c *Cell[T]) Initialize() {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.ready.Load() {
		panic(ErrSlotPublished)
	}
	var zero T
	c.value = zero
}

// Publish stores v and marks the cell ready. Foreground only, and only
// before the consuming interrupt is unmasked; the ready flag is the
// barrier that unmasking checks.
func (c *Cell[T]) Publish(v T) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.ready.Load() {
		return ErrAlreadyPublished
	}
	c.value = v
	c.ready.Store(true)
	return nil
}

// Ready reports whether Publish has completed
func (c *Cell[T]) Ready() bool {
	return c.ready.Load()
}

// WithExclusiveAccess runs fn with mutable access to the stored value
// while holding the lock. The lock is released on every exit path,
// including a panic in fn. Accessing an empty cell panics with
// ErrSlotEmpty: an interrupt that fires before Publish is an ordering bug.
func (c *Cell[T]) WithExclusiveAccess(fn func(v *T)) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.ready.Load() {
		panic(ErrSlotEmpty)
	}
	fn(&c.value)
}

// Busy reports whether some context currently holds the cell's lock
func (c *Cell[T]) Busy() bool {
	return c.lock.Locked()
}
