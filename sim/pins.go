package sim

import (
	"sync"
	"sync/atomic"

	"edgeirq/core"
)

// Input is a simulated pull-down input with an edge detector
type Input struct {
	id core.PinID

	mu      sync.Mutex
	level   bool // Pulled low when undriven
	listen  core.Edge
	pending bool
	edges   uint32 // Latched edges

	clears    atomic.Uint32
	inClear   atomic.Int32
	overlaps  atomic.Uint32
	clearHook atomic.Pointer[func()]
}

func (p *Input) ID() core.PinID {
	return p.id
}

func (p *Input) Listen(edge core.Edge) error {
	p.mu.Lock()
	p.listen = edge
	p.mu.Unlock()
	return nil
}

// ClearInterrupt acknowledges the pending flag. Clearing with nothing
// pending does nothing beyond counting the call.
func (p *Input) ClearInterrupt() {
	if p.inClear.Add(1) > 1 {
		p.overlaps.Add(1)
	}
	defer p.inClear.Add(-1)

	p.mu.Lock()
	p.pending = false
	p.mu.Unlock()
	p.clears.Add(1)

	if hook := p.clearHook.Load(); hook != nil {
		(*hook)()
	}
}

func (p *Input) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

// Level returns the pin's logic level
func (p *Input) Level() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// Edges returns how many armed edges the detector has latched
func (p *Input) Edges() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.edges
}

// Clears returns how many times ClearInterrupt was called
func (p *Input) Clears() uint32 {
	return p.clears.Load()
}

// Overlaps returns how many ClearInterrupt calls started while another
// was still running. Anything but zero means the slot lock failed.
func (p *Input) Overlaps() uint32 {
	return p.overlaps.Load()
}

// SetClearHook runs hook at the end of every ClearInterrupt, after the
// pending flag is cleared and while the caller still holds the slot lock
func (p *Input) SetClearHook(hook func()) {
	if hook == nil {
		p.clearHook.Store(nil)
		return
	}
	p.clearHook.Store(&hook)
}

// drive sets the pin level and reports whether an armed edge latched
func (p *Input) drive(level bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.level == level {
		return false
	}
	p.level = level

	var edge core.Edge = core.EdgeFalling
	if level {
		edge = core.EdgeRising
	}
	if p.listen&edge == 0 {
		return false
	}
	p.pending = true
	p.edges++
	return true
}

// Output is a simulated push-pull output
type Output struct {
	id core.PinID

	mu        sync.Mutex
	high      bool
	toggles   uint32
	failAfter int // Toggle fails once toggles reaches this; 0 never fails
}

func (p *Output) ID() core.PinID {
	return p.id
}

func (p *Output) SetHigh() error {
	p.mu.Lock()
	p.high = true
	p.mu.Unlock()
	return nil
}

func (p *Output) Toggle() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failAfter > 0 && int(p.toggles) >= p.failAfter {
		return ErrHardwareFault
	}
	p.high = !p.high
	p.toggles++
	return nil
}

func (p *Output) IsHigh() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.high
}

// Toggles returns how many times the hardware level flipped
func (p *Output) Toggles() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.toggles
}

// FailAfter makes Toggle return ErrHardwareFault once n toggles have succeeded
func (p *Output) FailAfter(n int) {
	p.mu.Lock()
	p.failAfter = n
	p.mu.Unlock()
}
