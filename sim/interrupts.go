package sim

import (
	"sync"
	"sync/atomic"

	"edgeirq/core"
)

// InterruptController models both the interrupt matrix and the global
// level mask. A raised line is delivered only when its source is
// registered and the mask admits its priority; otherwise it stays latched
// in the peripheral and is delivered on unmask.
type InterruptController struct {
	board *Board

	mu   sync.Mutex
	regs map[core.Source]core.Registration
	mask uint32

	inflight   atomic.Int32
	delivered  atomic.Uint32
	retriggers atomic.Uint32
	suppressed atomic.Uint32
}

func newInterruptController(b *Board) *InterruptController {
	return &InterruptController{
		board: b,
		regs:  make(map[core.Source]core.Registration),
	}
}

// EnableWithPriority registers handler for source. Invalid priorities,
// cores or sources, and a second registration of a source, are rejected.
func (c *InterruptController) EnableWithPriority(cpu core.CoreID, source core.Source, priority core.Priority, handler core.Handler) error {
	if priority == core.PriorityNone || priority > core.MaxPriority {
		return ErrInvalidPriority
	}
	if cpu != core.ProCore && cpu != core.AppCore {
		return ErrInvalidCore
	}
	if source != core.SourceGPIO {
		return ErrUnknownSource
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.regs[source]; ok {
		return ErrSourceRegistered
	}
	c.regs[source] = core.Registration{
		Source:   source,
		Core:     cpu,
		Priority: priority,
		Handler:  handler,
	}
	return nil
}

// EnableMask sets the global mask and delivers any line left pending
// while it was masked
func (c *InterruptController) EnableMask(mask uint32) {
	c.mu.Lock()
	c.mask = mask
	c.mu.Unlock()

	if c.board.gpioPending() {
		c.raise(core.SourceGPIO)
	}
}

// Mask returns the current global mask
func (c *InterruptController) Mask() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mask
}

// Registration returns the binding for source, if any
func (c *InterruptController) Registration(source core.Source) (core.Registration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	reg, ok := c.regs[source]
	return reg, ok
}

// InFlight returns how many handler invocations are currently running
func (c *InterruptController) InFlight() int {
	return int(c.inflight.Load())
}

// Delivered returns the number of handler invocations
func (c *InterruptController) Delivered() uint32 {
	return c.delivered.Load()
}

// Retriggers returns how many times a handler was re-entered because it
// returned with the line still pending
func (c *InterruptController) Retriggers() uint32 {
	return c.retriggers.Load()
}

// Suppressed returns how many raises were held back by the mask or a
// missing registration
func (c *InterruptController) Suppressed() uint32 {
	return c.suppressed.Load()
}

// raise delivers source on the calling goroutine. A handler that returns
// with the line still pending is re-entered, up to MaxRetrigger times,
// unless another invocation is already running and will see it.
func (c *InterruptController) raise(source core.Source) {
	c.mu.Lock()
	reg, ok := c.regs[source]
	mask := c.mask
	c.mu.Unlock()

	if !ok || reg.Handler == nil || !core.PriorityAdmitted(mask, reg.Priority) {
		c.suppressed.Add(1)
		return
	}

	c.inflight.Add(1)
	defer c.inflight.Add(-1)

	for i := 0; ; i++ {
		c.delivered.Add(1)
		reg.Handler()

		if i >= c.board.cfg.MaxRetrigger || c.inflight.Load() > 1 || !c.board.gpioPending() {
			return
		}
		c.retriggers.Add(1)
	}
}
