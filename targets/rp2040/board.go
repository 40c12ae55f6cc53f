//go:build rp2040

package main

import (
	"device/rp"
	"errors"
	"machine"
	"runtime/interrupt"
	"sync/atomic"
	"time"

	"tinygo.org/x/drivers/delay"

	"edgeirq/core"
)

var (
	errUnsupportedCore   = errors.New("rp2040: GPIO events are only routed to core 0")
	errUnsupportedSource = errors.New("rp2040: unsupported interrupt source")
	errInvalidPriority   = errors.New("rp2040: priority must be 1..3")
	errSourceRegistered  = errors.New("rp2040: interrupt source already registered")
)

// registry hands out the peripheral set once
type registry struct {
	taken atomic.Bool
}

func (r *registry) Take() (*core.Peripherals, error) {
	if r.taken.Swap(true) {
		return nil, core.ErrPeripheralsTaken
	}
	intc := &nvicController{}
	return &core.Peripherals{
		Clocks:        clockController{},
		TimerWatchdog: watchdog{},
		RTCWatchdog:   watchdog{},
		IO:            &ioBank{},
		Interrupts:    intc,
		Mask:          intc,
		Delays:        delaySource{},
	}, nil
}

// watchdog wraps the single RP2040 watchdog. The part has no separate RTC
// watchdog, so both roles map here.
type watchdog struct{}

// Disable reconfigures the watchdog with no timeout, clearing any state
// left over from a previous watchdog reset
func (watchdog) Disable() {
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		core.Fatal(err)
	}
}

func (w watchdog) SetGlobalEnable(enabled bool) {
	if !enabled {
		w.Disable()
	}
}

// gpioHandler is installed by EnableWithPriority and called from the
// IO_IRQ_BANK0 vector
var gpioHandler core.Handler

func gpioInterrupt(interrupt.Interrupt) {
	if h := gpioHandler; h != nil {
		h()
	}
}

// nvicController registers the bank 0 GPIO vector. Registration sets the
// NVIC priority; the line stays disabled until EnableMask admits it.
type nvicController struct {
	irq        interrupt.Interrupt
	priority   core.Priority
	registered bool
}

// nvicPriority maps an ordinal priority to the two implemented NVIC
// priority bits, where numerically lower is more urgent
func nvicPriority(p core.Priority) uint8 {
	return uint8(core.MaxPriority-p) << 6
}

func (c *nvicController) EnableWithPriority(cpu core.CoreID, source core.Source, priority core.Priority, handler core.Handler) error {
	if source != core.SourceGPIO {
		return errUnsupportedSource
	}
	if cpu != core.ProCore {
		return errUnsupportedCore
	}
	if priority == core.PriorityNone || priority > core.MaxPriority {
		return errInvalidPriority
	}
	if c.registered {
		return errSourceRegistered
	}

	gpioHandler = handler
	c.irq = interrupt.New(rp.IRQ_IO_IRQ_BANK0, gpioInterrupt)
	c.irq.SetPriority(nvicPriority(priority))
	c.priority = priority
	c.registered = true
	return nil
}

// EnableMask enables the GPIO line if its priority is admitted. Cortex-M0+
// has no priority threshold register, so the mask is applied per line.
func (c *nvicController) EnableMask(mask uint32) {
	if c.registered && core.PriorityAdmitted(mask, c.priority) {
		c.irq.Enable()
	}
}

type delaySource struct{}

func (delaySource) NewDelay(clocks core.Clocks) core.Delay {
	return busyDelay{}
}

// busyDelay waits on the drivers delay package, which counts cycles for
// short waits and hands long ones to the scheduler
type busyDelay struct{}

func (busyDelay) DelayMS(ms uint32) {
	delay.Sleep(time.Duration(ms) * time.Millisecond)
}
