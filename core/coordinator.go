// Edge-interrupt coordination
// Sequences peripheral setup so the GPIO interrupt is only unmasked once the
// input pin it acknowledges has been published, then runs the blink loop.
package core

import (
	"errors"
	"sync/atomic"
)

// Settings selects the pins and interrupt parameters for the coordinator
type Settings struct {
	OutputPin       PinID
	InputPin        PinID
	Core            CoreID
	Priority        Priority
	UnmaskMask      uint32 // Levels at or above the lowest set bit are unmasked
	BlinkIntervalMS uint32
}

// DefaultSettings returns the stock wiring: LED on GPIO15, button on
// GPIO0 at priority 3 on the protocol core.
func DefaultSettings() Settings {
	return Settings{
		OutputPin:       15,
		InputPin:        0,
		Core:            ProCore,
		Priority:        Priority3,
		UnmaskMask:      1 << 1,
		BlinkIntervalMS: 500,
	}
}

// Setup step numbers, in execution order. Steps 2 (clocks) and 3
// (watchdogs) cannot fail.
const (
	StepTakePeripherals = 1
	StepOutputPin       = 4
	StepInputPin        = 5
	StepPublish         = 6
	StepRegister        = 7
	StepUnmask          = 8
)

// Coordinator owns setup of the edge interrupt and the foreground loop
type Coordinator struct {
	settings Settings
	slot     *PinSlot
	events   EventLog

	periph *Peripherals
	clocks Clocks
	blink  *Blinker
	delay  Delay

	reg Registration

	// Bound once so the interrupt path does not build a closure
	ackFn func(pin *InputPin)

	state    atomic.Uint32 // RegistrationState
	acks     atomic.Uint32
	spurious atomic.Uint32
	setup    bool
}

// NewCoordinator creates a coordinator that publishes the input pin into slot
func NewCoordinator(settings Settings, slot *PinSlot) *Coordinator {
	c := &Coordinator{
		settings: settings,
		slot:     slot,
	}
	c.ackFn = c.acknowledge
	return c
}

// Setup runs the startup protocol. Each step is a precondition for the
// next; the first failure is returned as a *StepError and nothing after it
// runs. All errors are fatal for the caller.
func (c *Coordinator) Setup(registry PeripheralRegistry) error {
	if c.setup {
		return ErrAlreadySetup
	}

	// 1. Take ownership of the peripheral set
	p, err := registry.Take()
	if err != nil {
		return &StepError{Step: StepTakePeripherals, Name: "take peripherals", Err: err}
	}
	c.periph = p

	// 2. Clocks
	c.clocks = p.Clocks.BootDefaults().Freeze()
	DebugPrintln("[EDGEIRQ] clocks cpu=" + utoa(c.clocks.CPUFrequency) + " apb=" + utoa(c.clocks.APBFrequency))

	// 3. Boot protection would reset the device while we blink
	p.TimerWatchdog.Disable()
	p.RTCWatchdog.SetGlobalEnable(false)

	// 4. Output starts high
	out, err := p.IO.Output(c.settings.OutputPin)
	if err != nil {
		return &StepError{Step: StepOutputPin, Name: "configure output", Err: err}
	}
	blink, err := NewBlinker(out)
	if err != nil {
		return &StepError{Step: StepOutputPin, Name: "configure output", Err: err}
	}
	c.blink = blink

	// 5. Input with pull-down, armed for falling edges
	in, err := p.IO.PullDownInput(c.settings.InputPin)
	if err != nil {
		return &StepError{Step: StepInputPin, Name: "configure input", Err: err}
	}
	if err := in.Listen(EdgeFalling); err != nil {
		return &StepError{Step: StepInputPin, Name: "configure input", Err: err}
	}

	// 6. Publish before the interrupt can possibly fire
	if err := c.slot.Publish(in); err != nil {
		return &StepError{Step: StepPublish, Name: "publish input", Err: err}
	}
	DebugPrintln("[EDGEIRQ] published input pin=" + utoa(uint32(in.ID())))

	// 7. Register the handler; rejection is a configuration error
	reg := Registration{
		Source:   SourceGPIO,
		Core:     c.settings.Core,
		Priority: c.settings.Priority,
		Handler:  c.HandleInterrupt,
	}
	err = p.Interrupts.EnableWithPriority(reg.Core, reg.Source, reg.Priority, reg.Handler)
	if err != nil {
		return &StepError{Step: StepRegister, Name: "register interrupt", Err: errors.Join(ErrRegistration, err)}
	}
	c.reg = reg
	c.state.Store(uint32(RegisteredMasked))
	DebugPrintln("[EDGEIRQ] registered gpio priority=" + utoa(uint32(c.settings.Priority)) + " core=" + utoa(uint32(c.settings.Core)))

	// 8. Unmask. Program order alone does not order the publish against
	// the unmask, so check the ready flag explicitly.
	if !c.slot.Ready() {
		return &StepError{Step: StepUnmask, Name: "unmask", Err: ErrNotPublished}
	}
	if !PriorityAdmitted(c.settings.UnmaskMask, c.settings.Priority) {
		return &StepError{Step: StepUnmask, Name: "unmask", Err: ErrPriorityMasked}
	}
	c.delay = p.Delays.NewDelay(c.clocks)
	p.Mask.EnableMask(c.settings.UnmaskMask)
	c.state.Store(uint32(RegisteredActive))
	DebugPrintln("[EDGEIRQ] interrupts unmasked mask=" + hexutoa(c.settings.UnmaskMask))

	c.setup = true
	return nil
}

// HandleInterrupt is the GPIO interrupt handler. It clears the input pin's
// pending flag under the slot lock and returns. An empty slot panics.
func (c *Coordinator) HandleInterrupt() {
	c.slot.WithExclusiveAccess(c.ackFn)
}

func (c *Coordinator) acknowledge(pin *InputPin) {
	in := *pin
	pending := in.Pending()
	in.ClearInterrupt()
	if pending {
		c.acks.Add(1)
		c.events.Record(EvtISRAck, in.ID(), true)
	} else {
		c.spurious.Add(1)
		c.events.Record(EvtISRSpurious, in.ID(), false)
	}
}

// Step runs one foreground iteration: report, toggle, delay
func (c *Coordinator) Step() error {
	if !c.setup {
		return ErrNotSetup
	}

	c.events.Drain(func(evt Event) {
		DebugPrintln(FormatEvent(evt))
	})

	if err := c.blink.Toggle(); err != nil {
		return err
	}
	DebugPrintln(FormatBlink(c.blink.High(), c.blink.Toggles(), c.acks.Load(), c.State()))

	c.delay.DelayMS(c.settings.BlinkIntervalMS)
	return nil
}

// Run is the foreground loop. It never returns; a failed iteration is fatal.
func (c *Coordinator) Run() {
	for {
		if err := c.Step(); err != nil {
			Fatal(err)
		}
	}
}

// RunIterations runs n foreground iterations
func (c *Coordinator) RunIterations(n int) error {
	for i := 0; i < n; i++ {
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

// State returns the GPIO source's registration state
func (c *Coordinator) State() RegistrationState {
	return RegistrationState(c.state.Load())
}

// Registration returns the GPIO source binding made during setup
func (c *Coordinator) Registration() Registration {
	return c.reg
}

// Acks returns the number of edges the handler acknowledged
func (c *Coordinator) Acks() uint32 {
	return c.acks.Load()
}

// Spurious returns the number of handler runs that found nothing pending
func (c *Coordinator) Spurious() uint32 {
	return c.spurious.Load()
}

// OutputLevel reports the blink output level (foreground only)
func (c *Coordinator) OutputLevel() bool {
	if c.blink == nil {
		return false
	}
	return c.blink.High()
}

// Toggles returns completed blink toggles (foreground only)
func (c *Coordinator) Toggles() uint32 {
	if c.blink == nil {
		return 0
	}
	return c.blink.Toggles()
}

// Events returns the interrupt event log
func (c *Coordinator) Events() *EventLog {
	return &c.events
}
