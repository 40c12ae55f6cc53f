package core

import (
	"errors"
	"testing"
)

// fakeBoard records the order collaborators are called in
type fakeBoard struct {
	calls    []string
	slot     *PinSlot
	takeErr  error
	regErr   error
	handler  Handler
	mask     uint32
	out      *fakeOutput
	in       *fakeInput
	readyReg bool // Slot was ready when the handler was registered
}

func newFakeBoard(slot *PinSlot) *fakeBoard {
	return &fakeBoard{
		slot: slot,
		out:  &fakeOutput{id: 15},
		in:   &fakeInput{id: 0},
	}
}

func (b *fakeBoard) record(call string) {
	b.calls = append(b.calls, call)
}

func (b *fakeBoard) Take() (*Peripherals, error) {
	b.record("take")
	if b.takeErr != nil {
		return nil, b.takeErr
	}
	return &Peripherals{
		Clocks:        b,
		TimerWatchdog: b,
		RTCWatchdog:   b,
		IO:            b,
		Interrupts:    b,
		Mask:          b,
		Delays:        b,
	}, nil
}

func (b *fakeBoard) BootDefaults() ClockConfig {
	b.record("clocks")
	return ClockConfig{CPUFrequency: 240000000, APBFrequency: 80000000}
}

func (b *fakeBoard) Disable() { b.record("timer_wdt") }

func (b *fakeBoard) SetGlobalEnable(enabled bool) {
	if enabled {
		b.record("rtc_wdt_on")
		return
	}
	b.record("rtc_wdt_off")
}

func (b *fakeBoard) Output(pin PinID) (OutputPin, error) {
	b.record("output")
	b.out.board = b
	return b.out, nil
}

func (b *fakeBoard) PullDownInput(pin PinID) (InputPin, error) {
	b.record("input")
	b.in.board = b
	return b.in, nil
}

func (b *fakeBoard) EnableWithPriority(cpu CoreID, source Source, priority Priority, handler Handler) error {
	b.record("register")
	if b.regErr != nil {
		return b.regErr
	}
	b.readyReg = b.slot.Ready()
	b.handler = handler
	return nil
}

func (b *fakeBoard) EnableMask(mask uint32) {
	b.record("unmask")
	b.mask = mask
}

func (b *fakeBoard) NewDelay(clocks Clocks) Delay { return b }

func (b *fakeBoard) DelayMS(ms uint32) {}

type fakeOutput struct {
	board   *fakeBoard
	id      PinID
	high    bool
	failErr error
}

func (p *fakeOutput) ID() PinID { return p.id }

func (p *fakeOutput) SetHigh() error {
	p.board.record("set_high")
	p.high = true
	return nil
}

func (p *fakeOutput) Toggle() error {
	if p.failErr != nil {
		return p.failErr
	}
	p.high = !p.high
	return nil
}

func (p *fakeOutput) IsHigh() bool { return p.high }

type fakeInput struct {
	board   *fakeBoard
	id      PinID
	pending bool
	clears  int
}

func (p *fakeInput) ID() PinID { return p.id }

func (p *fakeInput) Listen(edge Edge) error {
	if edge == EdgeFalling {
		p.board.record("listen_falling")
	}
	return nil
}

func (p *fakeInput) ClearInterrupt() {
	p.pending = false
	p.clears++
}

func (p *fakeInput) Pending() bool { return p.pending }

func TestSetupOrder(t *testing.T) {
	var slot PinSlot
	board := newFakeBoard(&slot)
	c := NewCoordinator(DefaultSettings(), &slot)

	if err := c.Setup(board); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	want := []string{
		"take", "clocks", "timer_wdt", "rtc_wdt_off",
		"output", "set_high", "input", "listen_falling",
		"register", "unmask",
	}
	if len(board.calls) != len(want) {
		t.Fatalf("Expected calls %v, got %v", want, board.calls)
	}
	for i := range want {
		if board.calls[i] != want[i] {
			t.Errorf("Call %d: expected %s, got %s", i, want[i], board.calls[i])
		}
	}

	if !board.readyReg {
		t.Error("Input pin was not published before the handler was registered")
	}
	if board.mask != 1<<1 {
		t.Errorf("Expected mask 0x2, got 0x%x", board.mask)
	}
	if c.State() != RegisteredActive {
		t.Errorf("Expected state active, got %s", c.State())
	}
	if !c.OutputLevel() {
		t.Error("Output should start high")
	}

	reg := c.Registration()
	if reg.Source != SourceGPIO || reg.Priority != Priority3 || reg.Core != ProCore {
		t.Errorf("Unexpected registration %+v", reg)
	}
}

func TestSetupTakeFails(t *testing.T) {
	var slot PinSlot
	board := newFakeBoard(&slot)
	board.takeErr = ErrPeripheralsTaken
	c := NewCoordinator(DefaultSettings(), &slot)

	err := c.Setup(board)
	if !errors.Is(err, ErrPeripheralsTaken) {
		t.Fatalf("Expected ErrPeripheralsTaken, got %v", err)
	}
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Step != StepTakePeripherals {
		t.Errorf("Expected step %d error, got %v", StepTakePeripherals, err)
	}
	if len(board.calls) != 1 {
		t.Errorf("Expected setup to stop after take, got %v", board.calls)
	}
	if slot.Ready() {
		t.Error("Slot must stay empty when setup fails early")
	}
}

func TestSetupRegistrationRejected(t *testing.T) {
	var slot PinSlot
	board := newFakeBoard(&slot)
	board.regErr = errors.New("bad priority")
	c := NewCoordinator(DefaultSettings(), &slot)

	err := c.Setup(board)
	if !errors.Is(err, ErrRegistration) {
		t.Fatalf("Expected ErrRegistration, got %v", err)
	}
	if !errors.Is(err, board.regErr) {
		t.Errorf("Expected controller error to be wrapped, got %v", err)
	}
	if c.State() != Unregistered {
		t.Errorf("Expected state unregistered, got %s", c.State())
	}
	for _, call := range board.calls {
		if call == "unmask" {
			t.Error("Interrupts unmasked after a rejected registration")
		}
	}
}

func TestSetupMaskedPriority(t *testing.T) {
	var slot PinSlot
	board := newFakeBoard(&slot)
	settings := DefaultSettings()
	settings.Priority = Priority1
	settings.UnmaskMask = 1 << 2 // Only levels 2 and up
	c := NewCoordinator(settings, &slot)

	err := c.Setup(board)
	if !errors.Is(err, ErrPriorityMasked) {
		t.Fatalf("Expected ErrPriorityMasked, got %v", err)
	}
	if c.State() != RegisteredMasked {
		t.Errorf("Expected state masked, got %s", c.State())
	}
}

func TestSetupPublishedSlotFails(t *testing.T) {
	var slot PinSlot
	_ = slot.Publish(&fakeInput{id: 9})
	board := newFakeBoard(&slot)
	c := NewCoordinator(DefaultSettings(), &slot)

	err := c.Setup(board)
	if !errors.Is(err, ErrAlreadyPublished) {
		t.Fatalf("Expected ErrAlreadyPublished, got %v", err)
	}
	for _, call := range board.calls {
		if call == "register" {
			t.Error("Handler registered after publish failed")
		}
	}
}

func TestSetupTwice(t *testing.T) {
	var slot PinSlot
	c := NewCoordinator(DefaultSettings(), &slot)
	if err := c.Setup(newFakeBoard(&slot)); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := c.Setup(newFakeBoard(&slot)); !errors.Is(err, ErrAlreadySetup) {
		t.Errorf("Expected ErrAlreadySetup, got %v", err)
	}
}

func TestInterruptBeforePublishPanics(t *testing.T) {
	var slot PinSlot
	c := NewCoordinator(DefaultSettings(), &slot)

	expectPanic(t, ErrSlotEmpty, c.HandleInterrupt)

	if slot.Busy() {
		t.Error("Slot lock held after failed interrupt")
	}
}

func TestHandleInterruptAcknowledges(t *testing.T) {
	var slot PinSlot
	board := newFakeBoard(&slot)
	c := NewCoordinator(DefaultSettings(), &slot)
	if err := c.Setup(board); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	board.in.pending = true
	board.handler()

	if board.in.pending {
		t.Error("Pending flag not cleared")
	}
	if c.Acks() != 1 || c.Spurious() != 0 {
		t.Errorf("Expected 1 ack and 0 spurious, got %d and %d", c.Acks(), c.Spurious())
	}

	// Nothing pending: safe no-op, counted as spurious
	board.handler()
	if board.in.clears != 2 {
		t.Errorf("Expected 2 clears, got %d", board.in.clears)
	}
	if c.Acks() != 1 || c.Spurious() != 1 {
		t.Errorf("Expected 1 ack and 1 spurious, got %d and %d", c.Acks(), c.Spurious())
	}
	if c.Events().Len() != 2 {
		t.Errorf("Expected 2 recorded events, got %d", c.Events().Len())
	}
}

func TestStepBeforeSetup(t *testing.T) {
	var slot PinSlot
	c := NewCoordinator(DefaultSettings(), &slot)
	if err := c.Step(); !errors.Is(err, ErrNotSetup) {
		t.Errorf("Expected ErrNotSetup, got %v", err)
	}
}

func TestStepDrainsEvents(t *testing.T) {
	var slot PinSlot
	board := newFakeBoard(&slot)
	c := NewCoordinator(DefaultSettings(), &slot)
	if err := c.Setup(board); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(string) {})

	board.in.pending = true
	board.handler()
	if err := c.Step(); err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	if len(lines) != 2 {
		t.Fatalf("Expected event and blink lines, got %v", lines)
	}
	if lines[0][:15] != "[EVENT] ISR_ACK" {
		t.Errorf("Expected ack event first, got %q", lines[0])
	}
	if lines[1] != "[BLINK] level=low toggles=1 acks=1 state=active" {
		t.Errorf("Unexpected blink line %q", lines[1])
	}
}

func TestRunFatalOnToggleFault(t *testing.T) {
	var slot PinSlot
	board := newFakeBoard(&slot)
	c := NewCoordinator(DefaultSettings(), &slot)
	if err := c.Setup(board); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	fault := errors.New("pin fault")
	board.out.failErr = fault

	var halted error
	SetHaltHandler(func(err error) { halted = err })
	defer SetHaltHandler(nil)
	defer ResetHalted()

	expectPanic(t, fault, c.Run)

	if !errors.Is(halted, fault) {
		t.Errorf("Expected halt handler to see the fault, got %v", halted)
	}
	if !IsHalted() {
		t.Error("Expected halted flag set")
	}
}

func TestPriorityAdmitted(t *testing.T) {
	cases := []struct {
		mask     uint32
		priority Priority
		want     bool
	}{
		{1 << 1, Priority1, true},
		{1 << 1, Priority3, true},
		{1 << 2, Priority1, false},
		{1 << 3, Priority3, true},
		{0, Priority3, false},
		{1 << 1, PriorityNone, false},
	}
	for _, tc := range cases {
		if got := PriorityAdmitted(tc.mask, tc.priority); got != tc.want {
			t.Errorf("PriorityAdmitted(0x%x, %d) = %v, want %v", tc.mask, tc.priority, got, tc.want)
		}
	}
}
