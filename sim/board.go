// Package sim is a host-side model of the board's peripherals. It
// implements every core collaborator interface so the startup sequence
// and the GPIO interrupt handler can run off-target, and lets tests inject
// falling edges from any goroutine.
package sim

import (
	"errors"
	"sync"
	"time"

	"edgeirq/core"
)

// Default board parameters, modelled on a dual-core part with 40 GPIOs
const (
	DefaultCPUFrequency = 240000000
	DefaultAPBFrequency = 80000000
	NumPins             = 40
)

var (
	ErrInvalidPin       = errors.New("sim: invalid pin")
	ErrPinClaimed       = errors.New("sim: pin already claimed")
	ErrInvalidPriority  = errors.New("sim: invalid interrupt priority")
	ErrInvalidCore      = errors.New("sim: invalid core")
	ErrUnknownSource    = errors.New("sim: unknown interrupt source")
	ErrSourceRegistered = errors.New("sim: interrupt source already registered")
	ErrHardwareFault    = errors.New("sim: pin hardware fault")
)

// Config tunes the simulated board
type Config struct {
	CPUFrequency uint32
	APBFrequency uint32

	// SleepPerMS makes Delay.DelayMS really sleep this long per
	// millisecond. Zero returns immediately.
	SleepPerMS time.Duration

	// MaxRetrigger bounds how many times a still-pending line re-enters
	// its handler before the board gives up
	MaxRetrigger int
}

// DefaultConfig returns a board that never sleeps
func DefaultConfig() Config {
	return Config{
		CPUFrequency: DefaultCPUFrequency,
		APBFrequency: DefaultAPBFrequency,
		MaxRetrigger: 4,
	}
}

// Board is the simulated peripheral set. It is the PeripheralRegistry.
type Board struct {
	cfg   Config
	start time.Time

	mu      sync.Mutex
	taken   bool
	inputs  map[core.PinID]*Input
	outputs map[core.PinID]*Output

	timerWDT *TimerWatchdog
	rtcWDT   *RTCWatchdog
	intc     *InterruptController
	delays   *DelaySource
}

// NewBoard creates a board with fresh peripherals
func NewBoard(cfg Config) *Board {
	if cfg.CPUFrequency == 0 {
		cfg.CPUFrequency = DefaultCPUFrequency
	}
	if cfg.APBFrequency == 0 {
		cfg.APBFrequency = DefaultAPBFrequency
	}
	if cfg.MaxRetrigger <= 0 {
		cfg.MaxRetrigger = 4
	}
	b := &Board{
		cfg:      cfg,
		start:    time.Now(),
		inputs:   make(map[core.PinID]*Input),
		outputs:  make(map[core.PinID]*Output),
		timerWDT: &TimerWatchdog{enabled: true},
		rtcWDT:   &RTCWatchdog{enabled: true},
		delays:   &DelaySource{sleepPerMS: cfg.SleepPerMS},
	}
	b.intc = newInterruptController(b)
	return b
}

// Take returns the peripheral set once; later calls fail with
// core.ErrPeripheralsTaken
func (b *Board) Take() (*core.Peripherals, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.taken {
		return nil, core.ErrPeripheralsTaken
	}
	b.taken = true
	return &core.Peripherals{
		Clocks:        clockController{cfg: b.cfg},
		TimerWatchdog: b.timerWDT,
		RTCWatchdog:   b.rtcWDT,
		IO:            ioBank{board: b},
		Interrupts:    b.intc,
		Mask:          b.intc,
		Delays:        b.delays,
	}, nil
}

// Ticks returns microseconds since the board was created. Install it with
// core.SetClockSource.
func (b *Board) Ticks() uint32 {
	return uint32(time.Since(b.start) / time.Microsecond)
}

// Input returns the claimed input pin, or nil
func (b *Board) Input(pin core.PinID) *Input {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inputs[pin]
}

// Output returns the claimed output pin, or nil
func (b *Board) Output(pin core.PinID) *Output {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.outputs[pin]
}

// Interrupts returns the simulated interrupt controller
func (b *Board) Interrupts() *InterruptController {
	return b.intc
}

// Delays returns the simulated delay source
func (b *Board) Delays() *DelaySource {
	return b.delays
}

// WatchdogsEnabled reports whether either watchdog is still armed
func (b *Board) WatchdogsEnabled() (timer, rtc bool) {
	return b.timerWDT.Enabled(), b.rtcWDT.Enabled()
}

// FallingEdge drives the input pin high then low. If the pin listens for
// falling edges its pending flag latches and the GPIO line is raised; the
// handler, if delivered, runs on the calling goroutine, which stands in
// for the preempted context.
func (b *Board) FallingEdge(pin core.PinID) {
	in := b.Input(pin)
	if in == nil {
		return
	}
	if in.drive(true) {
		b.intc.raise(core.SourceGPIO)
	}
	if in.drive(false) {
		b.intc.raise(core.SourceGPIO)
	}
}

// gpioPending reports whether any claimed input has its pending flag set
func (b *Board) gpioPending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, in := range b.inputs {
		if in.Pending() {
			return true
		}
	}
	return false
}

type clockController struct {
	cfg Config
}

func (c clockController) BootDefaults() core.ClockConfig {
	return core.ClockConfig{CPUFrequency: c.cfg.CPUFrequency, APBFrequency: c.cfg.APBFrequency}
}

// TimerWatchdog models the timer-group watchdog
type TimerWatchdog struct {
	mu      sync.Mutex
	enabled bool
}

func (w *TimerWatchdog) Disable() {
	w.mu.Lock()
	w.enabled = false
	w.mu.Unlock()
}

func (w *TimerWatchdog) Enabled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enabled
}

// RTCWatchdog models the RTC watchdog with flash boot protection
type RTCWatchdog struct {
	mu      sync.Mutex
	enabled bool
}

func (w *RTCWatchdog) SetGlobalEnable(enabled bool) {
	w.mu.Lock()
	w.enabled = enabled
	w.mu.Unlock()
}

func (w *RTCWatchdog) Enabled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enabled
}

type ioBank struct {
	board *Board
}

func (io ioBank) Output(pin core.PinID) (core.OutputPin, error) {
	b := io.board
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.claimable(pin); err != nil {
		return nil, err
	}
	out := &Output{id: pin}
	b.outputs[pin] = out
	return out, nil
}

func (io ioBank) PullDownInput(pin core.PinID) (core.InputPin, error) {
	b := io.board
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.claimable(pin); err != nil {
		return nil, err
	}
	in := &Input{id: pin}
	b.inputs[pin] = in
	return in, nil
}

// claimable must be called with b.mu held
func (b *Board) claimable(pin core.PinID) error {
	if pin >= NumPins {
		return ErrInvalidPin
	}
	if _, ok := b.inputs[pin]; ok {
		return ErrPinClaimed
	}
	if _, ok := b.outputs[pin]; ok {
		return ErrPinClaimed
	}
	return nil
}

// DelaySource hands out delays that record how long the foreground waited
type DelaySource struct {
	mu         sync.Mutex
	sleepPerMS time.Duration
	totalMS    uint64
	calls      uint32
	clocks     core.Clocks
}

func (d *DelaySource) NewDelay(clocks core.Clocks) core.Delay {
	d.mu.Lock()
	d.clocks = clocks
	d.mu.Unlock()
	return delay{src: d}
}

// Clocks returns the snapshot the delay was built from
func (d *DelaySource) Clocks() core.Clocks {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clocks
}

// Total returns the accumulated delay and number of DelayMS calls
func (d *DelaySource) Total() (ms uint64, calls uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.totalMS, d.calls
}

type delay struct {
	src *DelaySource
}

func (d delay) DelayMS(ms uint32) {
	d.src.mu.Lock()
	d.src.totalMS += uint64(ms)
	d.src.calls++
	sleep := d.src.sleepPerMS
	d.src.mu.Unlock()

	if sleep > 0 {
		time.Sleep(time.Duration(ms) * sleep)
	}
}
