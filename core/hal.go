package core

// PinID identifies a hardware GPIO pin number
type PinID uint32

// Edge selects which transition arms a pin's interrupt
type Edge uint8

const (
	EdgeNone    Edge = 0
	EdgeRising  Edge = 1 << 0
	EdgeFalling Edge = 1 << 1
)

// CoreID selects the processor core an interrupt is delivered to
type CoreID uint8

const (
	ProCore CoreID = 0 // Protocol core (core 0)
	AppCore CoreID = 1 // Application core (core 1)
)

// Source identifies a peripheral interrupt line
type Source uint8

const (
	SourceGPIO Source = 1
)

// Priority is an interrupt priority level. Higher values preempt lower ones.
// PriorityNone is never a valid registration priority.
type Priority uint8

const (
	PriorityNone Priority = 0
	Priority1    Priority = 1
	Priority2    Priority = 2
	Priority3    Priority = 3

	MaxPriority = Priority3
)

// Handler is an interrupt entry point. It runs to completion, must not
// block, and must leave every lock it takes released.
type Handler func()

// Clocks is a frozen clock configuration snapshot
type Clocks struct {
	CPUFrequency uint32 // Hz
	APBFrequency uint32 // Hz
}

// ClockConfig is a mutable clock configuration that becomes immutable once frozen
type ClockConfig struct {
	CPUFrequency uint32
	APBFrequency uint32
}

// Freeze returns the immutable snapshot consumed by the delay source
func (c ClockConfig) Freeze() Clocks {
	return Clocks{CPUFrequency: c.CPUFrequency, APBFrequency: c.APBFrequency}
}

// ClockController produces the boot clock configuration
type ClockController interface {
	BootDefaults() ClockConfig
}

// TimerWatchdog is the main (timer group) watchdog. Disable is idempotent.
type TimerWatchdog interface {
	Disable()
}

// RTCWatchdog is the RTC watchdog with boot protection. SetGlobalEnable is idempotent.
type RTCWatchdog interface {
	SetGlobalEnable(enabled bool)
}

// InputPin is a pull-down input that can be armed for edge interrupts
type InputPin interface {
	// ID returns the pin number
	ID() PinID

	// Listen arms edge detection for the given edge kind
	Listen(edge Edge) error

	// ClearInterrupt acknowledges a fired event. It is a no-op when
	// nothing is pending.
	ClearInterrupt()

	// Pending reports whether the hardware pending flag is set
	Pending() bool
}

// OutputPin is a push-pull output
type OutputPin interface {
	ID() PinID
	SetHigh() error
	Toggle() error
	IsHigh() bool
}

// IOBank hands out mode-specific pin handles. Each pin can be claimed
// once; mode changes are one-directional.
type IOBank interface {
	Output(pin PinID) (OutputPin, error)
	PullDownInput(pin PinID) (InputPin, error)
}

// InterruptController binds an interrupt source to a handler at a priority
// on a core. A source may be registered at most once.
type InterruptController interface {
	EnableWithPriority(core CoreID, source Source, priority Priority, handler Handler) error
}

// InterruptMask controls global interrupt delivery
type InterruptMask interface {
	// EnableMask unmasks interrupt priority levels at or above the lowest
	// level set in mask.
	EnableMask(mask uint32)
}

// Delay is a blocking busy-wait for the foreground loop only
type Delay interface {
	DelayMS(ms uint32)
}

// DelaySource builds a Delay from a frozen clock snapshot
type DelaySource interface {
	NewDelay(clocks Clocks) Delay
}

// Peripherals is the singleton peripheral set
type Peripherals struct {
	Clocks        ClockController
	TimerWatchdog TimerWatchdog
	RTCWatchdog   RTCWatchdog
	IO            IOBank
	Interrupts    InterruptController
	Mask          InterruptMask
	Delays        DelaySource
}

// PeripheralRegistry returns the peripheral set exactly once per process
type PeripheralRegistry interface {
	Take() (*Peripherals, error)
}

// PriorityAdmitted reports whether mask unmasks the given priority level
func PriorityAdmitted(mask uint32, priority Priority) bool {
	if mask == 0 || priority == PriorityNone {
		return false
	}
	lowest := Priority(0)
	for mask&1 == 0 {
		mask >>= 1
		lowest++
	}
	return priority >= lowest
}
