package core

import "sync/atomic"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// EventType identifies an event recorded from interrupt context
type EventType uint8

// Event type codes
const (
	EvtISRAck      EventType = 1 // Pending flag was set and has been cleared
	EvtISRSpurious EventType = 2 // Handler ran with nothing pending
)

// String returns the console name of the event type
func (t EventType) String() string {
	switch t {
	case EvtISRAck:
		return "ISR_ACK"
	case EvtISRSpurious:
		return "ISR_SPURIOUS"
	default:
		return "UNKNOWN"
	}
}

// Event captures one interrupt-context occurrence for the foreground to report
type Event struct {
	Type    EventType
	Seq     uint32 // Monotonic per log, starting at 1
	Clock   uint32 // System clock at event
	Pin     PinID
	Pending bool // Pending flag as observed before clearing
}

const (
	EventRingSize = 32 // Must be a power of two
)

// EventLog is a lock-free single-producer, single-consumer ring. The
// producer is interrupt context (serialized by the pin slot lock), the
// consumer is the foreground loop. A full ring drops new events.
type EventLog struct {
	ring    [EventRingSize]Event
	head    atomic.Uint32 // Next write position, owned by the producer
	tail    atomic.Uint32 // Next read position, owned by the consumer
	seq     uint32        // Producer only
	dropped atomic.Uint32
}

// Record appends an event. It never blocks and is safe to call from an ISR.
func (l *EventLog) Record(typ EventType, pin PinID, pending bool) bool {
	// A dropped event still consumes a sequence number so readers see the gap
	l.seq++
	head := l.head.Load()
	if head-l.tail.Load() >= EventRingSize {
		l.dropped.Add(1)
		return false
	}
	l.ring[head%EventRingSize] = Event{
		Type:    typ,
		Seq:     l.seq,
		Clock:   GetTime(),
		Pin:     pin,
		Pending: pending,
	}
	l.head.Store(head + 1)
	return true
}

// Drain hands every queued event to fn in order and returns how many it consumed
func (l *EventLog) Drain(fn func(Event)) int {
	n := 0
	tail := l.tail.Load()
	head := l.head.Load()
	for tail != head {
		evt := l.ring[tail%EventRingSize]
		tail++
		l.tail.Store(tail)
		fn(evt)
		n++
	}
	return n
}

// Len returns the number of queued events
func (l *EventLog) Len() int {
	return int(l.head.Load() - l.tail.Load())
}

// Dropped returns how many events were lost to a full ring
func (l *EventLog) Dropped() uint32 {
	return l.dropped.Load()
}

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = true
)

// SetDebugWriter sets the platform-specific console output function
// This allows platforms to redirect output to UART, USB, stdout, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// DebugPrintln writes a debug message using the platform-specific writer.
// Never call it from interrupt context; record an Event instead.
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// FormatEvent renders an event as a console line
//
//	[EVENT] ISR_ACK seq=1 clock=1200 pin=0 pending=1
func FormatEvent(evt Event) string {
	pending := "0"
	if evt.Pending {
		pending = "1"
	}
	return "[EVENT] " + evt.Type.String() +
		" seq=" + utoa(evt.Seq) +
		" clock=" + utoa(evt.Clock) +
		" pin=" + utoa(uint32(evt.Pin)) +
		" pending=" + pending
}

// FormatBlink renders the per-iteration status line
//
//	[BLINK] level=low toggles=1 acks=0 state=active
func FormatBlink(high bool, toggles, acks uint32, state RegistrationState) string {
	level := "low"
	if high {
		level = "high"
	}
	return "[BLINK] level=" + level +
		" toggles=" + utoa(toggles) +
		" acks=" + utoa(acks) +
		" state=" + state.String()
}
