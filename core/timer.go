package core

import "sync/atomic"

var (
	systemTicks uint32        // atomic, used when no clock source is installed
	clockSource func() uint32 // Free-running hardware counter, if any
)

// GetTime returns the current system time in timer ticks. Safe from
// interrupt context.
func GetTime() uint32 {
	if src := clockSource; src != nil {
		return src()
	}
	return atomic.LoadUint32(&systemTicks)
}

// SetTime sets the current system time (for testing/hardware integration)
func SetTime(ticks uint32) {
	atomic.StoreUint32(&systemTicks, ticks)
}

// SetClockSource installs a free-running counter read by GetTime. Call it
// during setup, before interrupts are unmasked.
func SetClockSource(src func() uint32) {
	clockSource = src
}
