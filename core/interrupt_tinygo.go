//go:build tinygo

package core

import "runtime/interrupt"

// State is the saved interrupt state of the local core
type State = interrupt.State

// disableInterrupts disables interrupts and returns the previous state
func disableInterrupts() State {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state State) {
	interrupt.Restore(state)
}

// spinWait is empty on hardware: the holder is on another core or has
// interrupts disabled, so there is nothing to yield to.
func spinWait() {}
