//go:build rp2040

package main

import (
	"machine"
	"runtime/volatile"
	"unsafe"

	"edgeirq/core"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x24 // Raw timer high word, no latching
	timerTIMERAWL = timerBase + 0x28 // Raw timer low word, no latching
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// GetHardwareTime reads the low 32 bits of the 1 MHz microsecond counter.
// Safe from interrupt context.
func GetHardwareTime() uint32 {
	return timerRAWL.Get()
}

// GetHardwareUptime reads the full 64-bit microsecond counter
func GetHardwareUptime() uint64 {
	// Read high, low, high again to detect a rollover between the reads
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()
		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}

// clockController reports the clocks the bootrom and runtime left running.
// TinyGo configures the PLLs before main, so boot defaults are what is live.
type clockController struct{}

func (clockController) BootDefaults() core.ClockConfig {
	cpu := machine.CPUFrequency()
	return core.ClockConfig{
		CPUFrequency: cpu,
		APBFrequency: cpu, // clk_peri runs from clk_sys
	}
}
