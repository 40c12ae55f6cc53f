//go:build rp2040

package main

import (
	_ "embed"
	"runtime/interrupt"

	"edgeirq/config"
	"edgeirq/core"
)

//go:embed board.json
var boardConfig []byte

var (
	// button is the input pin shared with the GPIO interrupt handler. It
	// lives in static storage for the life of the firmware.
	button core.PinSlot

	peripherals registry
)

func main() {
	// Console goes to the default UART/USB CDC through println
	core.SetDebugWriter(func(s string) {
		println(s)
	})
	core.SetHaltHandler(halt)

	println("Hello edgeirq!")

	cfg, err := config.Load(boardConfig)
	if err != nil {
		core.Fatal(err)
	}
	core.SetDebugEnabled(*cfg.Debug)
	core.SetClockSource(GetHardwareTime)

	button.Initialize()
	coord := core.NewCoordinator(cfg.Settings(), &button)
	if err := coord.Setup(&peripherals); err != nil {
		core.Fatal(err)
	}

	coord.Run()
}

// halt parks the core after a fatal error. Interrupts stay off so a
// half-configured handler cannot run.
func halt(err error) {
	interrupt.Disable()
	println("halted at uptime", GetHardwareUptime(), "us:", err.Error())
	for {
	}
}
