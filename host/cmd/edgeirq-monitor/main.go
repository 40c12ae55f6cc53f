package main

import (
	"flag"
	"fmt"
	"os"

	"edgeirq/host/monitor"
	"edgeirq/host/serial"
)

var (
	device  = flag.String("device", "/dev/ttyUSB0", "Serial device path")
	baud    = flag.Int("baud", serial.DefaultBaud, "Console baud rate")
	verbose = flag.Bool("verbose", false, "Echo every console line")
)

func main() {
	flag.Parse()

	fmt.Println("edgeirq monitor - GPIO edge interrupt console")
	fmt.Println("=============================================")

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	fmt.Printf("Opening console on %s at %d baud...\n", cfg.Device, cfg.Baud)
	port, err := serial.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer port.Close()

	if err := port.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: flush failed: %v\n", err)
	}

	m := monitor.New(func(rec monitor.Record, stats monitor.Stats) {
		if *verbose {
			fmt.Println(rec.Text)
		}
		switch rec.Kind {
		case monitor.KindEvent:
			fmt.Printf("%-12s seq=%-6s clock=%-10s | %s\n", rec.Name, rec.Fields["seq"], rec.Fields["clock"], stats)
		case monitor.KindFatal:
			fmt.Fprintf(os.Stderr, "Device halted: %s\n", rec.Text)
		}
	})

	if err := m.Run(port); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Console closed.")
	fmt.Println(m.Stats())
}
