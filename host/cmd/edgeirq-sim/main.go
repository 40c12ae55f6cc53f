package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"edgeirq/config"
	"edgeirq/core"
	"edgeirq/sim"
)

var (
	configPath = flag.String("config", "", "JSON configuration file (defaults if empty)")
	iterations = flag.Int("iterations", 10, "Blink iterations to run (0 = forever)")
	edgeEvery  = flag.Duration("edge-every", 700*time.Millisecond, "Inject a falling edge at this interval (0 = never)")
	realtime   = flag.Bool("realtime", true, "Sleep for real in DelayMS")
)

// The shared pin slot, allocated once for the process like on hardware
var button core.PinSlot

func main() {
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	core.SetDebugWriter(func(s string) { fmt.Println(s) })
	core.SetDebugEnabled(*cfg.Debug)
	core.SetHaltHandler(func(err error) {
		fmt.Fprintf(os.Stderr, "halted: %v\n", err)
		os.Exit(2)
	})

	boardCfg := sim.DefaultConfig()
	if *realtime {
		boardCfg.SleepPerMS = time.Millisecond
	}
	board := sim.NewBoard(boardCfg)
	core.SetClockSource(board.Ticks)

	fmt.Println("Hello from the simulated board!")

	button.Initialize()
	settings := cfg.Settings()
	coord := core.NewCoordinator(settings, &button)
	if err := coord.Setup(board); err != nil {
		core.Fatal(err)
	}

	if *edgeEvery > 0 {
		go func() {
			ticker := time.NewTicker(*edgeEvery)
			defer ticker.Stop()
			for range ticker.C {
				board.FallingEdge(settings.InputPin)
			}
		}()
	}

	if *iterations == 0 {
		coord.Run()
	}
	if err := coord.RunIterations(*iterations); err != nil {
		core.Fatal(err)
	}

	intc := board.Interrupts()
	fmt.Printf("done: toggles=%d acks=%d spurious=%d delivered=%d retriggers=%d dropped=%d\n",
		coord.Toggles(), coord.Acks(), coord.Spurious(), intc.Delivered(), intc.Retriggers(), coord.Events().Dropped())
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := config.Load(data)
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
