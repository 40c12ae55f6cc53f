package config

import (
	"encoding/json"
	"errors"

	"edgeirq/core"
)

// Config is the JSON-facing configuration of the edge interrupt example
type Config struct {
	OutputPin       *uint32 `json:"output_pin,omitempty"`
	InputPin        *uint32 `json:"input_pin,omitempty"`
	Core            string  `json:"core,omitempty"`     // "pro" or "app"
	Priority        uint8   `json:"priority,omitempty"` // 1..3, higher preempts lower
	UnmaskMask      uint32  `json:"unmask_mask,omitempty"`
	BlinkIntervalMS uint32  `json:"blink_interval_ms,omitempty"`
	Debug           *bool   `json:"debug,omitempty"`
}

var (
	ErrSamePin        = errors.New("config: input and output pin must differ")
	ErrUnknownCore    = errors.New("config: core must be \"pro\" or \"app\"")
	ErrPriorityRange  = errors.New("config: priority must be 1..3")
	ErrMaskedPriority = errors.New("config: unmask_mask does not admit priority")
	ErrZeroInterval   = errors.New("config: blink_interval_ms must be positive")
)

// Load parses a JSON configuration and returns a validated Config
func Load(jsonData []byte) (*Config, error) {
	var cfg Config

	err := json.Unmarshal(jsonData, &cfg)
	if err != nil {
		return nil, err
	}

	// Apply defaults
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the stock configuration
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills in missing configuration values from core.DefaultSettings
func applyDefaults(cfg *Config) {
	def := core.DefaultSettings()

	if cfg.OutputPin == nil {
		pin := uint32(def.OutputPin)
		cfg.OutputPin = &pin
	}
	if cfg.InputPin == nil {
		pin := uint32(def.InputPin)
		cfg.InputPin = &pin
	}
	if cfg.Core == "" {
		cfg.Core = "pro"
	}
	if cfg.Priority == 0 {
		cfg.Priority = uint8(def.Priority)
	}
	if cfg.UnmaskMask == 0 {
		cfg.UnmaskMask = def.UnmaskMask
	}
	if cfg.BlinkIntervalMS == 0 {
		cfg.BlinkIntervalMS = def.BlinkIntervalMS
	}
	if cfg.Debug == nil {
		debug := true
		cfg.Debug = &debug
	}
}

// Validate checks the configuration for errors setup would hit later
func (c *Config) Validate() error {
	if c.OutputPin == nil || c.InputPin == nil {
		applyDefaults(c)
	}
	if *c.OutputPin == *c.InputPin {
		return ErrSamePin
	}
	if _, ok := parseCore(c.Core); !ok {
		return ErrUnknownCore
	}
	if c.Priority == 0 || core.Priority(c.Priority) > core.MaxPriority {
		return ErrPriorityRange
	}
	if !core.PriorityAdmitted(c.UnmaskMask, core.Priority(c.Priority)) {
		return ErrMaskedPriority
	}
	if c.BlinkIntervalMS == 0 {
		return ErrZeroInterval
	}
	return nil
}

// Settings converts the configuration into coordinator settings
func (c *Config) Settings() core.Settings {
	cpu, _ := parseCore(c.Core)
	return core.Settings{
		OutputPin:       core.PinID(*c.OutputPin),
		InputPin:        core.PinID(*c.InputPin),
		Core:            cpu,
		Priority:        core.Priority(c.Priority),
		UnmaskMask:      c.UnmaskMask,
		BlinkIntervalMS: c.BlinkIntervalMS,
	}
}

func parseCore(name string) (core.CoreID, bool) {
	switch name {
	case "pro", "0":
		return core.ProCore, true
	case "app", "1":
		return core.AppCore, true
	default:
		return 0, false
	}
}
