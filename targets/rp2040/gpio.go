//go:build rp2040

package main

import (
	"device/rp"
	"errors"
	"machine"
	"runtime/volatile"
	"unsafe"

	"edgeirq/core"
)

// IO_BANK0 interrupt event bits, four per pin
const (
	irqLevelLow  = 0x1
	irqLevelHigh = 0x2
	irqEdgeLow   = 0x4
	irqEdgeHigh  = 0x8

	numPins = 30
)

var (
	errInvalidPin = errors.New("rp2040: invalid pin")
	errPinClaimed = errors.New("rp2040: pin already claimed")
)

type ioType struct {
	status volatile.Register32
	ctrl   volatile.Register32
}

type irqCtrl struct {
	intE [4]volatile.Register32
	intF [4]volatile.Register32
	intS [4]volatile.Register32
}

type ioBank0Type struct {
	io                 [30]ioType
	intR               [4]volatile.Register32
	proc0IRQctrl       irqCtrl
	proc1IRQctrl       irqCtrl
	dormantWakeIRQctrl irqCtrl
}

var ioBank0 = (*ioBank0Type)(unsafe.Pointer(rp.IO_BANK0))

// edgeBits maps an edge selection to IO_BANK0 event bits
func edgeBits(edge core.Edge) uint32 {
	var bits uint32
	if edge&core.EdgeFalling != 0 {
		bits |= irqEdgeLow
	}
	if edge&core.EdgeRising != 0 {
		bits |= irqEdgeHigh
	}
	return bits
}

// pinEvents returns the pin's masked interrupt status for core 0
func pinEvents(pin machine.Pin) uint32 {
	status := ioBank0.proc0IRQctrl.intS[pin>>3].Get()
	return (status >> (4 * (pin % 8))) & 0xf
}

// setPinIRQ enables or disables events for pin in core 0's enable register
func setPinIRQ(pin machine.Pin, events uint32, enable bool) {
	reg := &ioBank0.proc0IRQctrl.intE[pin>>3]
	events <<= 4 * (pin % 8)
	if enable {
		reg.SetBits(events)
	} else {
		reg.ClearBits(events)
	}
}

// ackPinIRQ clears latched edge events; level events clear themselves
func ackPinIRQ(pin machine.Pin, events uint32) {
	ioBank0.intR[pin>>3].Set(events << (4 * (pin % 8)))
}

// ioBank hands out pins, each at most once
type ioBank struct {
	claimed uint32 // Bit per GPIO
}

func (b *ioBank) claim(pin core.PinID) (machine.Pin, error) {
	if pin >= numPins {
		return machine.NoPin, errInvalidPin
	}
	if b.claimed&(1<<pin) != 0 {
		return machine.NoPin, errPinClaimed
	}
	b.claimed |= 1 << pin
	return machine.Pin(pin), nil
}

func (b *ioBank) Output(pin core.PinID) (core.OutputPin, error) {
	p, err := b.claim(pin)
	if err != nil {
		return nil, err
	}
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &gpioOutput{pin: p}, nil
}

func (b *ioBank) PullDownInput(pin core.PinID) (core.InputPin, error) {
	p, err := b.claim(pin)
	if err != nil {
		return nil, err
	}
	p.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	return &gpioInput{pin: p}, nil
}

// gpioInput is a pull-down input with edge events routed to core 0
type gpioInput struct {
	pin    machine.Pin
	events uint32
}

func (p *gpioInput) ID() core.PinID {
	return core.PinID(p.pin)
}

func (p *gpioInput) Listen(edge core.Edge) error {
	bits := edgeBits(edge)
	// Drop anything latched before arming
	ackPinIRQ(p.pin, irqEdgeLow|irqEdgeHigh)
	setPinIRQ(p.pin, irqLevelLow|irqLevelHigh|irqEdgeLow|irqEdgeHigh, false)
	setPinIRQ(p.pin, bits, true)
	p.events = bits
	return nil
}

func (p *gpioInput) ClearInterrupt() {
	ackPinIRQ(p.pin, p.events)
}

func (p *gpioInput) Pending() bool {
	return pinEvents(p.pin)&p.events != 0
}

// gpioOutput drives a pin through SIO. Writes cannot fail on this part.
type gpioOutput struct {
	pin machine.Pin
}

func (p *gpioOutput) ID() core.PinID {
	return core.PinID(p.pin)
}

func (p *gpioOutput) SetHigh() error {
	p.pin.High()
	return nil
}

func (p *gpioOutput) Toggle() error {
	p.pin.Set(!p.pin.Get())
	return nil
}

func (p *gpioOutput) IsHigh() bool {
	return p.pin.Get()
}
