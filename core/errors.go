package core

import (
	"errors"
	"sync/atomic"
)

var (
	ErrPeripheralsTaken = errors.New("peripherals already taken")
	ErrRegistration     = errors.New("interrupt registration rejected")
	ErrPriorityMasked   = errors.New("interrupt mask does not admit handler priority")
	ErrNotPublished     = errors.New("input pin not published before unmask")
	ErrAlreadySetup     = errors.New("coordinator already set up")
	ErrNotSetup         = errors.New("coordinator not set up")

	ErrSlotEmpty        = errors.New("pin slot accessed before publish")
	ErrSlotPublished    = errors.New("pin slot already published")
	ErrAlreadyPublished = errors.New("pin slot published twice")
)

// StepError reports which setup step failed
type StepError struct {
	Step int
	Name string
	Err  error
}

func (e *StepError) Error() string {
	return "setup step " + itoa(e.Step) + " (" + e.Name + "): " + e.Err.Error()
}

func (e *StepError) Unwrap() error {
	return e.Err
}

var (
	halted      uint32 // atomic bool
	haltHandler func(err error)
)

// SetHaltHandler installs the platform's response to a fatal error. On
// hardware this parks the core or forces a watchdog reset.
func SetHaltHandler(handler func(err error)) {
	haltHandler = handler
}

// Fatal stops the system after an unrecoverable error. With no halt
// handler installed it panics with err.
func Fatal(err error) {
	atomic.StoreUint32(&halted, 1)
	DebugPrintln("[EDGEIRQ] FATAL: " + err.Error())
	if haltHandler != nil {
		haltHandler(err)
	}
	panic(err)
}

// IsHalted returns true once Fatal has been called
func IsHalted() bool {
	return atomic.LoadUint32(&halted) != 0
}

// ResetHalted clears the halted flag (for tests)
func ResetHalted() {
	atomic.StoreUint32(&halted, 0)
}
