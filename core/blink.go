package core

// Blinker flags
const (
	BF_ON = 1 << 0 // Current output level (1=high, 0=low)
)

// Blinker owns the foreground output pin. Only the foreground loop
// touches it; the GPIO interrupt handler never does.
type Blinker struct {
	pin     OutputPin
	flags   uint8
	toggles uint32
}

// NewBlinker drives pin high and starts tracking its level
func NewBlinker(pin OutputPin) (*Blinker, error) {
	if err := pin.SetHigh(); err != nil {
		return nil, err
	}
	return &Blinker{pin: pin, flags: BF_ON}, nil
}

// Toggle flips the output level
func (b *Blinker) Toggle() error {
	if err := b.pin.Toggle(); err != nil {
		return err
	}
	b.flags ^= BF_ON
	b.toggles++
	return nil
}

// High reports the tracked output level
func (b *Blinker) High() bool {
	return b.flags&BF_ON != 0
}

// Toggles returns the number of completed toggles
func (b *Blinker) Toggles() uint32 {
	return b.toggles
}
