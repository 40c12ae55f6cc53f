package core

// RegistrationState tracks one interrupt source through setup. There are
// no transitions out of RegisteredActive.
type RegistrationState uint32

const (
	Unregistered     RegistrationState = 0
	RegisteredMasked RegistrationState = 1
	RegisteredActive RegistrationState = 2
)

func (s RegistrationState) String() string {
	switch s {
	case Unregistered:
		return "unregistered"
	case RegisteredMasked:
		return "masked"
	case RegisteredActive:
		return "active"
	default:
		return "invalid"
	}
}

// Registration binds an interrupt source to a handler on a core at a priority
type Registration struct {
	Source   Source
	Core     CoreID
	Priority Priority
	Handler  Handler
}
