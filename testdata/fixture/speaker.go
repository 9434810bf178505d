package fixture

// Speaker is implemented by A, to exercise root-type interface-closure
// registration.
type Speaker interface {
	Say() string
}

func (a A) Say() string { return "a" }
