package fixture

// B is reached from A through a single cross-type hop.
type B struct{}

func (b B) G() {
	C{}.M()
}

func (b B) H() {}
