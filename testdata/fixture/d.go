package fixture

// D is a second root document, used by the aggregation scenarios.
type D struct{}

func (d D) F() {
	X{}.Q()
	_ = Do[string]("y")
}
