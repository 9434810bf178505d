package fixture

// C is reached one cross-type hop from A (A.F calls NewC); its method M is
// reached two cross-type hops away from A, through B.
type C struct{}

// NewC is C's constructor-equivalent: a package-level func named New<T>.
func NewC() *C { return &C{} }

// K is C's static-readonly-equivalent: a package-level var whose static
// type is exactly C.
var K = C{}

func (c C) M() {}
