package fixture

import "fmt"

// A is the entry type used as the root document in most scenarios.
type A struct{}

func (a A) F() {
	B{}.G()
	NewC()
	X{}.P()
	_ = Do[int](1)
	fmt.Println("noise")
}
