package fixture

// U is unused directly; Do is the generic function exercised from two
// distinct instantiations in a.go and d.go, which must collapse to one
// keep-set entry.
type U struct{}

func Do[T any](v T) T { return v }
