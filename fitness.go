package sss

// A ship beats another of the same speed with a lower minimum population,
// or the same population in a smaller bounding box.

// CompareShips orders a before b when a is the better ship. Ships that tie on
// population and area compare equal.
func CompareShips(a, b *Ship) int {
	if a.MinPop != b.MinPop {
		if a.MinPop < b.MinPop {
			return -1
		}
		return 1
	}
	areaA, areaB := a.BoundingBoxArea(), b.BoundingBoxArea()
	switch {
	case areaA < areaB:
		return -1
	case areaA > areaB:
		return 1
	}
	return 0
}

// Improves reports whether candidate should replace incumbent.
func Improves(candidate, incumbent *Ship) bool {
	return CompareShips(candidate, incumbent) < 0
}
