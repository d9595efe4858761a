package geometry

// spiral turns right, down, left, up.
var spiral = [4]Point{{X: 1}, {Y: 1}, {X: -1}, {Y: -1}}

// FindFreePosition returns desired if a node there would not overlap any of
// the occupied positions. Otherwise it walks an expanding square spiral in
// SpiralStep increments, with the leg length growing after every two turns,
// and returns the first free candidate. After MaxSpiralAttempts candidates it
// gives up and returns desired+FallbackOffset with ok=false.
func FindFreePosition(desired Point, occupied []Point) (pos Point, ok bool) {
	if isFree(desired, occupied) {
		return desired, true
	}

	p := desired
	dir, leg, attempts := 0, 1, 0
	for {
		for turn := 0; turn < 2; turn++ {
			for step := 0; step < leg; step++ {
				p = p.Add(spiral[dir].Mul(SpiralStep))
				if isFree(p, occupied) {
					return p, true
				}
				attempts++
				if attempts >= MaxSpiralAttempts {
					return desired.Add(FallbackOffset), false
				}
			}
			dir = (dir + 1) % len(spiral)
		}
		leg++
	}
}

func isFree(p Point, occupied []Point) bool {
	for _, o := range occupied {
		if Overlaps(p, o) {
			return false
		}
	}
	return true
}
