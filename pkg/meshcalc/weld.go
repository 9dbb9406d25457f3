package meshcalc

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// cellKey addresses one cell of the welding grid.
type cellKey [3]int64

// weld merges vertices closer than tol. The first vertex seen in input
// order becomes the representative of its cluster, so the result is
// deterministic. It returns the welded positions and the input-to-welded
// index map.
func weld(vertices [][3]float64, tol float64) ([]v3.Vec, []int) {
	source := make([]int, len(vertices))
	out := make([]v3.Vec, 0, len(vertices))

	if tol == 0 {
		exact := make(map[[3]float64]int, len(vertices))
		for i, p := range vertices {
			if j, ok := exact[p]; ok {
				source[i] = j
				continue
			}
			exact[p] = len(out)
			source[i] = len(out)
			out = append(out, vec(p))
		}
		return out, source
	}

	grid := make(map[cellKey][]int, len(vertices))
	cellOf := func(p v3.Vec) cellKey {
		return cellKey{
			int64(math.Floor(p.X / tol)),
			int64(math.Floor(p.Y / tol)),
			int64(math.Floor(p.Z / tol)),
		}
	}
	tol2 := tol * tol

	for i, raw := range vertices {
		p := vec(raw)
		k := cellOf(p)
		match := -1
	search:
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dz := int64(-1); dz <= 1; dz++ {
					for _, j := range grid[cellKey{k[0] + dx, k[1] + dy, k[2] + dz}] {
						d := out[j].Sub(p)
						if d.Dot(d) <= tol2 {
							match = j
							break search
						}
					}
				}
			}
		}
		if match >= 0 {
			source[i] = match
			continue
		}
		source[i] = len(out)
		grid[k] = append(grid[k], len(out))
		out = append(out, p)
	}
	return out, source
}
