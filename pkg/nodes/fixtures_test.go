package nodes

// tetraVerts and tetraPolys form a closed unit tetrahedron with outward
// winding.
var (
	tetraVerts = [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	tetraPolys = [][]int{{0, 2, 1}, {0, 1, 3}, {0, 3, 2}, {1, 2, 3}}
)

// linearField samples a*x + b*y + c*z at each vertex.
func linearField(verts [][3]float64, a, b, c float64) []float64 {
	out := make([]float64, len(verts))
	for i, p := range verts {
		out[i] = a*p[0] + b*p[1] + c*p[2]
	}
	return out
}
