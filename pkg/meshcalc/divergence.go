package meshcalc

// Divergence returns the integrated divergence of a per-face vector field
// at every vertex:
//
//	div(i) = ½ Σ_{f ∋ i} cot θ_k (p_j − p_i)·X_f + cot θ_j (p_k − p_i)·X_f
//
// where (i, j, k) is face f's winding started at i and θ_j, θ_k are the
// interior angles at j and k. Positive values mark sources. Vertices with
// no incident faces get 0 and degenerate faces contribute nothing.
func Divergence(m *Mesh, field [][3]float64) ([]float64, error) {
	if len(field) != len(m.faces) {
		return nil, &DimensionMismatchError{Field: "vector field", Got: len(field), Want: len(m.faces)}
	}
	out := make([]float64, len(m.verts))
	for i := range m.verts {
		var sum float64
		for _, f := range m.incident[i] {
			g := &m.geom[f]
			if g.degenerate {
				continue
			}
			c := corner(m.faces[f], i)
			j, k := m.faces[f][(c+1)%3], m.faces[f][(c+2)%3]
			x := vec(field[f])
			pi := m.verts[i]
			sum += g.cot[(c+2)%3]*m.verts[j].Sub(pi).Dot(x) +
				g.cot[(c+1)%3]*m.verts[k].Sub(pi).Dot(x)
		}
		out[i] = sum / 2
	}
	return out, nil
}

// Curl returns the integrated curl of a per-face vector field at every
// vertex: the circulation of X along the edge opposite the vertex in each
// incident face, oriented with the face winding,
//
//	curl(i) = ½ Σ_{f ∋ i} (p_k − p_j)·X_f
//
// Positive values mark counter-clockwise rotation about the outward
// normal. curl(X) equals −div(N × X). Vertices with no incident faces get
// 0 and degenerate faces contribute nothing.
func Curl(m *Mesh, field [][3]float64) ([]float64, error) {
	if len(field) != len(m.faces) {
		return nil, &DimensionMismatchError{Field: "vector field", Got: len(field), Want: len(m.faces)}
	}
	out := make([]float64, len(m.verts))
	for i := range m.verts {
		var sum float64
		for _, f := range m.incident[i] {
			if m.geom[f].degenerate {
				continue
			}
			c := corner(m.faces[f], i)
			j, k := m.faces[f][(c+1)%3], m.faces[f][(c+2)%3]
			sum += m.verts[k].Sub(m.verts[j]).Dot(vec(field[f]))
		}
		out[i] = sum / 2
	}
	return out, nil
}

// corner returns the position of vertex v within face.
func corner(face [3]int, v int) int {
	switch v {
	case face[0]:
		return 0
	case face[1]:
		return 1
	}
	return 2
}
