package meshcalc

import v3 "github.com/deadsy/sdfx/vec/v3"

// Gradient returns the gradient of a piecewise-linear scalar field as one
// constant vector per face, in face order.
//
// For a face (v0, v1, v2) with unit normal N, area A and edges e_i
// opposite v_i (oriented with the winding), the gradient is
// (1/2A) Σ u_i (N × e_i). When rotated is true every vector is turned by
// 90° about its face normal (N × g), which gives a field whose flow lines
// follow the iso-contours of u.
//
// Degenerate faces yield the zero vector. A scalar field whose length is
// not VertexCount fails with a *DimensionMismatchError.
func Gradient(m *Mesh, scalar []float64, rotated bool) ([][3]float64, error) {
	if len(scalar) != len(m.verts) {
		return nil, &DimensionMismatchError{Field: "scalar field", Got: len(scalar), Want: len(m.verts)}
	}
	out := make([][3]float64, len(m.faces))
	for f := range m.faces {
		g := &m.geom[f]
		if g.degenerate {
			continue
		}
		grad := m.faceGradient(f, scalar)
		if rotated {
			grad = g.normal.Cross(grad)
		}
		out[f] = arr(grad)
	}
	return out, nil
}

// faceGradient evaluates the gradient on a non-degenerate face. Values are
// taken relative to u0 so that e0+e1+e2 = 0 holds exactly and a constant
// field gives an exact zero.
func (m *Mesh) faceGradient(f int, u []float64) v3.Vec {
	face := m.faces[f]
	g := &m.geom[f]
	p0, p1, p2 := m.verts[face[0]], m.verts[face[1]], m.verts[face[2]]

	e1 := p0.Sub(p2)
	e2 := p1.Sub(p0)
	d1 := u[face[1]] - u[face[0]]
	d2 := u[face[2]] - u[face[0]]

	sum := g.normal.Cross(e1).MulScalar(d1).Add(g.normal.Cross(e2).MulScalar(d2))
	return sum.MulScalar(1 / (2 * g.area))
}

// RotateField turns every face vector of field by 90° about its face
// normal. Degenerate faces map to the zero vector.
func RotateField(m *Mesh, field [][3]float64) ([][3]float64, error) {
	if len(field) != len(m.faces) {
		return nil, &DimensionMismatchError{Field: "vector field", Got: len(field), Want: len(m.faces)}
	}
	out := make([][3]float64, len(field))
	for f, x := range field {
		g := &m.geom[f]
		if g.degenerate {
			continue
		}
		out[f] = arr(g.normal.Cross(vec(x)))
	}
	return out, nil
}
