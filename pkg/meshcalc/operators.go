package meshcalc

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// ErrEmptyMesh is returned when an operator matrix is requested for a mesh
// without vertices.
var ErrEmptyMesh = errors.New("meshcalc: mesh has no vertices")

// Laplacian assembles the cotangent Laplacian of the mesh as a dense
// symmetric matrix. Off-diagonal entries are ½(cot α + cot β) over the
// angles opposite each edge, and every row sums to zero, so the matrix is
// negative semidefinite. For any scalar field u,
// Laplacian·u equals Divergence(Gradient(u)).
func Laplacian(m *Mesh) (*mat.SymDense, error) {
	n := len(m.verts)
	if n == 0 {
		return nil, ErrEmptyMesh
	}
	l := mat.NewSymDense(n, nil)
	for f, face := range m.faces {
		g := &m.geom[f]
		if g.degenerate {
			continue
		}
		for c := 0; c < 3; c++ {
			j, k := face[(c+1)%3], face[(c+2)%3]
			w := g.cot[c] / 2
			l.SetSym(j, k, l.At(j, k)+w)
			l.SetSym(j, j, l.At(j, j)-w)
			l.SetSym(k, k, l.At(k, k)-w)
		}
	}
	return l, nil
}

// MassMatrix returns the lumped (barycentric) mass matrix: each vertex
// carries one third of the area of its incident faces.
func MassMatrix(m *Mesh) (*mat.DiagDense, error) {
	n := len(m.verts)
	if n == 0 {
		return nil, ErrEmptyMesh
	}
	d := make([]float64, n)
	for i, faces := range m.incident {
		for _, f := range faces {
			d[i] += m.geom[f].area / 3
		}
	}
	return mat.NewDiagDense(n, d), nil
}
