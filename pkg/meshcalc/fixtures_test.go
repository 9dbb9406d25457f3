package meshcalc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

const tol = 1e-9

// tetrahedron returns the unit corner tetrahedron with outward winding.
func tetrahedron() ([][3]float64, [][3]int) {
	verts := [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	faces := [][3]int{{0, 2, 1}, {0, 1, 3}, {0, 3, 2}, {1, 2, 3}}
	return verts, faces
}

// square returns the unit square in the z=0 plane split into two triangles.
func square() ([][3]float64, [][3]int) {
	verts := [][3]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	faces := [][3]int{{0, 1, 2}, {0, 2, 3}}
	return verts, faces
}

// hexFan returns a flat fan of six triangles around a center vertex 0.
func hexFan() ([][3]float64, [][3]int) {
	verts := [][3]float64{{0, 0, 0}}
	for k := 0; k < 6; k++ {
		a := float64(k) * math.Pi / 3
		verts = append(verts, [3]float64{math.Cos(a), math.Sin(a), 0})
	}
	var faces [][3]int
	for k := 0; k < 6; k++ {
		faces = append(faces, [3]int{0, 1 + k, 1 + (k+1)%6})
	}
	return verts, faces
}

func mustPreprocess(t *testing.T, verts [][3]float64, faces [][3]int, opts ...Option) *Mesh {
	t.Helper()
	m, err := Preprocess(verts, faces, opts...)
	require.NoError(t, err)
	return m
}

func requireVecNear(t *testing.T, want, got [3]float64, msgAndArgs ...interface{}) {
	t.Helper()
	for c := 0; c < 3; c++ {
		require.InDelta(t, want[c], got[c], tol, msgAndArgs...)
	}
}

func dot(a, b [3]float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}
