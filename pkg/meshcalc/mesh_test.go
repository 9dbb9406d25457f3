package meshcalc

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreprocessGeometry(t *testing.T) {
	verts, faces := tetrahedron()
	m := mustPreprocess(t, verts, faces)

	assert.Equal(t, 4, m.VertexCount())
	assert.Equal(t, 4, m.FaceCount())
	assert.False(t, m.Welded())

	tests := []struct {
		face   int
		area   float64
		normal [3]float64
	}{
		{0, 0.5, [3]float64{0, 0, -1}},
		{1, 0.5, [3]float64{0, -1, 0}},
		{2, 0.5, [3]float64{-1, 0, 0}},
		{3, math.Sqrt(3) / 2, [3]float64{1 / math.Sqrt(3), 1 / math.Sqrt(3), 1 / math.Sqrt(3)}},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.area, m.FaceArea(tt.face), tol, "face %d area", tt.face)
		requireVecNear(t, tt.normal, m.FaceNormal(tt.face), "face %d normal", tt.face)
		assert.False(t, m.Degenerate(tt.face))
	}
	assert.InDelta(t, 1.5+math.Sqrt(3)/2, m.TotalArea(), tol)
	requireVecNear(t, [3]float64{1.0 / 3, 1.0 / 3, 1.0 / 3}, m.FaceCentroid(3))
}

func TestFaceBasisIsOrthonormal(t *testing.T) {
	verts, faces := tetrahedron()
	m := mustPreprocess(t, verts, faces)
	for f := 0; f < m.FaceCount(); f++ {
		tan, bin := m.FaceBasis(f)
		n := m.FaceNormal(f)
		assert.InDelta(t, 1, dot(tan, tan), tol)
		assert.InDelta(t, 1, dot(bin, bin), tol)
		assert.InDelta(t, 0, dot(tan, bin), tol)
		assert.InDelta(t, 0, dot(tan, n), tol)
		requireVecNear(t, cross(n, tan), bin)
	}
}

func TestPreprocessDoesNotRetainInput(t *testing.T) {
	verts, faces := square()
	m := mustPreprocess(t, verts, faces)
	verts[0] = [3]float64{9, 9, 9}
	faces[0] = [3]int{3, 3, 3}
	assert.Equal(t, [3]float64{0, 0, 0}, m.Vertices()[0])
	assert.Equal(t, [3]int{0, 1, 2}, m.Faces()[0])
}

func TestPreprocessInvalidTopology(t *testing.T) {
	verts, _ := square()
	tests := []struct {
		name  string
		faces [][3]int
		face  int
		index int
	}{
		{"index too large", [][3]int{{0, 1, 2}, {0, 2, 4}}, 1, 4},
		{"negative index", [][3]int{{-1, 1, 2}}, 0, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Preprocess(verts, tt.faces)
			require.Error(t, err)
			assert.Nil(t, m)
			assert.True(t, errors.Is(err, ErrInvalidTopology))
			var te *InvalidTopologyError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tt.face, te.Face)
			assert.Equal(t, tt.index, te.Index)
			assert.Equal(t, 4, te.VertexCount)
		})
	}
}

func TestPreprocessEmpty(t *testing.T) {
	m := mustPreprocess(t, nil, nil)
	assert.Equal(t, 0, m.VertexCount())
	g, err := Gradient(m, nil, false)
	require.NoError(t, err)
	assert.Empty(t, g)
	d, err := Divergence(m, nil)
	require.NoError(t, err)
	assert.Empty(t, d)
}

func TestDegenerateFaceFlag(t *testing.T) {
	verts := [][3]float64{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}}
	m := mustPreprocess(t, verts, [][3]int{{0, 1, 2}})
	assert.True(t, m.Degenerate(0))
	assert.Equal(t, 0.0, m.FaceArea(0))
	assert.Equal(t, [3]float64{}, m.FaceNormal(0))
}

func TestAreaEpsilon(t *testing.T) {
	verts := [][3]float64{{0, 0, 0}, {1e-3, 0, 0}, {0, 1e-3, 0}}
	faces := [][3]int{{0, 1, 2}}
	assert.False(t, mustPreprocess(t, verts, faces).Degenerate(0))
	assert.True(t, mustPreprocess(t, verts, faces, WithAreaEpsilon(1e-6)).Degenerate(0))
}

func TestIncidentFaces(t *testing.T) {
	verts, faces := tetrahedron()
	verts = append(verts, [3]float64{5, 5, 5})
	m := mustPreprocess(t, verts, faces)
	assert.Equal(t, []int{0, 1, 2}, m.IncidentFaces(0))
	assert.Equal(t, []int{0, 1, 3}, m.IncidentFaces(1))
	assert.Empty(t, m.IncidentFaces(4))
}

func TestWeldSoup(t *testing.T) {
	// Two triangles of the unit square given as an unindexed soup.
	verts := [][3]float64{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0},
		{0, 0, 0}, {1, 1, 0}, {0, 1, 0},
	}
	faces := [][3]int{{0, 1, 2}, {3, 4, 5}}

	m := mustPreprocess(t, verts, faces, WithWeld(0))
	assert.True(t, m.Welded())
	assert.Equal(t, 4, m.VertexCount())
	assert.Equal(t, []int{0, 1, 2, 0, 2, 3}, m.SourceIndex())
	assert.Equal(t, [][3]int{{0, 1, 2}, {0, 2, 3}}, m.Faces())

	collapsed, err := m.Collapse([]float64{1, 2, 3, 3, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2, 4, 6}, collapsed)

	expanded, err := m.Expand(collapsed)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2, 4, 2, 4, 6}, expanded)

	_, err = m.Collapse([]float64{1, 2})
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestWeldTolerance(t *testing.T) {
	verts := [][3]float64{{0, 0, 0}, {1e-7, 0, 0}, {1, 0, 0}, {1, 1e-7, -1e-7}, {0.5, 0.5, 0}}
	m := mustPreprocess(t, verts, [][3]int{{0, 2, 4}, {1, 3, 4}}, WithWeld(1e-6))
	assert.Equal(t, 3, m.VertexCount())
	assert.Equal(t, []int{0, 0, 1, 1, 2}, m.SourceIndex())
	// The representative keeps the first position seen.
	assert.Equal(t, [3]float64{1, 0, 0}, m.Vertices()[1])
}

func TestWithoutWeldIdentityMaps(t *testing.T) {
	verts, faces := square()
	m := mustPreprocess(t, verts, faces)
	assert.Equal(t, []int{0, 1, 2, 3}, m.SourceIndex())
	out, err := m.Expand([]float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, out)
}

func TestOptionPanics(t *testing.T) {
	assert.Panics(t, func() { WithWeld(-1) })
	assert.Panics(t, func() { WithAreaEpsilon(math.NaN()) })
}
