package nodes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/meshfield/pkg/meshcalc"
)

const tol = 1e-9

func TestParseOperation(t *testing.T) {
	tests := []struct {
		in      string
		want    Operation
		wantErr bool
	}{
		{"gradient", OpGradient, false},
		{"GRAD", OpGradient, false},
		{"div/curl", OpDivCurl, false},
		{" divcurl ", OpDivCurl, false},
		{"laplace", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOperation(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOperationString(t *testing.T) {
	assert.Equal(t, "gradient", OpGradient.String())
	assert.Equal(t, "divcurl", OpDivCurl.String())
	assert.Equal(t, "Operation(7)", Operation(7).String())
}

func TestDiffGeomGradientMatchesCore(t *testing.T) {
	u := linearField(tetraVerts, 1, 2, 3)
	res, err := DiffGeom(DiffGeomRequest{
		Vertices:    [][][3]float64{tetraVerts},
		Polygons:    [][][]int{tetraPolys},
		ScalarValue: [][]float64{u},
		Operation:   OpGradient,
	})
	require.NoError(t, err)
	require.Len(t, res.Grad, 1)

	faces, err := triangles(tetraPolys, len(tetraVerts))
	require.NoError(t, err)
	m, err := meshcalc.Preprocess(tetraVerts, faces)
	require.NoError(t, err)
	want, err := meshcalc.Gradient(m, u, false)
	require.NoError(t, err)
	assert.Equal(t, want, res.Grad[0])

	assert.Nil(t, res.Div)
	assert.Nil(t, res.Curl)
	assert.Equal(t, [][][3]float64{tetraVerts}, res.Vertices)
	assert.Equal(t, [][][]int{tetraPolys}, res.Polygons)
}

func TestDiffGeomRotatedIsTangentAndOrthogonal(t *testing.T) {
	u := linearField(tetraVerts, 1, 2, 3)
	req := DiffGeomRequest{
		Vertices:    [][][3]float64{tetraVerts},
		Polygons:    [][][]int{tetraPolys},
		ScalarValue: [][]float64{u},
	}
	plain, err := DiffGeom(req)
	require.NoError(t, err)
	req.Rotated = true
	rot, err := DiffGeom(req)
	require.NoError(t, err)

	for f := range tetraPolys {
		g, r := plain.Grad[0][f], rot.Grad[0][f]
		assert.InDelta(t, 0, g[0]*r[0]+g[1]*r[1]+g[2]*r[2], tol, "face %d", f)
		assert.InDelta(t, g[0]*g[0]+g[1]*g[1]+g[2]*g[2], r[0]*r[0]+r[1]*r[1]+r[2]*r[2], tol, "face %d", f)
	}
}

func TestDiffGeomLongRepeatObjects(t *testing.T) {
	// One mesh, two scalar fields: the mesh is reused for the second.
	res, err := DiffGeom(DiffGeomRequest{
		Vertices:    [][][3]float64{tetraVerts},
		Polygons:    [][][]int{tetraPolys},
		ScalarValue: [][]float64{linearField(tetraVerts, 0, 0, 0), linearField(tetraVerts, 1, 0, 0)},
	})
	require.NoError(t, err)
	require.Len(t, res.Grad, 2)

	for _, g := range res.Grad[0] {
		assert.Equal(t, [3]float64{}, g)
	}
	// Bottom face lies in z=0, so its gradient of x is exactly (1,0,0).
	assert.InDelta(t, 1, res.Grad[1][0][0], tol)
	assert.InDelta(t, 0, res.Grad[1][0][1], tol)
	assert.InDelta(t, 0, res.Grad[1][0][2], tol)
}

func TestDiffGeomFit(t *testing.T) {
	req := DiffGeomRequest{
		Vertices:    [][][3]float64{tetraVerts},
		Polygons:    [][][]int{tetraPolys},
		ScalarValue: [][]float64{{5}},
	}

	_, err := DiffGeom(req)
	assert.ErrorIs(t, err, meshcalc.ErrDimensionMismatch)

	req.Fit = true
	res, err := DiffGeom(req)
	require.NoError(t, err)
	for _, g := range res.Grad[0] {
		assert.Equal(t, [3]float64{}, g)
	}
}

func TestDiffGeomDivCurl(t *testing.T) {
	// A tangent field built as the gradient of a linear function is curl
	// free on a closed mesh.
	u := linearField(tetraVerts, 1, -2, 0.5)
	grad, err := DiffGeom(DiffGeomRequest{
		Vertices:    [][][3]float64{tetraVerts},
		Polygons:    [][][]int{tetraPolys},
		ScalarValue: [][]float64{u},
	})
	require.NoError(t, err)

	res, err := DiffGeom(DiffGeomRequest{
		Vertices:    [][][3]float64{tetraVerts},
		Polygons:    [][][]int{tetraPolys},
		VectorValue: grad.Grad,
		Operation:   OpDivCurl,
	})
	require.NoError(t, err)
	require.Len(t, res.Div, 1)
	require.Len(t, res.Curl, 1)
	assert.Len(t, res.Div[0], len(tetraVerts))
	assert.Nil(t, res.Grad)

	var sum float64
	for i, c := range res.Curl[0] {
		assert.InDelta(t, 0, c, tol, "vertex %d", i)
		sum += res.Div[0][i]
	}
	assert.InDelta(t, 0, sum, tol)
}

func TestDiffGeomPrebuiltMeshes(t *testing.T) {
	faces, err := triangles(tetraPolys, len(tetraVerts))
	require.NoError(t, err)
	m, err := meshcalc.Preprocess(tetraVerts, faces)
	require.NoError(t, err)

	u := linearField(tetraVerts, 2, 0, -1)
	raw, err := DiffGeom(DiffGeomRequest{
		Vertices:    [][][3]float64{tetraVerts},
		Polygons:    [][][]int{tetraPolys},
		ScalarValue: [][]float64{u, linearField(tetraVerts, 0, 1, 0)},
	})
	require.NoError(t, err)

	// One handle is long-repeated across both fields.
	pre, err := DiffGeom(DiffGeomRequest{
		Meshes:      []*meshcalc.Mesh{m},
		ScalarValue: [][]float64{u, linearField(tetraVerts, 0, 1, 0)},
	})
	require.NoError(t, err)
	assert.Equal(t, raw.Grad, pre.Grad)

	dcRaw, err := DiffGeom(DiffGeomRequest{
		Vertices:    [][][3]float64{tetraVerts},
		Polygons:    [][][]int{tetraPolys},
		VectorValue: raw.Grad[:1],
		Operation:   OpDivCurl,
	})
	require.NoError(t, err)
	dcPre, err := DiffGeom(DiffGeomRequest{
		Meshes:      []*meshcalc.Mesh{m},
		VectorValue: raw.Grad[:1],
		Operation:   OpDivCurl,
	})
	require.NoError(t, err)
	assert.Equal(t, dcRaw.Div, dcPre.Div)
	assert.Equal(t, dcRaw.Curl, dcPre.Curl)

	_, err = DiffGeom(DiffGeomRequest{Meshes: []*meshcalc.Mesh{m}, Operation: OpDivCurl})
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestDiffGeomFitVectorField(t *testing.T) {
	res, err := DiffGeom(DiffGeomRequest{
		Vertices:    [][][3]float64{tetraVerts},
		Polygons:    [][][]int{tetraPolys},
		VectorValue: [][][3]float64{{{0, 0, 0}}},
		Operation:   OpDivCurl,
		Fit:         true,
	})
	require.NoError(t, err)
	assert.Equal(t, make([]float64, len(tetraVerts)), res.Div[0])
	assert.Equal(t, make([]float64, len(tetraVerts)), res.Curl[0])
}

func TestDiffGeomRejectsNonTriangles(t *testing.T) {
	_, err := DiffGeom(DiffGeomRequest{
		Vertices:    [][][3]float64{{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}},
		Polygons:    [][][]int{{{0, 1, 2, 3}}},
		ScalarValue: [][]float64{{0, 0, 0, 0}},
	})
	require.ErrorIs(t, err, meshcalc.ErrInvalidTopology)

	var topo *meshcalc.InvalidTopologyError
	require.ErrorAs(t, err, &topo)
	assert.Equal(t, -1, topo.Corner)
	assert.Equal(t, 4, topo.Index)
}

func TestDiffGeomMissingField(t *testing.T) {
	_, err := DiffGeom(DiffGeomRequest{
		Vertices:  [][][3]float64{tetraVerts},
		Polygons:  [][][]int{tetraPolys},
		Operation: OpDivCurl,
	})
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestDiffGeomNoMesh(t *testing.T) {
	res, err := DiffGeom(DiffGeomRequest{ScalarValue: [][]float64{{1}}})
	require.NoError(t, err)
	assert.Nil(t, res.Grad)
}

func TestDiffGeomOutOfRangeIndex(t *testing.T) {
	_, err := DiffGeom(DiffGeomRequest{
		Vertices:    [][][3]float64{tetraVerts},
		Polygons:    [][][]int{{{0, 1, 9}}},
		ScalarValue: [][]float64{{0, 0, 0, 0}},
	})
	assert.ErrorIs(t, err, meshcalc.ErrInvalidTopology)
}
