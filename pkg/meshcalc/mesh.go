package meshcalc

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// faceGeom holds the derived geometry of one triangle.
type faceGeom struct {
	area     float64
	normal   v3.Vec // unit outward normal; zero when degenerate
	centroid v3.Vec
	tangent  v3.Vec // unit vector along p1-p0; zero when degenerate
	binormal v3.Vec // normal × tangent
	// cot[c] is the cotangent of the interior angle at corner c.
	cot        [3]float64
	degenerate bool
}

// Mesh is a preprocessed, immutable triangle mesh. It is safe for
// concurrent use by multiple goroutines.
type Mesh struct {
	verts     []v3.Vec
	faces     [][3]int
	geom      []faceGeom
	incident  [][]int // vertex -> incident faces, ascending
	source    []int   // input vertex -> vertex index; nil unless welded
	totalArea float64
	areaEps   float64
}

// Preprocess validates a triangle mesh and builds the geometry shared by
// Gradient, Divergence and Curl. The input slices are not retained or
// modified.
//
// Any corner index outside [0, len(vertices)) fails with an
// *InvalidTopologyError and no handle is returned.
func Preprocess(vertices [][3]float64, faces [][3]int, opts ...Option) (*Mesh, error) {
	o := gatherOptions(opts)

	for f, face := range faces {
		for c, idx := range face {
			if idx < 0 || idx >= len(vertices) {
				return nil, &InvalidTopologyError{Face: f, Corner: c, Index: idx, VertexCount: len(vertices)}
			}
		}
	}

	m := &Mesh{areaEps: o.areaEpsilon}
	if o.weld {
		m.verts, m.source = weld(vertices, o.weldTol)
		m.faces = make([][3]int, len(faces))
		for f, face := range faces {
			m.faces[f] = [3]int{m.source[face[0]], m.source[face[1]], m.source[face[2]]}
		}
	} else {
		m.verts = make([]v3.Vec, len(vertices))
		for i, p := range vertices {
			m.verts[i] = vec(p)
		}
		m.faces = make([][3]int, len(faces))
		copy(m.faces, faces)
	}

	m.geom = make([]faceGeom, len(m.faces))
	m.incident = make([][]int, len(m.verts))
	for f, face := range m.faces {
		m.geom[f] = m.buildFace(face)
		m.totalArea += m.geom[f].area
		for c, v := range face {
			// A collapsed corner repeats a vertex; count the face once.
			if c > 0 && (v == face[0] || (c == 2 && v == face[1])) {
				continue
			}
			m.incident[v] = append(m.incident[v], f)
		}
	}
	return m, nil
}

// buildFace computes area, normal, centroid, tangent basis and corner
// cotangents for one triangle.
func (m *Mesh) buildFace(face [3]int) faceGeom {
	p0, p1, p2 := m.verts[face[0]], m.verts[face[1]], m.verts[face[2]]
	g := faceGeom{
		centroid: p0.Add(p1).Add(p2).MulScalar(1.0 / 3.0),
	}

	n := p1.Sub(p0).Cross(p2.Sub(p0))
	twiceArea := n.Length()
	g.area = twiceArea / 2
	// NaN areas fall through to degenerate as well.
	if !(g.area > m.areaEps) || math.IsInf(g.area, 0) {
		g.area = 0
		g.degenerate = true
		return g
	}

	g.normal = n.MulScalar(1 / twiceArea)
	e := p1.Sub(p0)
	g.tangent = e.MulScalar(1 / e.Length())
	g.binormal = g.normal.Cross(g.tangent)

	p := [3]v3.Vec{p0, p1, p2}
	for c := 0; c < 3; c++ {
		a := p[(c+1)%3].Sub(p[c])
		b := p[(c+2)%3].Sub(p[c])
		// |a × b| is twice the area for every corner.
		g.cot[c] = a.Dot(b) / twiceArea
	}
	return g
}

// VertexCount returns the number of vertices in the handle. With welding
// enabled this is the welded count.
func (m *Mesh) VertexCount() int { return len(m.verts) }

// FaceCount returns the number of faces.
func (m *Mesh) FaceCount() int { return len(m.faces) }

// Vertices returns a copy of the vertex positions.
func (m *Mesh) Vertices() [][3]float64 {
	out := make([][3]float64, len(m.verts))
	for i, p := range m.verts {
		out[i] = arr(p)
	}
	return out
}

// Faces returns a copy of the face index triples.
func (m *Mesh) Faces() [][3]int {
	out := make([][3]int, len(m.faces))
	copy(out, m.faces)
	return out
}

// FaceArea returns the area of face f, zero for degenerate faces.
func (m *Mesh) FaceArea(f int) float64 { return m.geom[f].area }

// FaceNormal returns the unit normal of face f, zero for degenerate faces.
func (m *Mesh) FaceNormal(f int) [3]float64 { return arr(m.geom[f].normal) }

// FaceCentroid returns the centroid of face f.
func (m *Mesh) FaceCentroid(f int) [3]float64 { return arr(m.geom[f].centroid) }

// FaceBasis returns the orthonormal in-plane basis (tangent, binormal) of
// face f. The tangent runs along the face's first edge and
// binormal = normal × tangent. Both are zero for degenerate faces.
func (m *Mesh) FaceBasis(f int) (tangent, binormal [3]float64) {
	g := &m.geom[f]
	return arr(g.tangent), arr(g.binormal)
}

// Degenerate reports whether face f has area at or below the area epsilon.
func (m *Mesh) Degenerate(f int) bool { return m.geom[f].degenerate }

// IncidentFaces returns the faces that contain vertex v, in ascending order.
func (m *Mesh) IncidentFaces(v int) []int {
	out := make([]int, len(m.incident[v]))
	copy(out, m.incident[v])
	return out
}

// TotalArea returns the summed area of all faces.
func (m *Mesh) TotalArea() float64 { return m.totalArea }

// Welded reports whether the handle was built with WithWeld.
func (m *Mesh) Welded() bool { return m.source != nil }

// SourceIndex returns, for every input vertex, the index it maps to in the
// handle. Without welding it is the identity.
func (m *Mesh) SourceIndex() []int {
	if m.source == nil {
		out := make([]int, len(m.verts))
		for i := range out {
			out[i] = i
		}
		return out
	}
	out := make([]int, len(m.source))
	copy(out, m.source)
	return out
}

// Collapse converts a per-input-vertex field to the handle's indexing,
// averaging the values of input vertices that were welded together.
func (m *Mesh) Collapse(field []float64) ([]float64, error) {
	if m.source == nil {
		if len(field) != len(m.verts) {
			return nil, &DimensionMismatchError{Field: "input vertex field", Got: len(field), Want: len(m.verts)}
		}
		out := make([]float64, len(field))
		copy(out, field)
		return out, nil
	}
	if len(field) != len(m.source) {
		return nil, &DimensionMismatchError{Field: "input vertex field", Got: len(field), Want: len(m.source)}
	}
	out := make([]float64, len(m.verts))
	count := make([]int, len(m.verts))
	for i, v := range field {
		out[m.source[i]] += v
		count[m.source[i]]++
	}
	for i := range out {
		if count[i] > 0 {
			out[i] /= float64(count[i])
		}
	}
	return out, nil
}

// Expand converts a per-vertex field in the handle's indexing back to one
// value per input vertex.
func (m *Mesh) Expand(field []float64) ([]float64, error) {
	if len(field) != len(m.verts) {
		return nil, &DimensionMismatchError{Field: "vertex field", Got: len(field), Want: len(m.verts)}
	}
	if m.source == nil {
		out := make([]float64, len(field))
		copy(out, field)
		return out, nil
	}
	out := make([]float64, len(m.source))
	for i, v := range m.source {
		out[i] = field[v]
	}
	return out, nil
}

func vec(p [3]float64) v3.Vec { return v3.Vec{X: p[0], Y: p[1], Z: p[2]} }

func arr(v v3.Vec) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }
