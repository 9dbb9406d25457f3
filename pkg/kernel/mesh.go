package kernel

// Mesh is a triangle mesh. All arrays are flat: vertices and normals have
// 3 floats per vertex, indices have 3 entries per triangle.
type Mesh struct {
	Vertices []float64 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float64 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Name     string    `json:"name"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Geometry returns the mesh as vertex positions and index triples, the
// layout the field operators consume. Trailing partial entries are dropped.
func (m *Mesh) Geometry() ([][3]float64, [][3]int) {
	verts := make([][3]float64, m.VertexCount())
	for i := range verts {
		verts[i] = [3]float64{m.Vertices[3*i], m.Vertices[3*i+1], m.Vertices[3*i+2]}
	}
	faces := make([][3]int, m.TriangleCount())
	for i := range faces {
		faces[i] = [3]int{int(m.Indices[3*i]), int(m.Indices[3*i+1]), int(m.Indices[3*i+2])}
	}
	return verts, faces
}

// FromGeometry builds a Mesh from vertex positions and index triples.
// Normals are left empty.
func FromGeometry(name string, verts [][3]float64, faces [][3]int) *Mesh {
	m := &Mesh{
		Vertices: make([]float64, 0, 3*len(verts)),
		Indices:  make([]uint32, 0, 3*len(faces)),
		Name:     name,
	}
	for _, p := range verts {
		m.Vertices = append(m.Vertices, p[0], p[1], p[2])
	}
	for _, f := range faces {
		m.Indices = append(m.Indices, uint32(f[0]), uint32(f[1]), uint32(f[2]))
	}
	return m
}
