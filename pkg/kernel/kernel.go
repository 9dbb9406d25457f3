// Package kernel defines the abstract geometry kernel used to produce
// triangle meshes for field computations. Implementations (sdfx) build
// solids and tessellate them behind this interface, so mesh sources can be
// swapped without touching the operators.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) (Solid, error)
	Cylinder(height, radius float64) (Solid, error)
	Sphere(radius float64) (Solid, error)

	// Combination and placement
	Union(solids ...Solid) Solid
	Translate(s Solid, x, y, z float64) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
