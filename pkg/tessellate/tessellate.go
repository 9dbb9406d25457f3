// Package tessellate walks a shape tree from a job file and produces one
// triangle mesh through a geometry kernel.
package tessellate

import (
	"errors"
	"fmt"

	"github.com/chazu/meshfield/pkg/config"
	"github.com/chazu/meshfield/pkg/kernel"
)

// ErrNoShape is returned for a nil shape tree.
var ErrNoShape = errors.New("tessellate: no shape")

// transformStack accumulates translations during tree traversal.
type transformStack struct {
	translations [][3]float64
}

func newTransformStack() *transformStack {
	return &transformStack{}
}

func (ts *transformStack) push(v [3]float64) {
	ts.translations = append(ts.translations, v)
}

func (ts *transformStack) pop() {
	if len(ts.translations) > 0 {
		ts.translations = ts.translations[:len(ts.translations)-1]
	}
}

// accumulated returns the sum of all translations on the stack.
func (ts *transformStack) accumulated() [3]float64 {
	var sum [3]float64
	for _, t := range ts.translations {
		sum[0] += t[0]
		sum[1] += t[1]
		sum[2] += t[2]
	}
	return sum
}

// Tessellate builds the solid described by s with the kernel and returns
// its mesh, named name. The shape tree is never mutated.
func Tessellate(name string, s *config.Shape, k kernel.Kernel) (*kernel.Mesh, error) {
	if s == nil {
		return nil, ErrNoShape
	}
	solid, err := build(k, s, newTransformStack(), "shape")
	if err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}
	mesh, err := k.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("tessellate: ToMesh failed for %q: %w", name, err)
	}
	mesh.Name = name
	return mesh, nil
}

// build recursively creates the solid for a shape node. Translations are
// applied to primitives only, at the accumulated offset of every
// enclosing node.
func build(k kernel.Kernel, s *config.Shape, ts *transformStack, path string) (kernel.Solid, error) {
	var at [3]float64
	copy(at[:], s.At)
	ts.push(at)
	defer ts.pop()

	switch s.Kind {
	case config.KindUnion:
		return handleUnion(k, s, ts, path)
	case config.KindBox, config.KindCylinder, config.KindSphere:
		return handlePrimitive(k, s, ts, path)
	default:
		return nil, fmt.Errorf("%s: unknown shape kind %q", path, s.Kind)
	}
}

// handlePrimitive creates geometry for a primitive node.
func handlePrimitive(k kernel.Kernel, s *config.Shape, ts *transformStack, path string) (kernel.Solid, error) {
	var (
		solid kernel.Solid
		err   error
	)
	switch s.Kind {
	case config.KindBox:
		if len(s.Size) != 3 {
			return nil, fmt.Errorf("%s: box size must have 3 components", path)
		}
		solid, err = k.Box(s.Size[0], s.Size[1], s.Size[2])
	case config.KindCylinder:
		solid, err = k.Cylinder(s.Height, s.Radius)
	case config.KindSphere:
		solid, err = k.Sphere(s.Radius)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	t := ts.accumulated()
	if t != [3]float64{} {
		solid = k.Translate(solid, t[0], t[1], t[2])
	}
	return solid, nil
}

// handleUnion recurses into children and merges them.
func handleUnion(k kernel.Kernel, s *config.Shape, ts *transformStack, path string) (kernel.Solid, error) {
	if len(s.Children) == 0 {
		return nil, fmt.Errorf("%s: union has no children", path)
	}
	solids := make([]kernel.Solid, 0, len(s.Children))
	for i := range s.Children {
		child, err := build(k, &s.Children[i], ts, fmt.Sprintf("%s.children[%d]", path, i))
		if err != nil {
			return nil, err
		}
		solids = append(solids, child)
	}
	return k.Union(solids...), nil
}
