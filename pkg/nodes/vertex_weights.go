package nodes

import (
	"errors"
	"fmt"
	"slices"
)

// WeightMode selects how VertexGroup.Add combines a weight with the
// current one.
type WeightMode int

const (
	// Replace sets the weight, adding the vertex to the group if needed.
	Replace WeightMode = iota
	// Add adds to the weight, adding the vertex to the group if needed.
	Add
	// Subtract subtracts from the weight of vertices already in the group.
	// A vertex whose weight drops to zero leaves the group.
	Subtract
)

// ErrNotInGroup is returned by VertexGroup.Weight for a vertex that is not
// a member of the group.
var ErrNotInGroup = errors.New("nodes: vertex not in group")

// VertexGroup is a named set of vertices with weights in [0, 1].
type VertexGroup struct {
	Name    string
	weights map[int]float64
}

// NewVertexGroup returns an empty group.
func NewVertexGroup(name string) *VertexGroup {
	return &VertexGroup{Name: name, weights: make(map[int]float64)}
}

// Add applies weight to every index in indices according to mode. The
// resulting weights are clamped to [0, 1].
func (g *VertexGroup) Add(indices []int, weight float64, mode WeightMode) {
	for _, i := range indices {
		cur, ok := g.weights[i]
		switch mode {
		case Replace:
			g.weights[i] = clamp01(weight)
		case Add:
			g.weights[i] = clamp01(cur + weight)
		case Subtract:
			if !ok {
				continue
			}
			w := cur - weight
			if w <= 0 {
				delete(g.weights, i)
				continue
			}
			g.weights[i] = clamp01(w)
		}
	}
}

// Weight returns the weight of vertex i.
func (g *VertexGroup) Weight(i int) (float64, error) {
	w, ok := g.weights[i]
	if !ok {
		return 0, fmt.Errorf("%w: %q vertex %d", ErrNotInGroup, g.Name, i)
	}
	return w, nil
}

// Members returns the sorted indices of the vertices in the group.
func (g *VertexGroup) Members() []int {
	out := make([]int, 0, len(g.weights))
	for i := range g.weights {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

func clamp01(w float64) float64 {
	return min(max(w, 0), 1)
}

// Object is a mesh object carrying vertex groups.
type Object struct {
	Name        string
	VertexCount int
	Groups      []*VertexGroup
}

// Group returns the group with the given name, or nil.
func (o *Object) Group(name string) *VertexGroup {
	for _, g := range o.Groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// NewGroup appends an empty group to the object and returns it.
func (o *Object) NewGroup(name string) *VertexGroup {
	g := NewVertexGroup(name)
	o.Groups = append(o.Groups, g)
	return g
}

// Defaults for VertexWeightsRequest.
const (
	DefaultGroupName = "Sv_VGroup"
	DefaultFadeSpeed = 2.0
)

// VertexWeightsRequest holds the inputs of one VertexWeights evaluation.
type VertexWeightsRequest struct {
	Objects []*Object
	// VertIND lists the vertices to write and read. Nil means every vertex
	// of each object.
	VertIND []int
	// Weights are cycled to the length of the index list. Empty leaves the
	// group untouched and only reads it.
	Weights   []float64
	GroupName string
	// Clear subtracts FadeSpeed from every vertex before new weights are
	// written.
	Clear     bool
	FadeSpeed float64
}

// NewVertexWeightsRequest returns a request with the default group name,
// clearing enabled and the default fade speed.
func NewVertexWeightsRequest(objects ...*Object) VertexWeightsRequest {
	return VertexWeightsRequest{
		Objects:   objects,
		GroupName: DefaultGroupName,
		Clear:     true,
		FadeSpeed: DefaultFadeSpeed,
	}
}

// VertexWeights writes weights into each object's named vertex group and
// returns, per object, the weights of the indexed vertices.
//
// An object without any groups gets the named group created. If an object
// has groups but not the named one, processing stops and nil is returned
// for all objects. If any indexed vertex is not in the group, that
// object's output is all zeros.
func VertexWeights(req VertexWeightsRequest) ([][]float64, error) {
	out := make([][]float64, 0, len(req.Objects))
	for _, obj := range req.Objects {
		if len(obj.Groups) == 0 {
			obj.NewGroup(req.GroupName)
		}
		g := obj.Group(req.GroupName)
		if g == nil {
			Logger().Warn("vertex weights: object has no such group",
				"object", obj.Name, "group", req.GroupName)
			return nil, nil
		}

		all := make([]int, obj.VertexCount)
		for i := range all {
			all[i] = i
		}
		verts := req.VertIND
		if verts == nil {
			verts = all
		}
		for _, i := range verts {
			if i < 0 || i >= obj.VertexCount {
				return nil, fmt.Errorf("nodes: vertex weights: object %q: vertex %d out of range [0, %d)",
					obj.Name, i, obj.VertexCount)
			}
		}

		if len(req.Weights) > 0 {
			if req.Clear {
				g.Add(all, req.FadeSpeed, Subtract)
			}
			weights := CycleTo(req.Weights, len(verts))
			for k, i := range verts {
				g.Add([]int{i}, weights[k], Replace)
			}
		}

		out = append(out, readWeights(g, verts))
		Logger().Debug("vertex weights: object", "object", obj.Name, "members", len(g.weights))
	}
	return out, nil
}

// readWeights returns the weights of verts, or zeros if any is missing.
func readWeights(g *VertexGroup, verts []int) []float64 {
	w := make([]float64, len(verts))
	for k, i := range verts {
		v, err := g.Weight(i)
		if err != nil {
			return make([]float64, len(verts))
		}
		w[k] = v
	}
	return w
}
