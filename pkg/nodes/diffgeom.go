package nodes

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/meshfield/pkg/meshcalc"
)

// Operation selects what DiffGeom computes.
type Operation int

const (
	// OpGradient computes the per-face gradient of a per-vertex scalar.
	OpGradient Operation = iota
	// OpDivCurl computes per-vertex divergence and curl of a per-face vector field.
	OpDivCurl
)

func (o Operation) String() string {
	switch o {
	case OpGradient:
		return "gradient"
	case OpDivCurl:
		return "divcurl"
	default:
		return fmt.Sprintf("Operation(%d)", int(o))
	}
}

// ParseOperation converts a name such as "gradient" or "div/curl" to an
// Operation. Matching ignores case.
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "grad", "gradient":
		return OpGradient, nil
	case "divcurl", "div/curl", "div-curl":
		return OpDivCurl, nil
	}
	return 0, fmt.Errorf("nodes: unknown operation %q", s)
}

// ErrMissingInput is returned when an input required by the selected
// operation has no data.
var ErrMissingInput = errors.New("nodes: missing input")

// DiffGeomRequest holds the inputs of one DiffGeom evaluation. Every input
// has one entry per object. ScalarValue is read by OpGradient, VectorValue
// by OpDivCurl.
type DiffGeomRequest struct {
	Vertices [][][3]float64
	Polygons [][][]int
	// Meshes, when set, are prebuilt handles used instead of Vertices and
	// Polygons, so a mesh preprocessed once can serve several requests.
	Meshes      []*meshcalc.Mesh
	ScalarValue [][]float64
	VectorValue [][][3]float64

	Operation Operation
	// Rotated returns the in-plane rotated gradient.
	Rotated bool
	// Fit stretches or truncates each object's field to the element
	// count by repeating its last value instead of failing on a
	// length mismatch.
	Fit bool
	// Options are passed to meshcalc.Preprocess for every object built
	// from Vertices and Polygons. They are ignored with Meshes.
	Options []meshcalc.Option
}

// DiffGeomResult holds the outputs. Vertices and Polygons are the inputs,
// passed through. Grad is filled for OpGradient; Div and Curl for
// OpDivCurl.
type DiffGeomResult struct {
	Vertices [][][3]float64
	Polygons [][][]int
	Grad     [][][3]float64
	Div      [][]float64
	Curl     [][]float64
}

// DiffGeom runs the selected operation over every object. Inputs are
// matched long-repeat: the object count is that of the longest input and
// shorter inputs repeat their last object.
func DiffGeom(req DiffGeomRequest) (*DiffGeomResult, error) {
	res := &DiffGeomResult{Vertices: req.Vertices, Polygons: req.Polygons}

	var fieldLen int
	switch req.Operation {
	case OpGradient:
		fieldLen = len(req.ScalarValue)
	case OpDivCurl:
		fieldLen = len(req.VectorValue)
	default:
		return nil, fmt.Errorf("nodes: unknown operation %v", req.Operation)
	}
	prebuilt := len(req.Meshes) > 0
	if !prebuilt && (len(req.Vertices) == 0 || len(req.Polygons) == 0) {
		Logger().Debug("diffgeom: no mesh input", "op", req.Operation)
		return res, nil
	}
	if fieldLen == 0 {
		return nil, fmt.Errorf("%w: %s needs a field", ErrMissingInput, req.Operation)
	}

	n := longest(len(req.Vertices), len(req.Polygons), fieldLen)
	if prebuilt {
		n = longest(len(req.Meshes), fieldLen)
	}
	for i := 0; i < n; i++ {
		var m *meshcalc.Mesh
		if prebuilt {
			m = at(req.Meshes, i)
		} else {
			var err error
			if m, err = preprocess(req, i); err != nil {
				return nil, fmt.Errorf("nodes: object %d: %w", i, err)
			}
		}
		Logger().Debug("diffgeom: object",
			"index", i, "vertices", m.VertexCount(), "faces", m.FaceCount())

		switch req.Operation {
		case OpGradient:
			scalar := at(req.ScalarValue, i)
			if req.Fit {
				scalar = RepeatLast(scalar, m.VertexCount())
			}
			g, err := meshcalc.Gradient(m, scalar, req.Rotated)
			if err != nil {
				return nil, fmt.Errorf("nodes: object %d: %w", i, err)
			}
			res.Grad = append(res.Grad, g)
		case OpDivCurl:
			field := at(req.VectorValue, i)
			if req.Fit {
				field = RepeatLast(field, m.FaceCount())
			}
			div, err := meshcalc.Divergence(m, field)
			if err != nil {
				return nil, fmt.Errorf("nodes: object %d: %w", i, err)
			}
			curl, err := meshcalc.Curl(m, field)
			if err != nil {
				return nil, fmt.Errorf("nodes: object %d: %w", i, err)
			}
			res.Div = append(res.Div, div)
			res.Curl = append(res.Curl, curl)
		}
	}
	return res, nil
}

// preprocess builds the handle for object i from Vertices and Polygons.
func preprocess(req DiffGeomRequest, i int) (*meshcalc.Mesh, error) {
	faces, err := triangles(at(req.Polygons, i), len(at(req.Vertices, i)))
	if err != nil {
		return nil, err
	}
	return meshcalc.Preprocess(at(req.Vertices, i), faces, req.Options...)
}

// triangles converts polygon index lists to triangles. Any polygon that
// is not a triangle is an *meshcalc.InvalidTopologyError.
func triangles(polys [][]int, vertexCount int) ([][3]int, error) {
	out := make([][3]int, len(polys))
	for f, p := range polys {
		if len(p) != 3 {
			return nil, &meshcalc.InvalidTopologyError{
				Face: f, Corner: -1, Index: len(p), VertexCount: vertexCount,
			}
		}
		out[f] = [3]int{p[0], p[1], p[2]}
	}
	return out, nil
}
