package meshcalc

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTopology matches any *InvalidTopologyError.
	ErrInvalidTopology = errors.New("meshcalc: invalid topology")

	// ErrDimensionMismatch matches any *DimensionMismatchError.
	ErrDimensionMismatch = errors.New("meshcalc: dimension mismatch")
)

// InvalidTopologyError reports a face corner that does not reference a
// vertex of the mesh.
type InvalidTopologyError struct {
	Face        int // face index
	Corner      int // corner within the face, or -1 for arity errors
	Index       int // offending vertex index (or face arity when Corner is -1)
	VertexCount int
}

func (e *InvalidTopologyError) Error() string {
	if e.Corner < 0 {
		return fmt.Sprintf("meshcalc: face %d has %d corners, want 3", e.Face, e.Index)
	}
	return fmt.Sprintf("meshcalc: face %d corner %d references vertex %d (vertex count %d)",
		e.Face, e.Corner, e.Index, e.VertexCount)
}

// Is reports whether target is ErrInvalidTopology.
func (e *InvalidTopologyError) Is(target error) bool {
	return target == ErrInvalidTopology
}

// DimensionMismatchError reports a field whose length does not match the
// mesh element it is defined on.
type DimensionMismatchError struct {
	Field string // "scalar field", "vector field", ...
	Got   int
	Want  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("meshcalc: %s has length %d, want %d", e.Field, e.Got, e.Want)
}

// Is reports whether target is ErrDimensionMismatch.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}
