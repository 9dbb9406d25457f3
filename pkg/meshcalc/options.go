package meshcalc

import "fmt"

// DefaultAreaEpsilon is the face area at or below which a face is treated
// as degenerate.
const DefaultAreaEpsilon = 1e-15

// options holds the preprocessing configuration.
type options struct {
	weld        bool
	weldTol     float64
	areaEpsilon float64
}

// Option configures Preprocess.
type Option func(*options)

func defaultOptions() options {
	return options{
		weld:        false,
		areaEpsilon: DefaultAreaEpsilon,
	}
}

// WithWeld merges vertices that lie within tol of each other before any
// geometry is computed. Welding changes the vertex count; use
// (*Mesh).SourceIndex, Collapse and Expand to move per-vertex fields
// between the input and the welded indexing.
//
// Welding is off by default: callers usually pass already clean geometry
// whose indices must stay aligned with other per-vertex data.
// WithWeld panics if tol is negative or NaN.
func WithWeld(tol float64) Option {
	if !(tol >= 0) {
		panic(fmt.Sprintf("meshcalc: WithWeld: invalid tolerance %v", tol))
	}
	return func(o *options) {
		o.weld = true
		o.weldTol = tol
	}
}

// WithAreaEpsilon sets the degeneracy threshold for face areas.
// It panics if eps is negative or NaN.
func WithAreaEpsilon(eps float64) Option {
	if !(eps >= 0) {
		panic(fmt.Sprintf("meshcalc: WithAreaEpsilon: invalid epsilon %v", eps))
	}
	return func(o *options) {
		o.areaEpsilon = eps
	}
}

func gatherOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
