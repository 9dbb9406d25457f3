package meshcalc

import (
	"fmt"
	"math"
)

// Severity indicates whether a finding prevents preprocessing or is
// advisory only.
type Severity int

const (
	SeverityError   Severity = iota // Preprocess would fail or produce NaN
	SeverityWarning                 // handled by the zero-contribution policy
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Finding is a single validation result. Face and Vertex are -1 when the
// finding is not tied to one.
type Finding struct {
	Severity Severity
	Face     int
	Vertex   int
	Message  string
}

func (f Finding) String() string {
	switch {
	case f.Face >= 0:
		return fmt.Sprintf("[%s] face %d: %s", f.Severity, f.Face, f.Message)
	case f.Vertex >= 0:
		return fmt.Sprintf("[%s] vertex %d: %s", f.Severity, f.Vertex, f.Message)
	default:
		return fmt.Sprintf("[%s] %s", f.Severity, f.Message)
	}
}

// Report bundles blocking errors and advisory warnings.
type Report struct {
	Errors   []Finding
	Warnings []Finding
}

// OK reports whether the report has no errors.
func (r Report) OK() bool { return len(r.Errors) == 0 }

// Validate inspects raw mesh arrays without building a handle. It reports
// non-finite coordinates and out-of-range indices as errors, and repeated
// corners, degenerate faces and isolated vertices as warnings. Only
// WithAreaEpsilon is honoured among opts.
func Validate(vertices [][3]float64, faces [][3]int, opts ...Option) Report {
	o := gatherOptions(opts)
	var r Report

	for i, p := range vertices {
		for _, c := range p {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				r.Errors = append(r.Errors, Finding{
					Severity: SeverityError, Face: -1, Vertex: i,
					Message: fmt.Sprintf("non-finite coordinate %v", p),
				})
				break
			}
		}
	}

	used := make([]bool, len(vertices))
	for f, face := range faces {
		bad := false
		for c, idx := range face {
			if idx < 0 || idx >= len(vertices) {
				r.Errors = append(r.Errors, Finding{
					Severity: SeverityError, Face: f, Vertex: -1,
					Message: fmt.Sprintf("corner %d references vertex %d (vertex count %d)", c, idx, len(vertices)),
				})
				bad = true
				continue
			}
			used[idx] = true
		}
		if bad {
			continue
		}
		if face[0] == face[1] || face[1] == face[2] || face[0] == face[2] {
			r.Warnings = append(r.Warnings, Finding{
				Severity: SeverityWarning, Face: f, Vertex: -1,
				Message: fmt.Sprintf("repeated corner in %v", face),
			})
			continue
		}
		p0, p1, p2 := vec(vertices[face[0]]), vec(vertices[face[1]]), vec(vertices[face[2]])
		area := p1.Sub(p0).Cross(p2.Sub(p0)).Length() / 2
		if area <= o.areaEpsilon {
			r.Warnings = append(r.Warnings, Finding{
				Severity: SeverityWarning, Face: f, Vertex: -1,
				Message: fmt.Sprintf("degenerate face (area %g)", area),
			})
		}
	}

	for i, u := range used {
		if !u {
			r.Warnings = append(r.Warnings, Finding{
				Severity: SeverityWarning, Face: -1, Vertex: i,
				Message: "isolated vertex",
			})
		}
	}
	return r
}
