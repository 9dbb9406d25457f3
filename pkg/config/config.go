// Package config loads meshfield job files. A job names a mesh source
// (an SDF shape tree or an inline mesh), a scalar field expression and the
// differential operators to run. Jobs are read from TOML or YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Defaults applied by (*Job).ApplyDefaults.
const (
	DefaultCells     = 48
	DefaultWeld      = 1e-9
	DefaultOperation = "all"
	DefaultField     = "z"
	DefaultLogLevel  = "info"
)

// Shape kinds.
const (
	KindBox      = "box"
	KindCylinder = "cylinder"
	KindSphere   = "sphere"
	KindUnion    = "union"
)

// Operations accepted in Job.Operation.
var validOperations = map[string]bool{"gradient": true, "divcurl": true, "all": true}

// Job is one field computation.
type Job struct {
	Name      string       `toml:"name" yaml:"name"`
	Shape     *Shape       `toml:"shape,omitempty" yaml:"shape,omitempty"`
	Inline    *InlineMesh  `toml:"inline,omitempty" yaml:"inline,omitempty"`
	Mesh      MeshConfig   `toml:"mesh" yaml:"mesh"`
	Field     FieldConfig  `toml:"field" yaml:"field"`
	Operation string       `toml:"operation" yaml:"operation"` // gradient | divcurl | all
	Rotated   bool         `toml:"rotated" yaml:"rotated"`
	Output    OutputConfig `toml:"output" yaml:"output"`
	LogLevel  string       `toml:"log_level" yaml:"log_level"`
}

// Shape is a node of an SDF shape tree. Box sizes place the minimum corner
// at the origin; cylinders and spheres are centered. At translates the
// shape and everything below it.
type Shape struct {
	Kind     string    `toml:"kind" yaml:"kind"`
	Size     []float64 `toml:"size,omitempty" yaml:"size,omitempty"`
	Radius   float64   `toml:"radius,omitempty" yaml:"radius,omitempty"`
	Height   float64   `toml:"height,omitempty" yaml:"height,omitempty"`
	At       []float64 `toml:"at,omitempty" yaml:"at,omitempty"`
	Children []Shape   `toml:"children,omitempty" yaml:"children,omitempty"`
}

// InlineMesh is an explicit triangle mesh.
type InlineMesh struct {
	Vertices [][]float64 `toml:"vertices" yaml:"vertices"`
	Faces    [][]int     `toml:"faces" yaml:"faces"`
}

// MeshConfig controls tessellation and preprocessing.
type MeshConfig struct {
	Cells int `toml:"cells" yaml:"cells"`
	// Weld is the vertex merge distance. Negative disables welding.
	Weld        *float64 `toml:"weld,omitempty" yaml:"weld,omitempty"`
	AreaEpsilon float64  `toml:"area_epsilon" yaml:"area_epsilon"`
}

// FieldConfig describes the scalar field sampled at every vertex. Expr is
// a formula over the vertex coordinates x, y and z.
type FieldConfig struct {
	Expr string `toml:"expr" yaml:"expr"`
}

// OutputConfig selects what goes into the result document.
type OutputConfig struct {
	IncludeMesh   bool `toml:"include_mesh" yaml:"include_mesh"`
	IncludeFields bool `toml:"include_fields" yaml:"include_fields"`
}

// Load reads a job file, choosing the decoder by extension (.toml, .yaml,
// .yml), then applies defaults and validates it.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	job, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if job.Name == "" {
		job.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return job, nil
}

// Parse decodes a job in the given format ("toml", "yaml" or "yml"),
// applies defaults and validates it.
func Parse(data []byte, format string) (*Job, error) {
	var job Job
	switch format {
	case "toml":
		if err := toml.Unmarshal(data, &job); err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &job); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported job format %q", format)
	}
	job.ApplyDefaults()
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return &job, nil
}

// ApplyDefaults fills zero-valued settings.
func (j *Job) ApplyDefaults() {
	if j.Mesh.Cells == 0 {
		j.Mesh.Cells = DefaultCells
	}
	if j.Mesh.Weld == nil {
		w := DefaultWeld
		j.Mesh.Weld = &w
	}
	if j.Field.Expr == "" {
		j.Field.Expr = DefaultField
	}
	if j.Operation == "" {
		j.Operation = DefaultOperation
	}
	if j.LogLevel == "" {
		j.LogLevel = DefaultLogLevel
	}
}

// WeldEnabled reports whether vertices should be merged.
func (j *Job) WeldEnabled() bool {
	return j.Mesh.Weld != nil && *j.Mesh.Weld >= 0
}

// Validate checks the job for consistency and returns every problem found.
func (j *Job) Validate() error {
	var errs []error
	switch {
	case j.Shape == nil && j.Inline == nil:
		errs = append(errs, errors.New("job needs a shape or an inline mesh"))
	case j.Shape != nil && j.Inline != nil:
		errs = append(errs, errors.New("job has both a shape and an inline mesh"))
	case j.Shape != nil:
		errs = append(errs, j.Shape.validate("shape")...)
	default:
		errs = append(errs, j.Inline.validate()...)
	}
	if !validOperations[j.Operation] {
		errs = append(errs, fmt.Errorf("unknown operation %q (want gradient, divcurl or all)", j.Operation))
	}
	if j.Mesh.Cells < 2 {
		errs = append(errs, fmt.Errorf("mesh.cells must be at least 2, got %d", j.Mesh.Cells))
	}
	if j.Mesh.AreaEpsilon < 0 {
		errs = append(errs, fmt.Errorf("mesh.area_epsilon must be non-negative, got %g", j.Mesh.AreaEpsilon))
	}
	switch j.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log_level %q", j.LogLevel))
	}
	return errors.Join(errs...)
}

func (s *Shape) validate(path string) []error {
	var errs []error
	if s.At != nil && len(s.At) != 3 {
		errs = append(errs, fmt.Errorf("%s.at must have 3 components, got %d", path, len(s.At)))
	}
	switch s.Kind {
	case KindBox:
		if len(s.Size) != 3 {
			errs = append(errs, fmt.Errorf("%s.size must have 3 components, got %d", path, len(s.Size)))
			break
		}
		for _, c := range s.Size {
			if c <= 0 {
				errs = append(errs, fmt.Errorf("%s.size must be positive, got %v", path, s.Size))
				break
			}
		}
	case KindCylinder:
		if s.Radius <= 0 || s.Height <= 0 {
			errs = append(errs, fmt.Errorf("%s: cylinder needs positive radius and height", path))
		}
	case KindSphere:
		if s.Radius <= 0 {
			errs = append(errs, fmt.Errorf("%s: sphere needs a positive radius", path))
		}
	case KindUnion:
		if len(s.Children) == 0 {
			errs = append(errs, fmt.Errorf("%s: union needs children", path))
		}
	default:
		errs = append(errs, fmt.Errorf("%s: unknown kind %q", path, s.Kind))
	}
	for i := range s.Children {
		if s.Kind != KindUnion {
			errs = append(errs, fmt.Errorf("%s: only unions have children", path))
			break
		}
		errs = append(errs, s.Children[i].validate(fmt.Sprintf("%s.children[%d]", path, i))...)
	}
	return errs
}

func (m *InlineMesh) validate() []error {
	var errs []error
	for i, v := range m.Vertices {
		if len(v) != 3 {
			errs = append(errs, fmt.Errorf("inline.vertices[%d] must have 3 components, got %d", i, len(v)))
		}
	}
	for i, f := range m.Faces {
		if len(f) != 3 {
			errs = append(errs, fmt.Errorf("inline.faces[%d] must have 3 indices, got %d", i, len(f)))
		}
		for _, idx := range f {
			if idx < 0 || idx >= len(m.Vertices) {
				errs = append(errs, fmt.Errorf("inline.faces[%d] index %d out of range [0, %d)", i, idx, len(m.Vertices)))
			}
		}
	}
	return errs
}

// Geometry converts a validated inline mesh to operator input.
func (m *InlineMesh) Geometry() ([][3]float64, [][3]int) {
	verts := make([][3]float64, len(m.Vertices))
	for i, v := range m.Vertices {
		copy(verts[i][:], v)
	}
	faces := make([][3]int, len(m.Faces))
	for i, f := range m.Faces {
		copy(faces[i][:], f)
	}
	return verts, faces
}
