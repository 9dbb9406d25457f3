package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/chazu/meshfield/pkg/config"
	"github.com/chazu/meshfield/pkg/formula"
	"github.com/chazu/meshfield/pkg/kernel"
	"github.com/chazu/meshfield/pkg/kernel/sdfx"
	"github.com/chazu/meshfield/pkg/meshcalc"
	"github.com/chazu/meshfield/pkg/nodes"
	"github.com/chazu/meshfield/pkg/tessellate"
)

// maxWarnings caps the validation findings copied into a result.
const maxWarnings = 20

// fieldVariables are the names a field expression may use.
var fieldVariables = []string{"x", "y", "z"}

// App runs jobs: it builds the mesh, samples the scalar field and applies
// the differential operators.
type App struct {
	log       *slog.Logger
	evaluator *formula.Evaluator
	newKernel func(cells int) kernel.Kernel
}

// MeshData is the JSON form of the processed mesh.
type MeshData struct {
	Vertices [][3]float64 `json:"vertices"`
	Faces    [][3]int     `json:"faces"`
}

// FieldStats summarises a per-element field. For vector fields the
// statistics are of the vector lengths. AreaMean weights per-vertex values
// by the lumped mass matrix and per-face values by face area.
type FieldStats struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
	AreaMean float64 `json:"area_mean"`
}

// Result is the document written for one job.
type Result struct {
	Name            string                `json:"name"`
	Operation       string                `json:"operation"`
	Rotated         bool                  `json:"rotated"`
	Expr            string                `json:"expr"`
	InputVertices   int                   `json:"input_vertices"`
	VertexCount     int                   `json:"vertex_count"`
	FaceCount       int                   `json:"face_count"`
	DegenerateFaces int                   `json:"degenerate_faces"`
	TotalArea       float64               `json:"total_area"`
	Stats           map[string]FieldStats `json:"stats"`
	Mesh            *MeshData             `json:"mesh,omitempty"`
	Scalar          []float64             `json:"scalar,omitempty"`
	Gradient        [][3]float64          `json:"gradient,omitempty"`
	Divergence      []float64             `json:"divergence,omitempty"`
	Curl            []float64             `json:"curl,omitempty"`
	Warnings        []string              `json:"warnings"`
}

// NewApp creates an App using the sdfx kernel.
func NewApp(log *slog.Logger) *App {
	if log == nil {
		log = slog.Default()
	}
	return &App{
		log:       log,
		evaluator: formula.NewEvaluator(),
		newKernel: func(cells int) kernel.Kernel {
			return sdfx.New(sdfx.WithCells(cells))
		},
	}
}

// Run executes a validated job.
func (a *App) Run(job *config.Job) (*Result, error) {
	result := &Result{
		Name:      job.Name,
		Operation: job.Operation,
		Rotated:   job.Rotated,
		Expr:      job.Field.Expr,
		Stats:     map[string]FieldStats{},
		Warnings:  []string{},
	}

	// Step 1: Build the raw mesh.
	verts, faces, err := a.source(job)
	if err != nil {
		return nil, err
	}
	result.InputVertices = len(verts)

	// Step 2: Preprocess, welding marching-cubes seams if configured.
	var opts []meshcalc.Option
	if job.Mesh.AreaEpsilon > 0 {
		opts = append(opts, meshcalc.WithAreaEpsilon(job.Mesh.AreaEpsilon))
	}
	preOpts := opts
	if job.WeldEnabled() {
		preOpts = append(slices.Clone(opts), meshcalc.WithWeld(*job.Mesh.Weld))
	}
	m, err := meshcalc.Preprocess(verts, faces, preOpts...)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}
	verts, faces = m.Vertices(), m.Faces()
	result.VertexCount = m.VertexCount()
	result.FaceCount = m.FaceCount()
	result.TotalArea = m.TotalArea()
	for f := 0; f < m.FaceCount(); f++ {
		if m.Degenerate(f) {
			result.DegenerateFaces++
		}
	}
	a.log.Info("mesh ready", "job", job.Name,
		"input_vertices", result.InputVertices, "vertices", result.VertexCount,
		"faces", result.FaceCount, "area", result.TotalArea)

	// Step 3: Advisory findings.
	report := meshcalc.Validate(verts, faces, opts...)
	for i, w := range report.Warnings {
		if i == maxWarnings {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("... and %d more", len(report.Warnings)-maxWarnings))
			break
		}
		result.Warnings = append(result.Warnings, w.String())
	}
	if len(report.Warnings) > 0 {
		a.log.Warn("mesh has findings", "job", job.Name, "warnings", len(report.Warnings))
	}

	// Step 4: Sample the scalar field.
	scalar, err := a.sample(job.Field.Expr, verts)
	if err != nil {
		return nil, err
	}

	mass, err := meshcalc.MassMatrix(m)
	if err != nil {
		return nil, fmt.Errorf("mass matrix: %w", err)
	}
	result.Stats["scalar"] = vertexStats(scalar, mass)

	// Step 5: Operators. Div/curl consume the (optionally rotated) gradient,
	// so it is always computed. Every request shares the handle from step 2.
	wantGrad, wantDivCurl := true, true
	if job.Operation != config.DefaultOperation {
		op, err := nodes.ParseOperation(job.Operation)
		if err != nil {
			return nil, err
		}
		wantGrad, wantDivCurl = op == nodes.OpGradient, op == nodes.OpDivCurl
	}
	meshes := []*meshcalc.Mesh{m}
	grad, err := nodes.DiffGeom(nodes.DiffGeomRequest{
		Meshes:      meshes,
		ScalarValue: [][]float64{scalar},
		Operation:   nodes.OpGradient,
		Rotated:     job.Rotated,
	})
	if err != nil {
		return nil, fmt.Errorf("gradient: %w", err)
	}
	gradient := grad.Grad[0]

	if wantGrad {
		result.Stats["gradient"] = faceStats(m, vectorLengths(gradient))
	}
	if wantDivCurl {
		dc, err := nodes.DiffGeom(nodes.DiffGeomRequest{
			Meshes:      meshes,
			VectorValue: [][][3]float64{gradient},
			Operation:   nodes.OpDivCurl,
		})
		if err != nil {
			return nil, fmt.Errorf("divcurl: %w", err)
		}
		result.Stats["divergence"] = vertexStats(dc.Div[0], mass)
		result.Stats["curl"] = vertexStats(dc.Curl[0], mass)
		if job.Output.IncludeFields {
			result.Divergence = dc.Div[0]
			result.Curl = dc.Curl[0]
		}
	}

	if job.Output.IncludeFields {
		result.Scalar = scalar
		if wantGrad {
			result.Gradient = gradient
		}
	}
	if job.Output.IncludeMesh {
		result.Mesh = &MeshData{Vertices: verts, Faces: faces}
	}
	return result, nil
}

// source returns the job's raw mesh, tessellating its shape if it has one.
func (a *App) source(job *config.Job) ([][3]float64, [][3]int, error) {
	var km *kernel.Mesh
	if job.Inline != nil {
		verts, faces := job.Inline.Geometry()
		km = kernel.FromGeometry(job.Name, verts, faces)
	} else {
		var err error
		km, err = tessellate.Tessellate(job.Name, job.Shape, a.newKernel(job.Mesh.Cells))
		if err != nil {
			return nil, nil, err
		}
	}
	if km.IsEmpty() {
		return nil, nil, fmt.Errorf("source: job %q produced an empty mesh", job.Name)
	}
	a.log.Debug("mesh sourced", "job", job.Name,
		"inline", job.Inline != nil, "triangles", km.TriangleCount())
	verts, faces := km.Geometry()
	return verts, faces, nil
}

// sample evaluates expr at every vertex with x, y and z bound to its
// coordinates.
func (a *App) sample(expr string, verts [][3]float64) ([]float64, error) {
	for _, v := range formula.Variables(expr) {
		if !slices.Contains(fieldVariables, v) {
			return nil, fmt.Errorf("field: unknown variable %q (use x, y and z)", v)
		}
	}
	bindings := make([]map[string]float64, len(verts))
	for i, p := range verts {
		bindings[i] = map[string]float64{"x": p[0], "y": p[1], "z": p[2]}
	}
	vals, err := a.evaluator.EvalAll(expr, bindings)
	var nf *formula.NonFiniteError
	if errors.As(err, &nf) {
		p := verts[nf.Index]
		return nil, fmt.Errorf("field: vertex %d at (%g, %g, %g): %w", nf.Index, p[0], p[1], p[2], err)
	}
	if err != nil {
		return nil, fmt.Errorf("field: %w", err)
	}
	return vals, nil
}

// vertexStats summarises a per-vertex field using the lumped mass matrix.
func vertexStats(field []float64, mass *mat.DiagDense) FieldStats {
	s := basicStats(field)
	var num, den float64
	for i, v := range field {
		w := mass.At(i, i)
		num += w * v
		den += w
	}
	if den > 0 {
		s.AreaMean = num / den
	}
	return s
}

// faceStats summarises a per-face field weighted by face area.
func faceStats(m *meshcalc.Mesh, field []float64) FieldStats {
	s := basicStats(field)
	var num float64
	for f, v := range field {
		num += m.FaceArea(f) * v
	}
	if total := m.TotalArea(); total > 0 {
		s.AreaMean = num / total
	}
	return s
}

func basicStats(field []float64) FieldStats {
	if len(field) == 0 {
		return FieldStats{}
	}
	s := FieldStats{Min: math.Inf(1), Max: math.Inf(-1)}
	var sum float64
	for _, v := range field {
		s.Min = min(s.Min, v)
		s.Max = max(s.Max, v)
		sum += v
	}
	s.Mean = sum / float64(len(field))
	return s
}

func vectorLengths(field [][3]float64) []float64 {
	out := make([]float64, len(field))
	for i, v := range field {
		out[i] = math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	}
	return out
}
