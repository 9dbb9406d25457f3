package nodes

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/chazu/meshfield/pkg/formula"
)

// MatrixFormula builds 4x4 affine matrices whose upper-left 3x3 block is
// given by nine formulas. Cells holds the formulas in column-major order:
// cell k (0-based) sits at row k%3, column k/3.
type MatrixFormula struct {
	Cells     [9]string
	Evaluator *formula.Evaluator
}

// NewMatrixFormula returns a node whose cells produce the identity.
func NewMatrixFormula() *MatrixFormula {
	return &MatrixFormula{
		Cells:     [9]string{"1", "0", "0", "0", "1", "0", "0", "0", "1"},
		Evaluator: formula.NewEvaluator(),
	}
}

// Variables returns the sorted free variables across all cells. Each is an
// input of Process.
func (mf *MatrixFormula) Variables() []string {
	return formula.Variables(mf.Cells[:]...)
}

// Process evaluates the cells once per parameter tuple. inputs maps each
// variable to per-object value lists; a variable without input reads as
// [[0]]. Objects are matched long-repeat across variables and, within an
// object, values are zipped long-repeat. The result is flat, in object
// order.
func (mf *MatrixFormula) Process(inputs map[string][][]float64) ([]*mat.Dense, error) {
	for k, c := range mf.Cells {
		if strings.TrimSpace(c) == "" {
			return nil, fmt.Errorf("nodes: matrix formula: cell %d is empty", k+1)
		}
	}

	bindings := mf.bindings(inputs)
	if len(bindings) == 0 {
		return nil, nil
	}

	ev := mf.Evaluator
	if ev == nil {
		ev = formula.NewEvaluator()
	}
	var cellValues [9][]float64
	for k, c := range mf.Cells {
		vals, err := ev.EvalAll(c, bindings)
		if err != nil {
			return nil, fmt.Errorf("nodes: matrix formula: cell %d: %w", k+1, err)
		}
		cellValues[k] = vals
	}

	out := make([]*mat.Dense, len(bindings))
	for t := range bindings {
		m := mat.NewDense(4, 4, nil)
		for k := range mf.Cells {
			m.Set(k%3, k/3, cellValues[k][t])
		}
		m.Set(3, 3, 1)
		out[t] = m
	}
	return out, nil
}

// bindings flattens the inputs into one variable set per parameter tuple.
func (mf *MatrixFormula) bindings(inputs map[string][][]float64) []map[string]float64 {
	names := mf.Variables()
	if len(names) == 0 {
		return []map[string]float64{{}}
	}

	perVar := make([][][]float64, len(names))
	for i, name := range names {
		objs := inputs[name]
		if len(objs) == 0 {
			objs = [][]float64{{0}}
		}
		perVar[i] = objs
	}

	var out []map[string]float64
	for _, objects := range ZipLongRepeat(perVar...) {
		for _, values := range ZipLongRepeat(objects...) {
			b := make(map[string]float64, len(names))
			for i, name := range names {
				b[name] = values[i]
			}
			out = append(out, b)
		}
	}
	return out
}
