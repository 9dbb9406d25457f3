// Package formula evaluates small numeric expressions written in zygomys
// Lisp, such as "(+ (* 2 x) (sin y))". Every evaluation runs in a fresh
// sandboxed interpreter with a hard time limit.
package formula

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"
)

// DefaultTimeout is the hard limit for a single evaluation.
const DefaultTimeout = 2 * time.Second

// batchSize bounds how many bindings share one interpreter in EvalAll.
const batchSize = 256

// resultPrefix names the per-binding result symbols in batched programs.
const resultPrefix = "meshfield_result_"

var (
	// ErrEmptyFormula is returned for a blank expression.
	ErrEmptyFormula = errors.New("formula: empty expression")
	// ErrTimeout is returned when an evaluation exceeds its time limit.
	ErrTimeout = errors.New("formula: evaluation timed out")
	// ErrNonFinite matches any *NonFiniteError.
	ErrNonFinite = errors.New("formula: non-finite result")
)

// NonFiniteError reports a binding set for which the formula evaluated to
// NaN or an infinity.
type NonFiniteError struct {
	Index int // position in the bindings passed to EvalAll
	Value float64
}

func (e *NonFiniteError) Error() string {
	return fmt.Sprintf("formula: result %d is %v", e.Index, e.Value)
}

// Is reports whether target is ErrNonFinite.
func (e *NonFiniteError) Is(target error) bool {
	return target == ErrNonFinite
}

// FormulaError is a parse or runtime error in user code.
type FormulaError struct {
	Line    int
	Message string
}

func (e *FormulaError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Evaluator runs formulas. The zero value is not usable; call NewEvaluator.
// It holds no interpreter state and is safe for concurrent use.
type Evaluator struct {
	Timeout time.Duration
}

// NewEvaluator returns an Evaluator with DefaultTimeout.
func NewEvaluator() *Evaluator {
	return &Evaluator{Timeout: DefaultTimeout}
}

// Eval evaluates expr with vars bound as global definitions and returns the
// numeric result.
//
// Return semantics:
//   - On success: value + nil
//   - On parse/eval failure or non-numeric result: 0 + *FormulaError
//   - On a NaN or infinite result: 0 + *NonFiniteError
//   - On timeout or interpreter panic: 0 + fatal error
func (e *Evaluator) Eval(expr string, vars map[string]float64) (float64, error) {
	vals, err := e.EvalAll(expr, []map[string]float64{vars})
	if err != nil {
		return 0, err
	}
	return vals[0], nil
}

// EvalAll evaluates expr once per binding set. Bindings are batched into a
// shared program so a large field does not pay for one interpreter per
// value. The result has one entry per binding. A NaN or infinite result
// fails the whole call with a *NonFiniteError.
func (e *Evaluator) EvalAll(expr string, bindings []map[string]float64) ([]float64, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, ErrEmptyFormula
	}
	out := make([]float64, 0, len(bindings))
	for start := 0; start < len(bindings); start += batchSize {
		end := min(start+batchSize, len(bindings))
		src, err := batchSource(expr, bindings[start:end])
		if err != nil {
			return nil, err
		}
		vals, err := e.run(src, end-start)
		if err != nil {
			return nil, err
		}
		for i, v := range vals {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &NonFiniteError{Index: start + i, Value: v}
			}
		}
		out = append(out, vals...)
	}
	return out, nil
}

// run evaluates src in a goroutine bounded by the evaluator's timeout.
func (e *Evaluator) run(src string, n int) ([]float64, error) {
	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("formula: panic during evaluation: %v", r)}
			}
		}()

		vals, err := evaluate(src, n)
		ch <- evalResult{values: vals, err: err}
	}()

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return waitWithTimeout(ch, timeout)
}

// evaluate performs the zygomys evaluation in a fresh sandbox. The program
// ends in a list of n result symbols.
func evaluate(src string, n int) ([]float64, error) {
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerMath(env)

	if err := env.LoadString(src); err != nil {
		return nil, parseZygomysError(err)
	}
	res, err := env.Run()
	if err != nil {
		return nil, parseZygomysError(err)
	}

	items, err := sexpListToSlice(res)
	if err != nil {
		return nil, &FormulaError{Message: err.Error()}
	}
	if len(items) != n {
		return nil, &FormulaError{Message: fmt.Sprintf("expected %d results, got %d", n, len(items))}
	}
	vals := make([]float64, n)
	for i, it := range items {
		f, err := toFloat64(it)
		if err != nil {
			return nil, &FormulaError{Message: err.Error()}
		}
		vals[i] = f
	}
	return vals, nil
}

// batchSource builds one program that binds each variable set, stores the
// expression's value, and finally lists every stored value. The user
// expression starts on its own line so reported line numbers stay useful
// in the single-binding case.
func batchSource(expr string, bindings []map[string]float64) (string, error) {
	var b strings.Builder
	b.WriteString(constantDefs)
	for i, vars := range bindings {
		names := make([]string, 0, len(vars))
		for name := range vars {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			if err := checkVariable(name); err != nil {
				return "", &FormulaError{Message: err.Error()}
			}
			lit, err := floatLiteral(vars[name])
			if err != nil {
				return "", &FormulaError{Message: fmt.Sprintf("variable %s: %v", name, err)}
			}
			fmt.Fprintf(&b, "(def %s %s) ", name, lit)
		}
		fmt.Fprintf(&b, "(def %s%d\n%s\n)\n", resultPrefix, i, expr)
	}
	b.WriteString("(list")
	for i := range bindings {
		fmt.Fprintf(&b, " %s%d", resultPrefix, i)
	}
	b.WriteString(")\n")
	return b.String(), nil
}

// floatLiteral renders v so the interpreter reads it back as a float.
func floatLiteral(v float64) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", fmt.Errorf("non-finite value %v", v)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s, nil
}

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into a FormulaError, extracting
// line information where the message carries it.
func parseZygomysError(err error) *FormulaError {
	msg := err.Error()

	for _, p := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := p.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return &FormulaError{Line: line, Message: strings.TrimSpace(m[2])}
		}
	}
	return &FormulaError{Message: strings.TrimSpace(msg)}
}
