package formula

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Math functions
// ---------------------------------------------------------------------------

// unary and binary hold the math functions registered in every sandbox.
var (
	unary = map[string]func(float64) float64{
		"sin":   math.Sin,
		"cos":   math.Cos,
		"tan":   math.Tan,
		"asin":  math.Asin,
		"acos":  math.Acos,
		"atan":  math.Atan,
		"sqrt":  math.Sqrt,
		"exp":   math.Exp,
		"log":   math.Log,
		"abs":   math.Abs,
		"floor": math.Floor,
		"ceil":  math.Ceil,
	}
	binary = map[string]func(float64, float64) float64{
		"atan2": math.Atan2,
		"pow":   math.Pow,
		"min":   math.Min,
		"max":   math.Max,
	}
)

// constants are bound as globals ahead of user code.
var constants = map[string]float64{
	"pi":  math.Pi,
	"tau": 2 * math.Pi,
	"e":   math.E,
}

// constantDefs is the program prefix defining constants.
var constantDefs = func() string {
	names := make([]string, 0, len(constants))
	for name := range constants {
		names = append(names, name)
	}
	slices.Sort(names)
	var b strings.Builder
	for _, name := range names {
		lit, _ := floatLiteral(constants[name])
		fmt.Fprintf(&b, "(def %s %s) ", name, lit)
	}
	return b.String()
}()

// registerMath adds the math functions to env.
func registerMath(env *zygo.Zlisp) {
	for name, fn := range unary {
		env.AddFunction(name, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 1 {
				return zygo.SexpNull, fmt.Errorf("%s expects 1 argument, got %d", name, len(args))
			}
			x, err := toFloat64(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			return &zygo.SexpFloat{Val: fn(x)}, nil
		})
	}
	for name, fn := range binary {
		env.AddFunction(name, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 2 {
				return zygo.SexpNull, fmt.Errorf("%s expects 2 arguments, got %d", name, len(args))
			}
			x, err := toFloat64(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			y, err := toFloat64(args[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			return &zygo.SexpFloat{Val: fn(x, y)}, nil
		})
	}
}

// ---------------------------------------------------------------------------
// Free variables
// ---------------------------------------------------------------------------

// identPattern matches a formula identifier.
var identPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// reserved names are interpreter keywords and builtins. They never count
// as free variables and cannot be bound, since the sandbox refuses to
// redefine them.
var reserved = map[string]bool{}

func init() {
	for _, name := range []string{
		// special forms and literals
		"def", "defn", "defmac", "mdef", "fn", "let", "if", "cond", "and",
		"or", "not", "true", "false", "nil", "quote", "set", "begin",
		"progn", "for", "range", "while", "return", "break", "continue",
		"package", "import", "struct", "infix", "assert",
		// common builtins
		"len", "str", "list", "array", "hash", "cons", "car", "cdr",
		"first", "rest", "second", "append", "concat", "flatten", "slice",
		"map", "filter", "apply", "sort", "print", "println", "printf",
		"sym", "gensym", "type", "int", "float", "bool", "string", "char",
		"raw", "mod", "source", "exit", "timeit", "macexpand", "newScope",
	} {
		reserved[name] = true
	}
}

// Builtin reports whether name is a registered function, constant or
// language keyword.
func Builtin(name string) bool {
	if reserved[name] {
		return true
	}
	if _, ok := unary[name]; ok {
		return true
	}
	if _, ok := binary[name]; ok {
		return true
	}
	_, ok := constants[name]
	return ok
}

// checkVariable returns an error if name cannot be bound as a variable.
func checkVariable(name string) error {
	switch {
	case identPattern.FindString(name) != name:
		return fmt.Errorf("invalid variable name %q", name)
	case Builtin(name) || strings.HasPrefix(name, resultPrefix):
		return fmt.Errorf("reserved name %q cannot be used as a variable", name)
	}
	return nil
}

// Variables returns the sorted, de-duplicated free identifiers used across
// exprs. Identifiers glued to a number, such as the exponent in 1e5, are
// ignored.
func Variables(exprs ...string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, expr := range exprs {
		for _, loc := range identPattern.FindAllStringIndex(expr, -1) {
			if loc[0] > 0 {
				prev := expr[loc[0]-1]
				if (prev >= '0' && prev <= '9') || prev == '.' {
					continue
				}
			}
			name := expr[loc[0]:loc[1]]
			if Builtin(name) || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
