// Package interp is the Velox tree-walking interpreter: it walks an
// ast.Node program against a scope.Scope chain, producing and mutating
// value.Value runtime values.
package interp

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/veloxlang/velox/pkgs/ast"
	"github.com/veloxlang/velox/pkgs/parser"
	"github.com/veloxlang/velox/pkgs/scope"
	"github.com/veloxlang/velox/pkgs/value"
)

// ExitType is what a statement's execution produced. Enclosing blocks
// propagate anything non-void outward; loops consume break/continue and
// function calls consume return.
type ExitType int

const (
	ExitVoid ExitType = iota
	ExitReturn
	ExitBreak
	ExitContinue
)

// Importer resolves an `import "file"` statement to a parsed AST,
// relative to the importing script's own path. Returning (nil, nil)
// means not-found.
type Importer interface {
	Resolve(filename, originPath string) (*ast.Node, error)
}

// Interpreter holds the live scope chain and return stack for one
// execution of a Velox program. Evaluation is single-threaded and
// synchronous; an Interpreter is not safe for concurrent use, though a
// hook may re-enter it from within a call.
type Interpreter struct {
	root        *scope.Scope
	current     *scope.Scope
	returnStack []*value.Value
	printFn     func(string)
	warnFn      func(string)
	importer    Importer
	originPath  string
}

// New builds an Interpreter with a fresh root scope, the standard hooks
// and constants, and the stdlib script functions (max, min, abs)
// pre-registered. printFn/warnFn default to no-ops when nil.
func New(importer Importer, printFn, warnFn func(string)) (*Interpreter, error) {
	if printFn == nil {
		printFn = func(string) {}
	}
	if warnFn == nil {
		warnFn = func(string) {}
	}
	root := scope.New(nil, false)
	i := &Interpreter{root: root, current: root, importer: importer, printFn: printFn, warnFn: warnFn}
	i.registerConstants()
	i.registerHooks()
	if err := i.registerStdlib(); err != nil {
		return nil, err
	}
	return i, nil
}

// SetOriginPath records the path of the script being run, used to resolve
// relative import paths.
func (i *Interpreter) SetOriginPath(p string) { i.originPath = p }

// RootScope exposes the root scope for host code that wants to pre-seed
// additional globals before Run.
func (i *Interpreter) RootScope() *scope.Scope { return i.root }

func (i *Interpreter) registerConstants() {
	i.root.Rebind("PI", value.NewReal(math.Pi))
	i.root.Rebind("E", value.NewReal(math.E))
	i.root.Rebind("MAX_INT", value.NewInt(math.MaxInt64))
	i.root.Rebind("MIN_INT", value.NewInt(math.MinInt64))
	i.root.Rebind("NULL", value.NewUndefined())
}

const stdlibSource = `
function max(a, b) { if (a > b) { return a; } return b; }
function min(a, b) { if (a < b) { return a; } return b; }
function abs(a) { if (a < 0) { return -a; } return a; }
`

// registerStdlib parses the small library of built-in script functions
// with this module's own parser, then hoists them into the root scope —
// the same function-lookahead mechanism user scripts go through.
func (i *Interpreter) registerStdlib() error {
	prog, err := parser.Parse(stdlibSource)
	if err != nil {
		return err
	}
	return i.functionLookahead(prog.Children, false)
}

func oneArgHook(name string, fn func(float64) float64) *value.Value {
	return value.NewHook(&value.HookImpl{
		Name: name, Params: []string{"x"},
		Invoke: func(s interface{}) (*value.Value, error) {
			sc := s.(*scope.Scope)
			x, err := sc.RealOr("x", 0)
			if err != nil {
				return nil, err
			}
			return value.NewReal(fn(x)), nil
		},
	})
}

// registerHooks wires the built-in hook library: the math functions,
// real/int conversions, sign, and the random/randomInt generators.
func (i *Interpreter) registerHooks() {
	unary := map[string]func(float64) float64{
		"sqrt": math.Sqrt, "sin": math.Sin, "cos": math.Cos, "tan": math.Tan,
		"atan": math.Atan, "floor": math.Floor, "ceil": math.Ceil, "log": math.Log,
		"toDegrees": func(r float64) float64 { return r * 180 / math.Pi },
		"toRadians": func(d float64) float64 { return d * math.Pi / 180 },
	}
	for name, fn := range unary {
		i.root.Rebind(name, oneArgHook(name, fn))
	}

	i.root.Rebind("atan2", value.NewHook(&value.HookImpl{
		Name: "atan2", Params: []string{"y", "x"},
		Invoke: func(s interface{}) (*value.Value, error) {
			sc := s.(*scope.Scope)
			y, err := sc.RealOr("y", 0)
			if err != nil {
				return nil, err
			}
			x, err := sc.RealOr("x", 0)
			if err != nil {
				return nil, err
			}
			return value.NewReal(math.Atan2(y, x)), nil
		},
	}))

	i.root.Rebind("pow", value.NewHook(&value.HookImpl{
		Name: "pow", Params: []string{"base", "exp"},
		Invoke: func(s interface{}) (*value.Value, error) {
			sc := s.(*scope.Scope)
			base, err := sc.RealOr("base", 0)
			if err != nil {
				return nil, err
			}
			exp, err := sc.RealOr("exp", 0)
			if err != nil {
				return nil, err
			}
			return value.NewReal(math.Pow(base, exp)), nil
		},
	}))

	i.root.Rebind("real", oneArgHook("real", func(x float64) float64 { return x }))

	i.root.Rebind("int", value.NewHook(&value.HookImpl{
		Name: "int", Params: []string{"x"},
		Invoke: func(s interface{}) (*value.Value, error) {
			sc := s.(*scope.Scope)
			x, err := sc.IntOr("x", 0)
			if err != nil {
				return nil, err
			}
			return value.NewInt(x), nil
		},
	}))

	i.root.Rebind("sign", value.NewHook(&value.HookImpl{
		Name: "sign", Params: []string{"x"},
		Invoke: func(s interface{}) (*value.Value, error) {
			sc := s.(*scope.Scope)
			x, err := sc.RealOr("x", 0)
			if err != nil {
				return nil, err
			}
			switch {
			case x > 0:
				return value.NewInt(1), nil
			case x < 0:
				return value.NewInt(-1), nil
			default:
				return value.NewInt(0), nil
			}
		},
	}))

	i.root.Rebind("random", value.NewHook(&value.HookImpl{
		Name: "random", Params: nil,
		Invoke: func(s interface{}) (*value.Value, error) {
			return value.NewReal(rand.Float64()), nil
		},
	}))

	i.root.Rebind("randomInt", value.NewHook(&value.HookImpl{
		Name: "randomInt", Params: []string{"bound"},
		Invoke: func(s interface{}) (*value.Value, error) {
			sc := s.(*scope.Scope)
			bound, err := sc.IntAtLeast("bound", 1, 1)
			if err != nil {
				return nil, err
			}
			return value.NewInt(rand.Int63n(bound)), nil
		},
	}))
}

// Run hoists then executes prog's top-level statement sequence directly
// in the root scope.
func (i *Interpreter) Run(prog *ast.Node) error {
	if err := i.functionLookahead(prog.Children, false); err != nil {
		return err
	}
	_, err := i.interpretSequence(prog.Children)
	return err
}

func (i *Interpreter) pushScope(block bool) { i.current = scope.New(i.current, block) }
func (i *Interpreter) popScope()            { i.current = i.current.DetachFromParent() }

func (i *Interpreter) pushReturn()           { i.returnStack = append(i.returnStack, value.NewUndefined()) }
func (i *Interpreter) setReturn(v *value.Value) { i.returnStack[len(i.returnStack)-1] = v }
func (i *Interpreter) popReturn() *value.Value {
	v := i.returnStack[len(i.returnStack)-1]
	i.returnStack = i.returnStack[:len(i.returnStack)-1]
	return v
}

func (i *Interpreter) emitWarning(msg string, line int) {
	i.warnFn(fmt.Sprintf("%s (line %d)", msg, line))
}

// suggest picks the closest fuzzy match to name among candidates, for
// "unknown X, did you mean Y?" diagnostics. Returns "" when candidates is
// empty or nothing ranks.
func suggest(name string, candidates []string) string {
	ranks := fuzzy.RankFindNormalizedFold(name, candidates)
	if len(ranks) == 0 {
		return ""
	}
	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return best.Target
}

// invokeFunc lets value.Stringify call back into the interpreter to run an
// object's toString attribute.
func (i *Interpreter) invokeFunc(fn *value.Value) (*value.Value, error) {
	d := value.Deref(fn)
	switch d.Kind {
	case value.Function:
		return i.callFunction(d, nil)
	case value.Hook:
		return i.callHook(d, nil)
	default:
		return nil, fmt.Errorf("value of type %s is not callable", d.Kind)
	}
}

// functionLookahead is the hoisting pre-pass: every top-level
// FUNCTION_DECLARATION/CLASS_DECLARATION in stmts is bound into the
// current scope before any statement runs. Rebind (not PutItem) is used
// deliberately: a script is allowed to shadow a pre-registered stdlib
// name (max/min/abs) or redeclare across repeated calls to the same
// function body without tripping PutItem's ambiguity check.
//
// inner marks whether the hoisted functions are nested inside another
// function's body (true, when this runs as part of a call's body
// pre-pass) versus declared at program top level or inside an import
// (false) — only inner functions pick up a closure at return time.
func (i *Interpreter) functionLookahead(stmts []*ast.Node, inner bool) error {
	for _, stmt := range stmts {
		switch stmt.Kind {
		case ast.FunctionDeclaration:
			i.current.Rebind(stmt.Str, value.NewFunction(stmt, inner))
		case ast.ClassDeclaration:
			i.current.Rebind(stmt.Str, value.NewClass(stmt))
		}
	}
	return nil
}
