package interp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/veloxlang/velox/pkgs/ast"
	"github.com/veloxlang/velox/pkgs/diag"
	"github.com/veloxlang/velox/pkgs/parser"
	"github.com/veloxlang/velox/pkgs/scope"
	"github.com/veloxlang/velox/pkgs/value"
)

func run(t *testing.T, src string) (string, string) {
	t.Helper()
	var out, warnings []string
	terp, err := New(nil, func(s string) { out = append(out, s) }, func(s string) { warnings = append(warnings, s) })
	require.NoError(t, err)
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	require.NoError(t, terp.Run(prog))
	return strings.Join(out, "\n"), strings.Join(warnings, "\n")
}

func TestArithmeticAndPrint(t *testing.T) {
	out, _ := run(t, `print 1 + 2 * 3; print 10 / 4; print 10.0 / 4;`)
	require.Equal(t, "7\n2\n2.5", out)
}

func TestStringConcatAndStringify(t *testing.T) {
	out, _ := run(t, `print "x=" + 1; print "ok=" + true; print "u=" + undefined;`)
	require.Equal(t, "x=1\nok=true\nu=UNDEFINED", out)
}

func TestIfWhileFor(t *testing.T) {
	out, _ := run(t, `
		x = 0;
		for (i = 0; i < 5; i = i + 1) {
			if (i == 2) { continue; }
			if (i == 4) { break; }
			x = x + i;
		}
		print x;
	`)
	require.Equal(t, "4", out) // 0+1+3 = 4 (2 skipped, 4 breaks before add)
}

func TestFunctionCallAndReturn(t *testing.T) {
	out, _ := run(t, `
		function add(a, b) { return a + b; }
		print add(3, 4);
	`)
	require.Equal(t, "7", out)
}

func TestStdlibMaxMinAbs(t *testing.T) {
	out, _ := run(t, `print max(3, 7); print min(3, 7); print abs(-5);`)
	require.Equal(t, "7\n3\n5", out)
}

func TestClosureCapture(t *testing.T) {
	out, _ := run(t, `
		function makeAdder(n) {
			function adder(x) { return x + n; }
			return adder;
		}
		add5 = makeAdder(5);
		print add5(10);
	`)
	require.Equal(t, "15", out)
}

func TestAnonymousFunctionClosure(t *testing.T) {
	out, _ := run(t, `
		function make() {
			x = 7;
			return function() { return x; };
		}
		print make()();
	`)
	require.Equal(t, "7", out)
}

func TestArraysAndFieldAccess(t *testing.T) {
	out, _ := run(t, `
		arr = [1, 2, 3];
		arr += 4;
		print arr;
		print arr[0];
		print arr.length;
	`)
	require.Equal(t, "[1, 2, 3, 4]\n1\n4", out)
}

func TestClassAndThis(t *testing.T) {
	out, _ := run(t, `
		class Point {
			function Point(x, y) { this.x = x; this.y = y; }
			function sum() { return this.x + this.y; }
		}
		p = new Point(2, 3);
		print p.sum();
	`)
	require.Equal(t, "5", out)
}

func TestArrayOutOfRangeErrors(t *testing.T) {
	terp, err := New(nil, nil, nil)
	require.NoError(t, err)
	prog, err := parser.Parse(`arr = [1]; print arr[5];`)
	require.NoError(t, err)
	require.Error(t, terp.Run(prog))
}

func TestDivisionByZeroErrors(t *testing.T) {
	terp, err := New(nil, nil, nil)
	require.NoError(t, err)
	prog, err := parser.Parse(`print 1 / 0;`)
	require.NoError(t, err)

	runErr := terp.Run(prog)
	require.Error(t, runErr)
	var re *diag.RuntimeError
	require.ErrorAs(t, runErr, &re)
	require.Contains(t, re.Message, "division by zero")
	require.Equal(t, 1, re.Line)
}

func TestHookMathFunctions(t *testing.T) {
	out, _ := run(t, `print floor(3.7); print pow(2, 10); print int(3.9);`)
	require.Equal(t, "3\n1024\n3", out)
}

type fakeImporter struct{ src string }

func (f *fakeImporter) Resolve(filename, originPath string) (*ast.Node, error) {
	return parser.Parse(f.src)
}

func TestImport(t *testing.T) {
	var out []string
	terp, err := New(&fakeImporter{src: `print "imported";`}, func(s string) { out = append(out, s) }, nil)
	require.NoError(t, err)
	prog, err := parser.Parse(`import "lib.velox";`)
	require.NoError(t, err)
	require.NoError(t, terp.Run(prog))
	require.Equal(t, []string{"imported"}, out)
}

// A host attaches opaque data to a script object through one hook and
// reads it back through another, without the script ever seeing it.
func TestHookAttachable(t *testing.T) {
	type session struct{ id int }
	var got *session

	terp, err := New(nil, nil, nil)
	require.NoError(t, err)
	root := terp.RootScope()

	root.Rebind("openSession", value.NewHook(&value.HookImpl{
		Name: "openSession", Params: []string{"obj"},
		Invoke: func(s interface{}) (*value.Value, error) {
			sc := s.(*scope.Scope)
			item, err := sc.GetItem("obj")
			if err != nil {
				return nil, err
			}
			return nil, value.Deref(item).SetAttachable(&session{id: 42})
		},
	}))
	root.Rebind("sessionOf", value.NewHook(&value.HookImpl{
		Name: "sessionOf", Params: []string{"obj"},
		Invoke: func(s interface{}) (*value.Value, error) {
			sc := s.(*scope.Scope)
			data, err := sc.GetAttachable("obj")
			if err != nil {
				return nil, err
			}
			got, _ = data.(*session)
			return nil, nil
		},
	}))

	prog, err := parser.Parse(`
		class Conn { }
		c = new Conn();
		openSession(c);
		sessionOf(c);
	`)
	require.NoError(t, err)
	require.NoError(t, terp.Run(prog))
	require.NotNil(t, got)
	require.Equal(t, 42, got.id)
}

func TestLogicalShortCircuit(t *testing.T) {
	out, _ := run(t, `
		function boom() { print "boom"; return true; }
		print false && boom();
		print true || boom();
	`)
	require.Equal(t, "false\ntrue", out)
}
