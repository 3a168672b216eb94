package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/veloxlang/velox/pkgs/ast"
	"github.com/veloxlang/velox/pkgs/source"
)

func TestParseLiteralsAndArithmetic(t *testing.T) {
	prog, err := Parse(`1 + 2 * 3;`)
	require.NoError(t, err)
	require.Equal(t, ast.Program, prog.Kind)
	require.Equal(t, 1, prog.NumChildren())

	add := prog.Child(0)
	require.Equal(t, ast.Add, add.Kind)
	require.Equal(t, ast.IntLiteral, add.Child(0).Kind)
	require.Equal(t, int64(1), add.Child(0).Int)

	mul := add.Child(1)
	require.Equal(t, ast.Mul, mul.Kind)
	require.Equal(t, int64(2), mul.Child(0).Int)
	require.Equal(t, int64(3), mul.Child(1).Int)
}

func TestParseAssignmentAndSelectorChain(t *testing.T) {
	prog, err := Parse(`x.y[0] = f(1, 2);`)
	require.NoError(t, err)
	assign := prog.Child(0)
	require.Equal(t, ast.Assign, assign.Kind)

	lhs := assign.Child(0)
	require.Equal(t, ast.ArrayAccess, lhs.Kind)
	fa := lhs.Child(0)
	require.Equal(t, ast.FieldAccess, fa.Kind)
	require.Equal(t, "y", fa.Str)
	require.Equal(t, ast.SimpleName, fa.Child(0).Kind)
	require.Equal(t, "x", fa.Child(0).Str)

	call := assign.Child(1)
	require.Equal(t, ast.FunctionCall, call.Kind)
	require.Equal(t, ast.SimpleName, call.Child(0).Kind)
	require.Equal(t, "f", call.Child(0).Str)
	require.Equal(t, ast.ActualParams, call.Child(1).Kind)
	require.Equal(t, 2, call.Child(1).NumChildren())
}

func TestParseAssignmentRejectsBadLHS(t *testing.T) {
	_, err := Parse(`1 + 2 = 3;`)
	require.Error(t, err)
}

func TestParseIfWhileFor(t *testing.T) {
	prog, err := Parse(`
		if (x < 10) { print x; } else { print y; }
		while (true) { x = x + 1; }
		for (i = 0; i < 10; i = i + 1) { print i; }
	`)
	require.NoError(t, err)
	require.Equal(t, 3, prog.NumChildren())

	ifNode := prog.Child(0)
	require.Equal(t, ast.If, ifNode.Kind)
	require.Equal(t, 3, ifNode.NumChildren())
	require.Equal(t, ast.LessThan, ifNode.Child(0).Kind)

	whileNode := prog.Child(1)
	require.Equal(t, ast.While, whileNode.Kind)

	forNode := prog.Child(2)
	require.Equal(t, ast.For, forNode.Kind)
	require.Equal(t, ast.ForInitializer, forNode.Child(0).Kind)
	require.Equal(t, ast.ForUpdater, forNode.Child(2).Kind)
}

func TestParseFunctionAndClassDeclaration(t *testing.T) {
	prog, err := Parse(`
		function add(a, b) { return a + b; }
		class Point {
			function Point(x, y) { this.x = x; this.y = y; }
		}
	`)
	require.NoError(t, err)
	require.Equal(t, 2, prog.NumChildren())

	fn := prog.Child(0)
	require.Equal(t, ast.FunctionDeclaration, fn.Kind)
	require.Equal(t, "add", fn.Str)
	require.Equal(t, ast.FormalParams, fn.Child(0).Kind)
	require.Equal(t, 2, fn.Child(0).NumChildren())

	cls := prog.Child(1)
	require.Equal(t, ast.ClassDeclaration, cls.Kind)
	require.Equal(t, "Point", cls.Str)
	require.Equal(t, 1, cls.NumChildren())
	require.Equal(t, ast.FunctionDeclaration, cls.Child(0).Kind)
}

func TestParseUnaryAndPostfix(t *testing.T) {
	prog, err := Parse(`-x; !done; i++; --j;`)
	require.NoError(t, err)
	require.Equal(t, 4, prog.NumChildren())
	require.Equal(t, ast.UnaryMinus, prog.Child(0).Kind)
	require.Equal(t, ast.Not, prog.Child(1).Kind)
	require.Equal(t, ast.PostIncrement, prog.Child(2).Kind)
	require.Equal(t, ast.PreDecrement, prog.Child(3).Kind)
}

func TestParseArrayLiteralAndNew(t *testing.T) {
	prog, err := Parse(`arr = [1, 2, 3]; p = new Point(1, 2);`)
	require.NoError(t, err)
	arrAssign := prog.Child(0)
	arrLit := arrAssign.Child(1)
	require.Equal(t, ast.ArrayLiteral, arrLit.Kind)
	require.Equal(t, 3, arrLit.NumChildren())

	newAssign := prog.Child(1)
	newNode := newAssign.Child(1)
	require.Equal(t, ast.NewExpr, newNode.Kind)
	require.Equal(t, "Point", newNode.Str)
	require.Equal(t, ast.ActualParams, newNode.Child(0).Kind)
}

func TestParseGlobalAndImport(t *testing.T) {
	prog, err := Parse(`global.count = global.count + 1; import "lib.velox";`)
	require.NoError(t, err)
	assign := prog.Child(0)
	require.Equal(t, ast.Global, assign.Child(0).Kind)
	require.Equal(t, "count", assign.Child(0).Str)

	imp := prog.Child(1)
	require.Equal(t, ast.Import, imp.Kind)
	require.Equal(t, "lib.velox", imp.Str)
}

func TestParseLogicalPrecedence(t *testing.T) {
	prog, err := Parse(`a || b && c == d;`)
	require.NoError(t, err)
	or := prog.Child(0)
	require.Equal(t, ast.LogOr, or.Kind)
	and := or.Child(1)
	require.Equal(t, ast.LogAnd, and.Kind)
	require.Equal(t, ast.Equal, and.Child(1).Kind)
}

func TestParseAnonymousFunctionExpression(t *testing.T) {
	prog, err := Parse(`f = function(x) { return x; };`)
	require.NoError(t, err)
	assign := prog.Child(0)
	fn := assign.Child(1)
	require.Equal(t, ast.FunctionDeclaration, fn.Kind)
	require.Equal(t, "", fn.Str)
	require.Equal(t, ast.FormalParams, fn.Child(0).Kind)
	require.Equal(t, 1, fn.Child(0).NumChildren())
}

func TestParseUnterminatedBlockErrors(t *testing.T) {
	_, err := Parse(`function f() { return 1;`)
	require.Error(t, err)
}

func TestTokenizeMixedInput(t *testing.T) {
	toks, err := Tokenize("abc 12 3.5 \"hi\\n\" +==")
	require.NoError(t, err)

	kinds := make([]Kind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	require.Equal(t, []Kind{IDENT, INTEGER, REAL, STRING, ASSIGN_ADD, ASSIGN, EOS}, kinds)
	require.Equal(t, "abc", toks[0].Str)
	require.Equal(t, int64(12), toks[1].Int)
	require.InDelta(t, 3.5, toks[2].Real, 1e-9)
	require.Equal(t, "hi\n", toks[3].Str)
}

// The token stream of a script and the token stream replayed from its
// serialized memento must be identical, and parsing the replayed stream
// must produce the same tree as parsing the text.
func TestMementoReplayMatchesDirectParse(t *testing.T) {
	const src = `
		function area(r) { return PI * r * r; }
		print "a=" + area(2.5);
	`

	direct, err := Parse(src)
	require.NoError(t, err)

	m, err := RecordTokens(src)
	require.NoError(t, err)
	data, err := m.Marshal()
	require.NoError(t, err)
	decoded, err := source.UnmarshalMemento(data)
	require.NoError(t, err)

	replayed, err := ParseMemento(decoded)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(direct, replayed))
}
