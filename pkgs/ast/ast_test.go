package ast

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	require.Equal(t, "ADDITION", Add.String())
	require.Equal(t, "FUNCTION_DECLARATION", FunctionDeclaration.String())
	require.Contains(t, Kind(9999).String(), "KIND(")
}

func TestNodeConstruction(t *testing.T) {
	pos := Position{Line: 3, Column: 1, Offset: 20}
	n := NewInt(pos, 42)
	require.Equal(t, IntLiteral, n.Kind)
	require.Equal(t, int64(42), n.Int)
	require.Equal(t, pos, n.Pos)

	b := NewBool(pos, true)
	require.True(t, b.Bool())
	require.False(t, NewBool(pos, false).Bool())
}

func TestChildManagement(t *testing.T) {
	root := New(Block, Position{})
	root.AddChild(NewInt(Position{}, 1))
	root.AddChild(NewInt(Position{}, 2))
	require.Equal(t, 2, root.NumChildren())
	require.Equal(t, int64(2), root.Child(1).Int)
	require.Nil(t, root.Child(5))
}

func TestDump(t *testing.T) {
	n := New(Add, Position{Line: 1}, NewInt(Position{}, 1), NewInt(Position{}, 2))
	out := Dump(n)
	require.True(t, strings.Contains(out, "Kind"))
}
