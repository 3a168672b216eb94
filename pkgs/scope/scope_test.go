package scope

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/veloxlang/velox/pkgs/value"
)

func TestLocalVsFullLookup(t *testing.T) {
	root := New(nil, false)
	require.NoError(t, root.PutItem("x", value.NewInt(1)))

	fn := New(root, false) // function scope: does not see root as "local"
	require.False(t, fn.HasLocalItem("x"))
	require.True(t, fn.HasItem("x"))

	block := New(fn, true) // block scope: sees through to the function scope
	require.NoError(t, block.PutItem("y", value.NewInt(2)))
	fnBlock := New(fn, true)
	_ = fnBlock
	require.True(t, block.HasLocalItem("y"))
}

func TestPutItemAmbiguous(t *testing.T) {
	s := New(nil, false)
	require.NoError(t, s.PutItem("x", value.NewInt(1)))
	require.Error(t, s.PutItem("x", value.NewInt(2)))
}

func TestCreateClosureSkipsFunctionsClonesValues(t *testing.T) {
	s := New(nil, false)
	require.NoError(t, s.PutItem("n", value.NewInt(7)))
	require.NoError(t, s.PutItem("f", value.NewFunction(nil, false)))

	closure := s.CreateClosure()
	require.True(t, closure.HasItem("n"))
	require.False(t, closure.HasItem("f"))

	n, err := closure.GetItem("n")
	require.NoError(t, err)
	require.Equal(t, int64(7), n.IntVal)

	// mutating the original after capture must not affect the closure
	orig, _ := s.GetItem("n")
	orig.IntVal = 99
	n2, _ := closure.GetItem("n")
	require.Equal(t, int64(7), n2.IntVal)
}

func TestBoundedAccessors(t *testing.T) {
	s := New(nil, false)
	require.NoError(t, s.PutItem("count", value.NewUndefined()))
	v, err := s.IntOr("count", 10)
	require.NoError(t, err)
	require.Equal(t, int64(10), v)

	require.NoError(t, s.PutItem("neg", value.NewInt(-1)))
	_, err = s.IntAtLeast("neg", 0, 0)
	require.Error(t, err)
}

func TestRootAndLevel(t *testing.T) {
	root := New(nil, false)
	child := New(root, true)
	grand := New(child, true)
	require.Same(t, root, grand.Root())
	require.Equal(t, 2, grand.Level())
}
