package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddPromotion(t *testing.T) {
	r, err := NewInt(1).Add(NewReal(2.5), nil)
	require.NoError(t, err)
	require.Equal(t, Real, r.Kind)
	require.InDelta(t, 3.5, r.RealVal, 1e-9)
}

func TestAddStringConcatenation(t *testing.T) {
	r, err := NewString("x=").Add(NewInt(7), nil)
	require.NoError(t, err)
	require.Equal(t, "x=7", r.StrVal)
}

func TestDivisionByZero(t *testing.T) {
	_, err := NewInt(1).Div(NewInt(0))
	require.Error(t, err)
}

func TestModReal(t *testing.T) {
	r, err := NewReal(5.5).Mod(NewReal(2))
	require.NoError(t, err)
	require.InDelta(t, 1.5, r.RealVal, 1e-9)
}

func TestReferenceTransparency(t *testing.T) {
	base := NewInt(42)
	ref := NewReference(base)
	eq, err := ref.Equal(base)
	require.NoError(t, err)
	require.True(t, eq.BoolVal)

	sum, err := ref.Add(NewInt(1), nil)
	require.NoError(t, err)
	require.Equal(t, int64(43), sum.IntVal)
}

func TestAssignFromScalarIsIndependentCopy(t *testing.T) {
	left := NewInt(1)
	right := NewInt(2)
	left.AssignFrom(right)
	require.Equal(t, int64(2), left.IntVal)

	right.IntVal = 99
	require.Equal(t, int64(2), left.IntVal)
}

func TestAssignFromArrayBecomesReference(t *testing.T) {
	left := NewInt(1)
	arr := NewArray()
	arr.AddArrayElem(NewInt(1))
	left.AssignFrom(arr)
	require.Equal(t, Reference, left.Kind)
	require.Same(t, arr, left.Ref)
}

func TestArrayAppendClonesScalarsReferencesContainers(t *testing.T) {
	arr := NewArray()
	result, err := arr.Add(NewInt(3), nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.NumArrayElems())
	elem, err := result.GetArrayElem(0)
	require.NoError(t, err)
	require.Equal(t, int64(3), elem.IntVal)

	inner := NewArray()
	result2, err := arr.Add(inner, nil)
	require.NoError(t, err)
	elem2, err := result2.GetArrayElem(0)
	require.NoError(t, err)
	require.Same(t, inner, elem2)
}

func TestPrefixPostfixIncrement(t *testing.T) {
	v := NewInt(5)
	pre, err := v.Inc()
	require.NoError(t, err)
	require.Equal(t, int64(6), pre.IntVal)

	post, err := v.DecPost()
	require.NoError(t, err)
	require.Equal(t, int64(6), post.IntVal)
	require.Equal(t, int64(5), v.IntVal)
}

func TestArrayEquality(t *testing.T) {
	a := NewArray()
	a.AddArrayElem(NewInt(1))
	b := NewArray()
	b.AddArrayElem(NewInt(1))
	eq, err := a.Equal(b)
	require.NoError(t, err)
	require.True(t, eq.BoolVal)
}

func TestObjectEqualityIsIdentity(t *testing.T) {
	a := NewObject()
	b := NewObject()
	eq, err := a.Equal(b)
	require.NoError(t, err)
	require.False(t, eq.BoolVal)

	eqSelf, err := a.Equal(a)
	require.NoError(t, err)
	require.True(t, eqSelf.BoolVal)
}

func TestStringifyArrayAndUndefined(t *testing.T) {
	arr := NewArray()
	arr.AddArrayElem(NewInt(1))
	arr.AddArrayElem(NewString("x"))
	s, err := Stringify(arr, nil)
	require.NoError(t, err)
	require.Equal(t, "[1, x]", s)

	s2, err := Stringify(NewUndefined(), nil)
	require.NoError(t, err)
	require.Equal(t, "UNDEFINED", s2)
}

func TestAttachableThroughReference(t *testing.T) {
	obj := NewObject()
	require.NoError(t, obj.SetAttachable("host-data"))

	ref := NewReference(obj)
	require.True(t, ref.HasAttachable())
	got, err := ref.GetAttachable()
	require.NoError(t, err)
	require.Equal(t, "host-data", got)
	require.Equal(t, "host-data", ref.FindAttachable())

	scalar := NewInt(1)
	require.Error(t, scalar.SetAttachable("x"))
	require.False(t, scalar.HasAttachable())
	require.Nil(t, scalar.FindAttachable())
	_, err = scalar.GetAttachable()
	require.Error(t, err)
}

func TestStringifyObjectToString(t *testing.T) {
	obj := NewObject()
	obj.AddAttribute("toString", NewHook(&HookImpl{Name: "toString"}))
	s, err := Stringify(obj, func(fn *Value) (*Value, error) {
		return NewString("custom"), nil
	})
	require.NoError(t, err)
	require.Equal(t, "custom", s)
}
