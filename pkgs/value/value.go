// Package value implements the Velox runtime value model: a tagged union
// over undefined, int, real, bool, string, function, class, object,
// reference, array and hook, with the operator and stringification
// semantics the interpreter dispatches through.
//
// A scope binding is a *Value and assignment mutates the pointee's fields
// in place (AssignFrom) rather than rebinding the slot, so every alias of
// a binding — references, object attributes — observes an assignment
// through any of them. A closure holds clones of the scalars it captured,
// so it does not see later assignments to them.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/veloxlang/velox/pkgs/ast"
	"github.com/veloxlang/velox/pkgs/diag"
)

// Kind tags a Value's effective representation.
type Kind int

const (
	Undefined Kind = iota
	Int
	Real
	Bool
	String
	Function
	Hook
	Class
	Object
	Reference
	Array
)

var kindNames = [...]string{
	Undefined: "UNDEFINED", Int: "INT", Real: "REAL", Bool: "BOOL",
	String: "STRING", Function: "FUNCTION", Hook: "HOOK", Class: "CLASS",
	Object: "OBJECT", Reference: "REFERENCE", Array: "ARRAY",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("KIND(%d)", int(k))
}

// HookImpl is a host-supplied built-in function: a name, a positional
// formal-parameter list, and an invocation callback receiving the
// function scope the interpreter has just built for the call. scope.Scope
// can't be named directly here without an import cycle (scope imports
// value for bindings); the interpreter supplies the concrete type and
// performs its own type assertion on the scope argument it passes in.
type HookImpl struct {
	Name   string
	Params []string
	Invoke func(scope interface{}) (*Value, error)
}

// InvokeFunc calls a script function or hook value with no arguments bound
// beyond what the callee already captured, used by stringification to
// resolve an object's toString attribute. The interpreter supplies this.
type InvokeFunc func(fn *Value) (*Value, error)

// Value is the single runtime value type shared by every Velox kind.
type Value struct {
	Kind Kind

	IntVal  int64
	RealVal float64
	BoolVal bool
	StrVal  string

	// Function/Class.
	FuncNode      *ast.Node
	InnerFunction bool
	Closure       interface{} // *scope.Scope, boxed to avoid an import cycle

	Hook *HookImpl

	// Object attributes / Array elements.
	Attrs map[string]*Value
	Elems []*Value

	// Reference target.
	Ref *Value

	// Object's enclosing instance, for `this` resolution inside methods.
	Parent *Value

	// Host opaque attachment, invisible to scripts; see SetAttachable.
	Attachable any
}

func NewUndefined() *Value { return &Value{Kind: Undefined} }
func NewInt(v int64) *Value { return &Value{Kind: Int, IntVal: v} }
func NewReal(v float64) *Value { return &Value{Kind: Real, RealVal: v} }
func NewBool(v bool) *Value { return &Value{Kind: Bool, BoolVal: v} }
func NewString(v string) *Value { return &Value{Kind: String, StrVal: v} }

func NewFunction(node *ast.Node, inner bool) *Value {
	return &Value{Kind: Function, FuncNode: node, InnerFunction: inner}
}

func NewClass(node *ast.Node) *Value { return &Value{Kind: Class, FuncNode: node} }

func NewObject() *Value { return &Value{Kind: Object, Attrs: map[string]*Value{}} }

func NewReference(target *Value) *Value { return &Value{Kind: Reference, Ref: target} }

func NewHook(h *HookImpl) *Value { return &Value{Kind: Hook, Hook: h} }

// NewArray creates an empty array. Arrays keep a live "length" attribute
// that AddArrayElem maintains.
func NewArray() *Value {
	v := &Value{Kind: Array, Attrs: map[string]*Value{}}
	v.Attrs["length"] = NewInt(0)
	return v
}

// deref follows a (possibly chained) Reference to its effective target.
// Every operator dereferences both operands before dispatching on kind.
func deref(v *Value) *Value {
	for v.Kind == Reference {
		v = v.Ref
	}
	return v
}

// XType returns v's effective type, dereferencing one or more Reference
// layers.
func (v *Value) XType() Kind { return deref(v).Kind }

// Deref exposes the dereference rule to callers outside this package —
// the interpreter needs it for field/array access and for distinguishing
// an array/object target from a scalar before dispatching.
func Deref(v *Value) *Value { return deref(v) }

// Clone copies v the way closure capture and the array `+` operator
// need: scalar kinds (Int/Real/Bool/String/Undefined) are independent
// copies, so a later reassignment of the original doesn't leak into the
// clone; Array/Object/Reference/Function/Class, being reference-typed in
// the language, return a new wrapper that shares the same underlying
// Attrs/Elems/Ref/FuncNode — mutations through either alias stay visible
// to both. An array clone is a Reference to v itself, because appending
// grows v's own element list.
func (v *Value) Clone() *Value {
	switch v.Kind {
	case Array:
		return &Value{Kind: Reference, Ref: v}
	case Object:
		return &Value{Kind: Object, Attrs: v.Attrs, Attachable: v.Attachable, Parent: v.Parent}
	case Reference:
		return &Value{Kind: Reference, Ref: v.Ref}
	case Function:
		return &Value{Kind: Function, FuncNode: v.FuncNode, InnerFunction: v.InnerFunction, Closure: v.Closure, Parent: v.Parent}
	case Class:
		return &Value{Kind: Class, FuncNode: v.FuncNode}
	default:
		nv := *v
		return &nv
	}
}

// AssignFrom implements `*left = *right`: scalars copy by value; function,
// hook, class, array, object and reference right-hand sides turn left
// into a Reference pointing at right; undefined collapses left to
// undefined regardless of its previous kind.
func (left *Value) AssignFrom(right *Value) {
	switch right.Kind {
	case Undefined:
		*left = Value{Kind: Undefined}
	case Int, Real, Bool, String:
		attrs, elems, parent, attachable := left.Attrs, left.Elems, left.Parent, left.Attachable
		*left = *right
		left.Attrs, left.Elems, left.Parent, left.Attachable = attrs, elems, parent, attachable
	default:
		*left = Value{Kind: Reference, Ref: right}
	}
}

// --- attributes (objects) ---

func (v *Value) HasAttribute(name string) bool {
	_, ok := v.Attrs[name]
	return ok
}

func (v *Value) GetAttribute(name string) *Value { return v.Attrs[name] }

func (v *Value) AddAttribute(name string, attr *Value) {
	if v.Attrs == nil {
		v.Attrs = map[string]*Value{}
	}
	v.Attrs[name] = attr
	attr.Parent = v
}

func (v *Value) HasParent() bool  { return v.Parent != nil }
func (v *Value) GetParent() *Value { return v.Parent }

// --- host attachments (objects) ---

// SetAttachable attaches opaque host data to an object value. Only an
// object carries an attachment; the caller dereferences first if it
// holds a reference.
func (v *Value) SetAttachable(data any) error {
	if v.Kind != Object {
		return fmt.Errorf("unable to set attachable, value of type %s is not an object", v.Kind)
	}
	v.Attachable = data
	return nil
}

// GetAttachable returns the host attachment, chasing references. A value
// that is neither an object nor a reference to one is an error.
func (v *Value) GetAttachable() (any, error) {
	d := deref(v)
	if d.Kind != Object {
		return nil, fmt.Errorf("value of type %s is not an object nor a reference to one", d.Kind)
	}
	return d.Attachable, nil
}

// FindAttachable is GetAttachable without the error: nil for any value
// that is not an object.
func (v *Value) FindAttachable() any {
	d := deref(v)
	if d.Kind != Object {
		return nil
	}
	return d.Attachable
}

// HasAttachable reports whether the value is an object (possibly through
// references) and can therefore carry an attachment.
func (v *Value) HasAttachable() bool { return deref(v).Kind == Object }

// --- array elements ---

func (v *Value) AddArrayElem(elem *Value) {
	v.Elems = append(v.Elems, elem)
	v.Attrs["length"] = NewInt(int64(len(v.Elems)))
}

func (v *Value) GetArrayElem(index int64) (*Value, error) {
	if index < 0 || index >= int64(len(v.Elems)) {
		return nil, fmt.Errorf("array index %d out of range [0, %d)", index, len(v.Elems))
	}
	return v.Elems[index], nil
}

func (v *Value) NumArrayElems() int { return len(v.Elems) }

// --- type-casting scalar accessors ---

func (v *Value) IntValue() (int64, error) {
	d := deref(v)
	switch d.Kind {
	case Int:
		return d.IntVal, nil
	case Real:
		return int64(d.RealVal), nil
	case Bool:
		if d.BoolVal {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("value of type %s has no integer representation", d.Kind)
}

func (v *Value) RealValue() (float64, error) {
	d := deref(v)
	switch d.Kind {
	case Real:
		return d.RealVal, nil
	case Int:
		return float64(d.IntVal), nil
	}
	return 0, fmt.Errorf("value of type %s has no real representation", d.Kind)
}

func (v *Value) BoolValue() (bool, error) {
	d := deref(v)
	if d.Kind != Bool {
		return false, fmt.Errorf("boolean expression expected, got %s", d.Kind)
	}
	return d.BoolVal, nil
}

// --- operators ---

func isNumeric(k Kind) bool { return k == Int || k == Real }

func promote(a, b *Value) (float64, float64, bool) {
	if a.Kind == Int && b.Kind == Int {
		return 0, 0, false
	}
	af, _ := a.RealValue()
	bf, _ := b.RealValue()
	return af, bf, true
}

// Add implements binary `+`: numeric promotion, string concatenation
// against the stringified other operand, or array append (cloning a
// value-typed element, referencing an object/array element).
func (v *Value) Add(other *Value, invoke InvokeFunc) (*Value, error) {
	a, b := deref(v), deref(other)

	if a.Kind == String || b.Kind == String {
		as, err := Stringify(a, invoke)
		if err != nil {
			return nil, err
		}
		bs, err := Stringify(b, invoke)
		if err != nil {
			return nil, err
		}
		return NewString(as + bs), nil
	}

	if a.Kind == Array {
		result := NewArray()
		result.Elems = append(result.Elems, a.Elems...)
		result.Attrs["length"] = NewInt(int64(len(result.Elems)))
		if b.Kind == Array || b.Kind == Object {
			result.AddArrayElem(b)
		} else {
			result.AddArrayElem(b.Clone())
		}
		return result, nil
	}

	if !isNumeric(a.Kind) || !isNumeric(b.Kind) {
		return nil, fmt.Errorf("cannot add values of type %s and %s", a.Kind, b.Kind)
	}
	if af, bf, real := promote(a, b); real {
		return NewReal(af + bf), nil
	}
	return NewInt(a.IntVal + b.IntVal), nil
}

func (v *Value) numericBinary(other *Value, name string, intOp func(a, b int64) (int64, error), realOp func(a, b float64) (float64, error)) (*Value, error) {
	a, b := deref(v), deref(other)
	if !isNumeric(a.Kind) || !isNumeric(b.Kind) {
		return nil, fmt.Errorf("cannot %s values of type %s and %s", name, a.Kind, b.Kind)
	}
	if af, bf, real := promote(a, b); real {
		r, err := realOp(af, bf)
		if err != nil {
			return nil, err
		}
		return NewReal(r), nil
	}
	r, err := intOp(a.IntVal, b.IntVal)
	if err != nil {
		return nil, err
	}
	return NewInt(r), nil
}

func (v *Value) Sub(other *Value) (*Value, error) {
	return v.numericBinary(other, "subtract",
		func(a, b int64) (int64, error) { return a - b, nil },
		func(a, b float64) (float64, error) { return a - b, nil })
}

func (v *Value) Mul(other *Value) (*Value, error) {
	return v.numericBinary(other, "multiply",
		func(a, b int64) (int64, error) { return a * b, nil },
		func(a, b float64) (float64, error) { return a * b, nil })
}

func (v *Value) Div(other *Value) (*Value, error) {
	return v.numericBinary(other, "divide",
		func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			return a / b, nil
		},
		func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			return a / b, nil
		})
}

func (v *Value) Mod(other *Value) (*Value, error) {
	return v.numericBinary(other, "take the modulo of",
		func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			return a % b, nil
		},
		func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			return math.Mod(a, b), nil
		})
}

func (v *Value) relational(other *Value, name string, intCmp func(a, b int64) bool, realCmp func(a, b float64) bool) (*Value, error) {
	a, b := deref(v), deref(other)
	if !isNumeric(a.Kind) || !isNumeric(b.Kind) {
		return nil, fmt.Errorf("relational operator %q requires numeric operands, got %s and %s", name, a.Kind, b.Kind)
	}
	if af, bf, real := promote(a, b); real {
		return NewBool(realCmp(af, bf)), nil
	}
	return NewBool(intCmp(a.IntVal, b.IntVal)), nil
}

func (v *Value) LessThan(other *Value) (*Value, error) {
	return v.relational(other, "<", func(a, b int64) bool { return a < b }, func(a, b float64) bool { return a < b })
}

func (v *Value) LessEqual(other *Value) (*Value, error) {
	return v.relational(other, "<=", func(a, b int64) bool { return a <= b }, func(a, b float64) bool { return a <= b })
}

func (v *Value) GreaterThan(other *Value) (*Value, error) {
	return v.relational(other, ">", func(a, b int64) bool { return a > b }, func(a, b float64) bool { return a > b })
}

func (v *Value) GreaterEqual(other *Value) (*Value, error) {
	return v.relational(other, ">=", func(a, b int64) bool { return a >= b }, func(a, b float64) bool { return a >= b })
}

// Equal implements `==`: identity for objects, element-wise recursive
// equality for arrays, value equality otherwise.
func (v *Value) Equal(other *Value) (*Value, error) {
	a, b := deref(v), deref(other)
	switch a.Kind {
	case Undefined:
		return NewBool(b.Kind == Undefined), nil
	case Int, Real:
		if !isNumeric(b.Kind) {
			return NewBool(false), nil
		}
		af, _ := a.RealValue()
		bf, _ := b.RealValue()
		return NewBool(af == bf), nil
	case Bool:
		return NewBool(b.Kind == Bool && a.BoolVal == b.BoolVal), nil
	case String:
		return NewBool(b.Kind == String && a.StrVal == b.StrVal), nil
	case Array:
		if b.Kind != Array || len(a.Elems) != len(b.Elems) {
			return NewBool(false), nil
		}
		for i := range a.Elems {
			eq, err := a.Elems[i].Equal(b.Elems[i])
			if err != nil {
				return nil, err
			}
			if !eq.BoolVal {
				return NewBool(false), nil
			}
		}
		return NewBool(true), nil
	case Function, Hook, Class, Object:
		return NewBool(a == b), nil
	default:
		return NewBool(a == b), nil
	}
}

func (v *Value) NotEqual(other *Value) (*Value, error) {
	eq, err := v.Equal(other)
	if err != nil {
		return nil, err
	}
	return NewBool(!eq.BoolVal), nil
}

// UnaryPlus, UnaryMinus and Not implement the unary `+`, `-`, `!` operators.
func (v *Value) UnaryPlus() (*Value, error) {
	a := deref(v)
	if !isNumeric(a.Kind) {
		return nil, fmt.Errorf("unary '+' requires a numeric operand, got %s", a.Kind)
	}
	return a.Clone(), nil
}

func (v *Value) UnaryMinus() (*Value, error) {
	a := deref(v)
	switch a.Kind {
	case Int:
		return NewInt(-a.IntVal), nil
	case Real:
		return NewReal(-a.RealVal), nil
	}
	return nil, fmt.Errorf("unary '-' requires a numeric operand, got %s", a.Kind)
}

func (v *Value) Not() (*Value, error) {
	b, err := v.BoolValue()
	if err != nil {
		return nil, err
	}
	return NewBool(!b), nil
}

// Inc/Dec mutate the dereferenced operand in place and return its new
// value (prefix semantics); IncPost/DecPost return the pre-mutation value.
func (v *Value) Inc() (*Value, error) {
	a := deref(v)
	switch a.Kind {
	case Int:
		a.IntVal++
	case Real:
		a.RealVal++
	default:
		return nil, fmt.Errorf("'++' requires an int or real operand, got %s", a.Kind)
	}
	return a, nil
}

func (v *Value) Dec() (*Value, error) {
	a := deref(v)
	switch a.Kind {
	case Int:
		a.IntVal--
	case Real:
		a.RealVal--
	default:
		return nil, fmt.Errorf("'--' requires an int or real operand, got %s", a.Kind)
	}
	return a, nil
}

func (v *Value) IncPost() (*Value, error) {
	a := deref(v)
	before := a.Clone()
	if _, err := v.Inc(); err != nil {
		return nil, err
	}
	return before, nil
}

func (v *Value) DecPost() (*Value, error) {
	a := deref(v)
	before := a.Clone()
	if _, err := v.Dec(); err != nil {
		return nil, err
	}
	return before, nil
}

// Stringify renders v for `print` and string concatenation, invoking an
// object's toString attribute through invoke when present.
func Stringify(v *Value, invoke InvokeFunc) (string, error) {
	a := deref(v)
	switch a.Kind {
	case Int:
		return strconv.FormatInt(a.IntVal, 10), nil
	case Real:
		return strconv.FormatFloat(a.RealVal, 'g', -1, 64), nil
	case Bool:
		if a.BoolVal {
			return "true", nil
		}
		return "false", nil
	case Undefined:
		return "UNDEFINED", nil
	case String:
		return a.StrVal, nil
	case Function:
		return fmt.Sprintf("func:%s", a.FuncNode.Str), nil
	case Hook:
		return fmt.Sprintf("hook:%s", a.Hook.Name), nil
	case Class:
		return fmt.Sprintf("class:%s", a.FuncNode.Str), nil
	case Array:
		parts := make([]string, len(a.Elems))
		for i, e := range a.Elems {
			s, err := Stringify(e, invoke)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case Object:
		if a.HasAttribute("toString") {
			attr := a.GetAttribute("toString")
			if attr.Kind == Function || attr.Kind == Hook {
				if invoke == nil {
					return "", diag.NewRuntimeError("object has a toString attribute but no interpreter was supplied to invoke it")
				}
				result, err := invoke(attr)
				if err != nil {
					return "", err
				}
				return Stringify(result, invoke)
			}
		}
		return "OBJ", nil
	default:
		return "", fmt.Errorf("value of type %s is not stringifiable", a.Kind)
	}
}
