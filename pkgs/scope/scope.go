// Package scope implements the Velox scope chain: a name-to-value
// environment with a distinguished block/function split, used for both
// lexical lookup and closure capture.
package scope

import (
	"fmt"

	"github.com/veloxlang/velox/pkgs/value"
)

// Scope is one link in the scope chain: a binding map plus an optional
// parent and a flag marking it as a block scope (as opposed to a function
// scope, which terminates the local-lookup walk).
type Scope struct {
	parent    *Scope
	items     map[string]*value.Value
	anonymous []*value.Value
	block     bool
}

// New creates a scope with the given parent (nil for a root scope).
func New(parent *Scope, block bool) *Scope {
	return &Scope{parent: parent, items: map[string]*value.Value{}, block: block}
}

func (s *Scope) HasParent() bool { return s.parent != nil }

// SetParent reparents s, used when a function call pushes a fresh
// function scope in front of the caller's current scope.
func (s *Scope) SetParent(parent *Scope) { s.parent = parent }

// DetachFromParent removes and returns s's parent, used when restoring
// the caller's scope after a call returns.
func (s *Scope) DetachFromParent() *Scope {
	p := s.parent
	s.parent = nil
	return p
}

// Root walks to the outermost scope.
func (s *Scope) Root() *Scope {
	if s.parent != nil {
		return s.parent.Root()
	}
	return s
}

// Level returns the scope's depth; the root scope is level 0.
func (s *Scope) Level() int {
	if s.parent != nil {
		return 1 + s.parent.Level()
	}
	return 0
}

func (s *Scope) IsBlock() bool { return s.block }

// HasItem reports whether name is visible anywhere up the chain.
func (s *Scope) HasItem(name string) bool {
	if _, ok := s.items[name]; ok {
		return true
	}
	return s.parent != nil && s.parent.HasItem(name)
}

// HasLocalItem searches this scope and, while scopes remain *block*
// scopes, their parents — stopping at the enclosing function scope. This
// is what decides whether a name assigned from a function body is a
// local shadow or reaches an outer (global) binding.
func (s *Scope) HasLocalItem(name string) bool {
	if _, ok := s.items[name]; ok {
		return true
	}
	if s.block && s.parent != nil {
		return s.parent.HasLocalItem(name)
	}
	return false
}

// FindItem performs an unrestricted upward walk, returning nil if name is
// bound nowhere in the chain.
func (s *Scope) FindItem(name string) *value.Value {
	if v, ok := s.items[name]; ok {
		return v
	}
	if s.parent == nil {
		return nil
	}
	return s.parent.FindItem(name)
}

// GetItem is FindItem with an error return when name is unbound.
func (s *Scope) GetItem(name string) (*value.Value, error) {
	v := s.FindItem(name)
	if v == nil {
		return nil, fmt.Errorf("unknown item %q", name)
	}
	return v, nil
}

// PutItem binds name to v in this scope. It is an error to rebind a name
// already locally visible (HasLocalItem).
func (s *Scope) PutItem(name string, v *value.Value) error {
	if s.HasLocalItem(name) {
		return fmt.Errorf("ambiguous item name %q", name)
	}
	s.items[name] = v
	return nil
}

// Rebind binds name to v unconditionally, bypassing PutItem's ambiguity
// check. Used by the interpreter's function-lookahead hoisting pass, which
// is allowed to (re)bind a top-level function/class name even if a
// same-named stdlib entry already occupies the root scope.
func (s *Scope) Rebind(name string, v *value.Value) {
	s.items[name] = v
}

// PutItemAnonymous keeps a temporary value alive for the lifetime of the
// current statement, without giving it a name.
func (s *Scope) PutItemAnonymous(v *value.Value) {
	s.anonymous = append(s.anonymous, v)
}

// Names returns every name visible from s, walking the full parent chain
// and de-duplicating shadowed bindings. Used only for diagnostics (e.g.
// "did you mean" suggestions) — never for lookup, which stays on
// HasItem/FindItem's exact semantics.
func (s *Scope) Names() []string {
	seen := map[string]bool{}
	for cur := s; cur != nil; cur = cur.parent {
		for name := range cur.items {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	return names
}

func (s *Scope) Clear() {
	s.items = map[string]*value.Value{}
	s.anonymous = nil
}

// cloneableForClosure reports whether a binding's value survives closure
// capture: scalars and reference-typed containers are copied in; function
// and class bindings are skipped to avoid capturing a definition's own
// enclosing scope and leaking a reference cycle. Lookups of a skipped
// name during a later invocation fall through to the root scope instead.
func cloneableForClosure(v *value.Value) bool {
	switch v.Kind {
	case value.Int, value.Real, value.Array, value.Object, value.Reference, value.String, value.Bool:
		return true
	default:
		return false
	}
}

// CreateClosure builds a fresh, parent-less scope holding clones of this
// scope's value-typed bindings, then, if this is a block scope, merges
// in the parent's bindings the same way, stopping at the first function
// scope.
func (s *Scope) CreateClosure() *Scope {
	result := New(nil, false)
	for name, v := range s.items {
		if cloneableForClosure(v) {
			result.items[name] = v.Clone()
		}
	}
	if s.block && s.parent != nil {
		s.parent.InjectItems(result)
	}
	return result
}

// InjectItems merges this scope's value-typed bindings into dst, recursing
// into the parent while this remains a block scope. Used both by
// CreateClosure and to splice a previously-captured closure's bindings
// into a freshly built function scope.
func (s *Scope) InjectItems(dst *Scope) {
	for name, v := range s.items {
		if cloneableForClosure(v) {
			dst.items[name] = v.Clone()
		}
	}
	if s.block && s.parent != nil {
		s.parent.InjectItems(dst)
	}
}

// --- bounded numeric accessors. Each pulls a named binding out of the
// scope, returning the given default when it is undefined; hooks use
// these to read optional, range-checked arguments. ---

func (s *Scope) IntOr(name string, def int64) (int64, error) {
	item, err := s.GetItem(name)
	if err != nil {
		return 0, err
	}
	if item.Kind == value.Undefined {
		return def, nil
	}
	return item.IntValue()
}

func (s *Scope) RealOr(name string, def float64) (float64, error) {
	item, err := s.GetItem(name)
	if err != nil {
		return 0, err
	}
	if item.Kind == value.Undefined {
		return def, nil
	}
	return item.RealValue()
}

func (s *Scope) StringOr(name string, def string) (string, error) {
	item, err := s.GetItem(name)
	if err != nil {
		return "", err
	}
	if item.Kind == value.Undefined {
		return def, nil
	}
	if item.Kind != value.String {
		return "", fmt.Errorf("%q is not a string", name)
	}
	return item.StrVal, nil
}

// IntAtLeast returns the named int, defaulting when undefined, and errors
// if the resolved value is below minValue.
func (s *Scope) IntAtLeast(name string, minValue, def int64) (int64, error) {
	item, err := s.GetItem(name)
	if err != nil {
		return 0, err
	}
	if item.Kind == value.Undefined {
		return def, nil
	}
	v, err := item.IntValue()
	if err != nil {
		return 0, err
	}
	if v < minValue {
		return 0, fmt.Errorf("%q must be greater or equal %d, got %d", name, minValue, v)
	}
	return v, nil
}

// RealWithinRange returns the named real, defaulting when undefined, and
// errors if the resolved value falls outside [min, max].
func (s *Scope) RealWithinRange(name string, min, max, def float64) (float64, error) {
	item, err := s.GetItem(name)
	if err != nil {
		return 0, err
	}
	if item.Kind == value.Undefined {
		return def, nil
	}
	v, err := item.RealValue()
	if err != nil {
		return 0, err
	}
	if v < min || v > max {
		return 0, fmt.Errorf("%q must be within interval [%g, %g], got %g", name, min, max, v)
	}
	return v, nil
}

// --- host-attachment accessors, the object counterpart of the bounded
// numeric getters: a hook pulls the opaque data a host attached to a
// named object argument. ---

// GetAttachable returns the host attachment carried by the named object
// binding. It is an error for the name to be unbound or for its value
// not to be an object (or a reference to one).
func (s *Scope) GetAttachable(name string) (any, error) {
	item, err := s.GetItem(name)
	if err != nil {
		return nil, err
	}
	return item.GetAttachable()
}

// FindAttachable returns the named binding's attachment, nil when its
// value is not an object. Unbound names are still an error.
func (s *Scope) FindAttachable(name string) (any, error) {
	item, err := s.GetItem(name)
	if err != nil {
		return nil, err
	}
	return item.FindAttachable(), nil
}

// HasAttachable reports whether name is bound to an object value that
// can carry an attachment.
func (s *Scope) HasAttachable(name string) bool {
	item := s.FindItem(name)
	return item != nil && item.HasAttachable()
}
