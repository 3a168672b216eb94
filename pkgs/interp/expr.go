package interp

import (
	"fmt"

	"github.com/veloxlang/velox/pkgs/ast"
	"github.com/veloxlang/velox/pkgs/diag"
	"github.com/veloxlang/velox/pkgs/scope"
	"github.com/veloxlang/velox/pkgs/value"
)

func (i *Interpreter) evaluate(node *ast.Node) (*value.Value, error) {
	switch node.Kind {
	case ast.IntLiteral:
		return value.NewInt(node.Int), nil
	case ast.RealLiteral:
		return value.NewReal(node.Real), nil
	case ast.StringLiteral:
		return value.NewString(node.Str), nil
	case ast.BoolLiteral:
		return value.NewBool(node.Bool()), nil
	case ast.UndefinedLiteral:
		return value.NewUndefined(), nil
	case ast.ColorLiteral:
		return value.NewInt(node.Int), nil
	case ast.ArrayLiteral:
		return i.evaluateArrayInitializer(node)
	case ast.SimpleName:
		return i.evaluateSimpleName(node)
	case ast.Global:
		return i.evaluateGlobalSimpleName(node)
	case ast.Add, ast.Sub, ast.Mul, ast.Div, ast.Mod:
		return i.evaluateArithmetic(node)
	case ast.LogAnd, ast.LogOr:
		return i.evaluateLogical(node)
	case ast.Equal, ast.NotEqual, ast.LessThan, ast.LessEqual, ast.GreaterThan, ast.GreaterEqual:
		return i.evaluateRelation(node)
	case ast.UnaryPlus, ast.UnaryMinus, ast.Not:
		return i.evaluateUnary(node)
	case ast.PreIncrement, ast.PreDecrement:
		return i.evaluatePrefixIncDec(node)
	case ast.PostIncrement, ast.PostDecrement:
		return i.evaluatePostfixIncDec(node)
	case ast.Assign, ast.AssignAdd, ast.AssignSub, ast.AssignMul, ast.AssignDiv, ast.AssignMod:
		return i.evaluateAssignment(node)
	case ast.FieldAccess:
		return i.evaluateFieldAccess(node, false)
	case ast.ArrayAccess:
		return i.evaluateArrayAccess(node)
	case ast.FunctionCall:
		return i.evaluateFunctionCall(node)
	case ast.NewExpr:
		return i.evaluateObjectCreation(node)
	case ast.FunctionDeclaration:
		// A function expression evaluates to a fresh function value; it
		// counts as inner when it appears inside an active call, so a
		// closure is attached if it escapes via return or a hook argument.
		return value.NewFunction(node, len(i.returnStack) > 0), nil
	default:
		return nil, diag.NewRuntimeErrorAt(node.Pos.Line, "cannot evaluate node of kind %s", node.Kind)
	}
}

// evaluateLeftHandSide resolves node to a mutable *value.Value slot,
// auto-vivifying an undefined binding or attribute where one doesn't
// exist yet. Only the four node kinds the parser permits as an
// assignment target reach here.
func (i *Interpreter) evaluateLeftHandSide(node *ast.Node) (*value.Value, error) {
	switch node.Kind {
	case ast.SimpleName:
		return i.evaluateSimpleName(node)
	case ast.Global:
		return i.evaluateGlobalSimpleName(node)
	case ast.FieldAccess:
		return i.evaluateFieldAccess(node, true)
	case ast.ArrayAccess:
		return i.evaluateArrayAccess(node)
	default:
		return nil, diag.NewRuntimeErrorAt(node.Pos.Line, "invalid assignment target")
	}
}

// evaluateSimpleName returns an existing binding if one is visible
// anywhere up the chain (warning if it was only reachable by crossing a
// function-scope boundary, i.e. not HasLocalItem), else creates a fresh
// undefined in the local scope.
func (i *Interpreter) evaluateSimpleName(node *ast.Node) (*value.Value, error) {
	name := node.Str
	if i.current.HasItem(name) {
		v := i.current.FindItem(name)
		if !i.current.HasLocalItem(name) {
			i.emitWarning(fmt.Sprintf("reference to %q resolves outside the current function scope", name), node.Pos.Line)
		}
		return v, nil
	}
	v := value.NewUndefined()
	if err := i.current.PutItem(name, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (i *Interpreter) evaluateGlobalSimpleName(node *ast.Node) (*value.Value, error) {
	name := node.Str
	root := i.current.Root()
	if v := root.FindItem(name); v != nil {
		return v, nil
	}
	v := value.NewUndefined()
	if err := root.PutItem(name, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (i *Interpreter) evaluateArrayInitializer(node *ast.Node) (*value.Value, error) {
	arr := value.NewArray()
	for _, child := range node.Children {
		v, err := i.evaluate(child)
		if err != nil {
			return nil, err
		}
		d := value.Deref(v)
		if d.Kind == value.Array || d.Kind == value.Object {
			arr.AddArrayElem(d)
		} else {
			arr.AddArrayElem(d.Clone())
		}
	}
	return arr, nil
}

func (i *Interpreter) evaluateArithmetic(node *ast.Node) (*value.Value, error) {
	left, err := i.evaluate(node.Child(0))
	if err != nil {
		return nil, err
	}
	right, err := i.evaluate(node.Child(1))
	if err != nil {
		return nil, err
	}
	var result *value.Value
	switch node.Kind {
	case ast.Add:
		result, err = left.Add(right, i.invokeFunc)
	case ast.Sub:
		result, err = left.Sub(right)
	case ast.Mul:
		result, err = left.Mul(right)
	case ast.Div:
		result, err = left.Div(right)
	case ast.Mod:
		result, err = left.Mod(right)
	}
	if err != nil {
		return nil, diag.NewRuntimeErrorAt(node.Pos.Line, "%s", err)
	}
	return result, nil
}

// evaluateLogical implements && and || inline rather than through a
// value method: the right operand must not be evaluated at all when the
// left already determines the result.
func (i *Interpreter) evaluateLogical(node *ast.Node) (*value.Value, error) {
	left, err := i.evaluate(node.Child(0))
	if err != nil {
		return nil, err
	}
	lb, err := left.BoolValue()
	if err != nil {
		return nil, diag.NewRuntimeErrorAt(node.Pos.Line, "%s", err)
	}
	if node.Kind == ast.LogAnd && !lb {
		return value.NewBool(false), nil
	}
	if node.Kind == ast.LogOr && lb {
		return value.NewBool(true), nil
	}
	right, err := i.evaluate(node.Child(1))
	if err != nil {
		return nil, err
	}
	rb, err := right.BoolValue()
	if err != nil {
		return nil, diag.NewRuntimeErrorAt(node.Pos.Line, "%s", err)
	}
	return value.NewBool(rb), nil
}

func (i *Interpreter) evaluateRelation(node *ast.Node) (*value.Value, error) {
	left, err := i.evaluate(node.Child(0))
	if err != nil {
		return nil, err
	}
	right, err := i.evaluate(node.Child(1))
	if err != nil {
		return nil, err
	}
	var result *value.Value
	switch node.Kind {
	case ast.Equal:
		result, err = left.Equal(right)
	case ast.NotEqual:
		result, err = left.NotEqual(right)
	case ast.LessThan:
		result, err = left.LessThan(right)
	case ast.LessEqual:
		result, err = left.LessEqual(right)
	case ast.GreaterThan:
		result, err = left.GreaterThan(right)
	case ast.GreaterEqual:
		result, err = left.GreaterEqual(right)
	}
	if err != nil {
		return nil, diag.NewRuntimeErrorAt(node.Pos.Line, "%s", err)
	}
	return result, nil
}

func (i *Interpreter) evaluateUnary(node *ast.Node) (*value.Value, error) {
	operand, err := i.evaluate(node.Child(0))
	if err != nil {
		return nil, err
	}
	var result *value.Value
	switch node.Kind {
	case ast.UnaryPlus:
		result, err = operand.UnaryPlus()
	case ast.UnaryMinus:
		result, err = operand.UnaryMinus()
	case ast.Not:
		result, err = operand.Not()
	}
	if err != nil {
		return nil, diag.NewRuntimeErrorAt(node.Pos.Line, "%s", err)
	}
	return result, nil
}

func (i *Interpreter) evaluatePrefixIncDec(node *ast.Node) (*value.Value, error) {
	slot, err := i.evaluateLeftHandSide(node.Child(0))
	if err != nil {
		return nil, err
	}
	if node.Kind == ast.PreIncrement {
		v, err := slot.Inc()
		if err != nil {
			return nil, diag.NewRuntimeErrorAt(node.Pos.Line, "%s", err)
		}
		return v, nil
	}
	v, err := slot.Dec()
	if err != nil {
		return nil, diag.NewRuntimeErrorAt(node.Pos.Line, "%s", err)
	}
	return v, nil
}

func (i *Interpreter) evaluatePostfixIncDec(node *ast.Node) (*value.Value, error) {
	slot, err := i.evaluateLeftHandSide(node.Child(0))
	if err != nil {
		return nil, err
	}
	if node.Kind == ast.PostIncrement {
		v, err := slot.IncPost()
		if err != nil {
			return nil, diag.NewRuntimeErrorAt(node.Pos.Line, "%s", err)
		}
		return v, nil
	}
	v, err := slot.DecPost()
	if err != nil {
		return nil, diag.NewRuntimeErrorAt(node.Pos.Line, "%s", err)
	}
	return v, nil
}

// evaluateAssignment handles plain and compound assignment. Array += is
// special-cased to append in place rather than building a new array.
func (i *Interpreter) evaluateAssignment(node *ast.Node) (*value.Value, error) {
	lhs, err := i.evaluateLeftHandSide(node.Child(0))
	if err != nil {
		return nil, err
	}
	rhs, err := i.evaluate(node.Child(1))
	if err != nil {
		return nil, err
	}

	if node.Kind == ast.Assign {
		lhs.AssignFrom(rhs)
		return lhs, nil
	}

	if node.Kind == ast.AssignAdd {
		if d := value.Deref(lhs); d.Kind == value.Array {
			rd := value.Deref(rhs)
			if rd.Kind == value.Array || rd.Kind == value.Object {
				d.AddArrayElem(rd)
			} else {
				d.AddArrayElem(rd.Clone())
			}
			return lhs, nil
		}
	}

	var result *value.Value
	switch node.Kind {
	case ast.AssignAdd:
		result, err = lhs.Add(rhs, i.invokeFunc)
	case ast.AssignSub:
		result, err = lhs.Sub(rhs)
	case ast.AssignMul:
		result, err = lhs.Mul(rhs)
	case ast.AssignDiv:
		result, err = lhs.Div(rhs)
	case ast.AssignMod:
		result, err = lhs.Mod(rhs)
	default:
		return nil, diag.NewRuntimeErrorAt(node.Pos.Line, "unknown assignment operator")
	}
	if err != nil {
		return nil, diag.NewRuntimeErrorAt(node.Pos.Line, "%s", err)
	}
	lhs.AssignFrom(result)
	return lhs, nil
}

func (i *Interpreter) evaluateFieldAccess(node *ast.Node, lhsContext bool) (*value.Value, error) {
	left, err := i.evaluate(node.Child(0))
	if err != nil {
		return nil, err
	}
	d := value.Deref(left)
	if d.Kind != value.Object && d.Kind != value.Array {
		return nil, diag.NewRuntimeErrorAt(node.Pos.Line, "value of type %s has no attributes", d.Kind)
	}
	if attr, ok := d.Attrs[node.Str]; ok {
		return attr, nil
	}
	if !lhsContext {
		names := make([]string, 0, len(d.Attrs))
		for name := range d.Attrs {
			names = append(names, name)
		}
		if alt := suggest(node.Str, names); alt != "" {
			return nil, diag.NewRuntimeErrorAt(node.Pos.Line, "no such attribute %q — did you mean %q?", node.Str, alt)
		}
		return nil, diag.NewRuntimeErrorAt(node.Pos.Line, "no such attribute %q", node.Str)
	}
	nv := value.NewUndefined()
	d.AddAttribute(node.Str, nv)
	return nv, nil
}

func (i *Interpreter) evaluateArrayAccess(node *ast.Node) (*value.Value, error) {
	left, err := i.evaluate(node.Child(0))
	if err != nil {
		return nil, err
	}
	d := value.Deref(left)
	if d.Kind != value.Array {
		return nil, diag.NewRuntimeErrorAt(node.Pos.Line, "value of type %s is not an array", d.Kind)
	}
	idxVal, err := i.evaluate(node.Child(1))
	if err != nil {
		return nil, err
	}
	idx, err := idxVal.IntValue()
	if err != nil {
		return nil, diag.NewRuntimeErrorAt(node.Pos.Line, "%s", err)
	}
	elem, err := d.GetArrayElem(idx)
	if err != nil {
		return nil, diag.NewRuntimeErrorAt(node.Pos.Line, "%s", err)
	}
	return elem, nil
}

func (i *Interpreter) evaluateFunctionCall(node *ast.Node) (*value.Value, error) {
	callee, err := i.evaluate(node.Child(0))
	if err != nil {
		return nil, err
	}
	argNodes := node.Child(1).Children
	d := value.Deref(callee)
	switch d.Kind {
	case value.Function:
		args := make([]*value.Value, len(argNodes))
		for idx, an := range argNodes {
			v, err := i.evaluate(an)
			if err != nil {
				return nil, err
			}
			args[idx] = v
		}
		return i.callFunction(d, args)
	case value.Hook:
		args := make([]*value.Value, len(argNodes))
		for idx, an := range argNodes {
			v, err := i.evaluate(an)
			if err != nil {
				return nil, err
			}
			if v.Kind == value.Function && v.InnerFunction && v.Closure == nil {
				v.Closure = i.current.CreateClosure()
			}
			args[idx] = v
		}
		return i.callHook(d, args)
	default:
		return nil, diag.NewRuntimeErrorAt(node.Pos.Line, "value of type %s is not callable", d.Kind)
	}
}

// callFunction dispatches a script-function call: a parent-less function
// scope is built and seeded with the formals first, then reparented onto
// the *caller's* current scope (Velox function scopes are dynamically
// chained; closures are the only way to retain a definition-site
// environment), and only then does a carried closure get injected.
func (i *Interpreter) callFunction(fnVal *value.Value, args []*value.Value) (*value.Value, error) {
	fnNode := fnVal.FuncNode
	params, body := fnNode.Child(0), fnNode.Child(1)

	fnScope := scope.New(nil, false)
	for idx := 0; idx < params.NumChildren(); idx++ {
		name := params.Child(idx).Str
		var av *value.Value
		if idx < len(args) {
			av = args[idx]
		} else {
			av = value.NewUndefined()
		}
		if err := fnScope.PutItem(name, av); err != nil {
			return nil, err
		}
	}
	if fnVal.Parent != nil {
		if err := fnScope.PutItem("this", fnVal.Parent); err != nil {
			return nil, err
		}
	}
	fnScope.SetParent(i.current)
	if cl, ok := fnVal.Closure.(*scope.Scope); ok && cl != nil {
		cl.InjectItems(fnScope)
	}

	prevScope := i.current
	i.current = fnScope
	i.pushReturn()

	lookaheadErr := i.functionLookahead(body.Children, true)
	var execErr error
	if lookaheadErr == nil {
		_, execErr = i.interpretSequence(body.Children)
	}
	result := i.popReturn()
	i.current = prevScope
	fnScope.DetachFromParent()

	if lookaheadErr != nil {
		return nil, lookaheadErr
	}
	if execErr != nil {
		return nil, execErr
	}
	return result, nil
}

// callHook builds the same kind of function scope for a host hook, then
// hands it directly to the hook's invocation callback.
func (i *Interpreter) callHook(hookVal *value.Value, args []*value.Value) (*value.Value, error) {
	h := hookVal.Hook
	fnScope := scope.New(nil, false)
	for idx, name := range h.Params {
		var av *value.Value
		if idx < len(args) {
			av = args[idx]
		} else {
			av = value.NewUndefined()
		}
		if err := fnScope.PutItem(name, av); err != nil {
			return nil, err
		}
	}
	fnScope.SetParent(i.current)

	prevScope := i.current
	i.current = fnScope
	result, err := h.Invoke(fnScope)
	i.current = prevScope
	fnScope.DetachFromParent()

	if err != nil {
		return nil, err
	}
	if result == nil {
		result = value.NewUndefined()
	}
	return result, nil
}

// evaluateObjectCreation implements `new ClassName(args...)`: every
// method in the class declaration becomes a function attribute on a fresh
// object, and if a method's name matches the class name it runs as the
// constructor, receiving the call site's evaluated arguments.
func (i *Interpreter) evaluateObjectCreation(node *ast.Node) (*value.Value, error) {
	className := node.Str
	classVal := i.current.FindItem(className)
	if classVal == nil || value.Deref(classVal).Kind != value.Class {
		if alt := suggest(className, i.current.Names()); alt != "" {
			return nil, diag.NewRuntimeErrorAt(node.Pos.Line, "unknown class %q — did you mean %q?", className, alt)
		}
		return nil, diag.NewRuntimeErrorAt(node.Pos.Line, "unknown class %q", className)
	}
	classDecl := value.Deref(classVal).FuncNode

	obj := value.NewObject()
	for _, method := range classDecl.Children {
		obj.AddAttribute(method.Str, value.NewFunction(method, false))
	}

	argNodes := node.Child(0).Children
	args := make([]*value.Value, len(argNodes))
	for idx, an := range argNodes {
		v, err := i.evaluate(an)
		if err != nil {
			return nil, err
		}
		args[idx] = v
	}

	if ctor, ok := obj.Attrs[className]; ok {
		if _, err := i.callFunction(ctor, args); err != nil {
			return nil, err
		}
	}
	return obj, nil
}
