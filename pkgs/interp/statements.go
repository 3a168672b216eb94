package interp

import (
	"errors"

	"github.com/veloxlang/velox/pkgs/ast"
	"github.com/veloxlang/velox/pkgs/diag"
	"github.com/veloxlang/velox/pkgs/value"
)

// interpretSequence executes stmts in the current scope without opening a
// new one — used for Program and for a function body, whose own function
// scope already serves as the enclosing scope.
func (i *Interpreter) interpretSequence(stmts []*ast.Node) (ExitType, error) {
	for _, stmt := range stmts {
		exit, err := i.interpretStatement(stmt)
		if err != nil {
			return ExitVoid, err
		}
		if exit != ExitVoid {
			return exit, nil
		}
	}
	return ExitVoid, nil
}

// interpretStatement is the catch boundary for runtime failures: an error
// that bubbles up without a source line (a scope or value operation that
// has no node in hand) is stamped with this statement's line before it
// propagates further. Scanner and parser errors surfacing through import
// pass through untouched — they already carry their own location.
func (i *Interpreter) interpretStatement(node *ast.Node) (ExitType, error) {
	exit, err := i.statement(node)
	if err != nil {
		return exit, locate(err, node.Pos.Line)
	}
	return exit, nil
}

func locate(err error, line int) error {
	var re *diag.RuntimeError
	if errors.As(err, &re) {
		return re.AtLine(line)
	}
	var se *diag.ScanError
	var pe *diag.ParseError
	if errors.As(err, &se) || errors.As(err, &pe) {
		return err
	}
	return diag.NewRuntimeErrorAt(line, "%s", err)
}

func (i *Interpreter) statement(node *ast.Node) (ExitType, error) {
	switch node.Kind {
	case ast.Block:
		return i.interpretBlock(node)
	case ast.If:
		return i.interpretIf(node)
	case ast.While:
		return i.interpretWhile(node)
	case ast.DoWhile:
		return i.interpretDoWhile(node)
	case ast.For:
		return i.interpretFor(node)
	case ast.Return:
		return i.interpretReturn(node)
	case ast.Break:
		return ExitBreak, nil
	case ast.Continue:
		return ExitContinue, nil
	case ast.Print:
		return i.interpretPrint(node)
	case ast.Import:
		return i.interpretImport(node)
	case ast.FunctionDeclaration, ast.ClassDeclaration:
		// Already bound by functionLookahead; re-executing the
		// declaration node itself is a no-op.
		return ExitVoid, nil
	default:
		if _, err := i.evaluate(node); err != nil {
			return ExitVoid, err
		}
		return ExitVoid, nil
	}
}

func (i *Interpreter) interpretBlock(node *ast.Node) (ExitType, error) {
	i.pushScope(true)
	defer i.popScope()
	return i.interpretSequence(node.Children)
}

func (i *Interpreter) interpretIf(node *ast.Node) (ExitType, error) {
	condVal, err := i.evaluate(node.Child(0))
	if err != nil {
		return ExitVoid, err
	}
	b, err := condVal.BoolValue()
	if err != nil {
		return ExitVoid, diag.NewRuntimeErrorAt(node.Pos.Line, "%s", err)
	}
	if b {
		return i.interpretStatement(node.Child(1))
	}
	if node.NumChildren() > 2 {
		return i.interpretStatement(node.Child(2))
	}
	return ExitVoid, nil
}

func (i *Interpreter) interpretWhile(node *ast.Node) (ExitType, error) {
	condNode, bodyNode := node.Child(0), node.Child(1)
	for {
		condVal, err := i.evaluate(condNode)
		if err != nil {
			return ExitVoid, err
		}
		b, err := condVal.BoolValue()
		if err != nil {
			return ExitVoid, diag.NewRuntimeErrorAt(condNode.Pos.Line, "%s", err)
		}
		if !b {
			return ExitVoid, nil
		}
		exit, err := i.interpretStatement(bodyNode)
		if err != nil {
			return ExitVoid, err
		}
		if exit == ExitBreak {
			return ExitVoid, nil
		}
		if exit == ExitReturn {
			return exit, nil
		}
	}
}

func (i *Interpreter) interpretDoWhile(node *ast.Node) (ExitType, error) {
	bodyNode, condNode := node.Child(0), node.Child(1)
	for {
		exit, err := i.interpretStatement(bodyNode)
		if err != nil {
			return ExitVoid, err
		}
		if exit == ExitBreak {
			return ExitVoid, nil
		}
		if exit == ExitReturn {
			return exit, nil
		}
		condVal, err := i.evaluate(condNode)
		if err != nil {
			return ExitVoid, err
		}
		b, err := condVal.BoolValue()
		if err != nil {
			return ExitVoid, diag.NewRuntimeErrorAt(condNode.Pos.Line, "%s", err)
		}
		if !b {
			return ExitVoid, nil
		}
	}
}

// interpretFor opens one block scope around the whole construct, so a
// loop variable bound in the initializer is scoped to the loop alone.
func (i *Interpreter) interpretFor(node *ast.Node) (ExitType, error) {
	i.pushScope(true)
	defer i.popScope()

	initNode, condNode, updNode, bodyNode := node.Child(0), node.Child(1), node.Child(2), node.Child(3)
	if initNode.NumChildren() > 0 {
		if _, err := i.evaluate(initNode.Child(0)); err != nil {
			return ExitVoid, err
		}
	}
	for {
		condVal, err := i.evaluate(condNode)
		if err != nil {
			return ExitVoid, err
		}
		b, err := condVal.BoolValue()
		if err != nil {
			return ExitVoid, diag.NewRuntimeErrorAt(condNode.Pos.Line, "%s", err)
		}
		if !b {
			return ExitVoid, nil
		}
		exit, err := i.interpretStatement(bodyNode)
		if err != nil {
			return ExitVoid, err
		}
		if exit == ExitBreak {
			return ExitVoid, nil
		}
		if exit == ExitReturn {
			return exit, nil
		}
		if updNode.NumChildren() > 0 {
			if _, err := i.evaluate(updNode.Child(0)); err != nil {
				return ExitVoid, err
			}
		}
	}
}

// interpretReturn writes the evaluated expression (or undefined) into the
// top return-stack slot. A returned inner function picks up a fresh
// closure over the current scope here, so it retains its definition-site
// environment after the enclosing call unwinds.
func (i *Interpreter) interpretReturn(node *ast.Node) (ExitType, error) {
	var rv *value.Value
	if node.NumChildren() > 0 {
		v, err := i.evaluate(node.Child(0))
		if err != nil {
			return ExitVoid, err
		}
		rv = v
	} else {
		rv = value.NewUndefined()
	}
	if rv.Kind == value.Function && rv.InnerFunction && rv.Closure == nil {
		rv.Closure = i.current.CreateClosure()
	}
	i.setReturn(rv)
	return ExitReturn, nil
}

func (i *Interpreter) interpretPrint(node *ast.Node) (ExitType, error) {
	v, err := i.evaluate(node.Child(0))
	if err != nil {
		return ExitVoid, err
	}
	s, err := value.Stringify(v, i.invokeFunc)
	if err != nil {
		return ExitVoid, diag.NewRuntimeErrorAt(node.Pos.Line, "%s", err)
	}
	i.printFn(s)
	return ExitVoid, nil
}

// interpretImport delegates to the host-supplied Importer, hoists, then
// runs the imported AST as a statement sequence in the current scope.
func (i *Interpreter) interpretImport(node *ast.Node) (ExitType, error) {
	if i.importer == nil {
		return ExitVoid, diag.NewRuntimeErrorAt(node.Pos.Line, "import %q: no importer configured", node.Str)
	}
	imported, err := i.importer.Resolve(node.Str, i.originPath)
	if err != nil {
		return ExitVoid, err
	}
	if imported == nil {
		return ExitVoid, diag.NewRuntimeErrorAt(node.Pos.Line, "import %q: file not found", node.Str)
	}
	if err := i.functionLookahead(imported.Children, false); err != nil {
		return ExitVoid, err
	}
	return i.interpretSequence(imported.Children)
}
