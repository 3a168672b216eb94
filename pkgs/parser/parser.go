// Package parser is the Velox recursive-descent parser: it drives a
// pkgs/source.Source over the token stream pkgs/scanner produces and
// builds pkgs/ast trees. Structured as one method per precedence level,
// from assignment at the bottom up through logical, relational, additive,
// multiplicative, unary and the postfix selector chain.
package parser

import (
	"strconv"

	"golang.org/x/text/unicode/norm"

	"github.com/veloxlang/velox/pkgs/ast"
	"github.com/veloxlang/velox/pkgs/charstream"
	"github.com/veloxlang/velox/pkgs/diag"
	"github.com/veloxlang/velox/pkgs/scanner"
	"github.com/veloxlang/velox/pkgs/source"
)

// Parser holds the token source and produces an ast.Node tree for one
// compilation unit.
type Parser struct {
	src *source.Source
}

// Parse scans text with the Velox lexer and parses it into a PROGRAM node.
func Parse(text string) (*ast.Node, error) {
	s, err := newScanner()
	if err != nil {
		return nil, err
	}
	return ParseWithScanner(s, text)
}

// ParseWithScanner lets a caller reuse an already-built scanner.Scanner
// across multiple parses, skipping the automaton construction Parse
// repeats each call.
//
// text is NFC-normalized before scanning: identCont/identStart (lex.go)
// enumerate precomposed accented letters only, so a source file using a
// decomposed form (e.g. "e" + combining acute) would otherwise scan as
// two separate, non-identifier runes. Normalizing up front means two
// visually-identical identifiers written in different Unicode forms
// always scan to the same token text.
func ParseWithScanner(s *scanner.Scanner, text string) (*ast.Node, error) {
	text = norm.NFC.String(text)
	s.Reset(charstream.NewStringStream(text))
	p := &Parser{src: source.New(s)}
	if err := p.src.Advance(); err != nil {
		return nil, err
	}
	return p.parseProgram()
}

func (p *Parser) pos() ast.Position {
	tp := p.src.CurrentPos()
	return ast.Position{Line: tp.Line, Column: tp.Column, Offset: tp.Offset}
}

func (p *Parser) kind() Kind { return Kind(p.src.CurrentKind()) }

func (p *Parser) at(k Kind) bool { return p.kind() == k }

func (p *Parser) advance() error { return p.src.Advance() }

// expect consumes the current token if it matches k, else raises a
// ParseError carrying the current line. There is no error recovery; the
// first mismatch ends the parse.
func (p *Parser) expect(k Kind) (ast.Position, error) {
	if !p.at(k) {
		return ast.Position{}, diag.NewParseError(p.pos().Line, "expected %s, got %s", k, p.kind())
	}
	pos := p.pos()
	if err := p.advance(); err != nil {
		return ast.Position{}, err
	}
	return pos, nil
}

// parseProgram parses a sequence of top-level statements until EOS.
func (p *Parser) parseProgram() (*ast.Node, error) {
	pos := p.pos()
	prog := ast.New(ast.Program, pos)
	for !p.at(EOS) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.AddChild(stmt)
	}
	return prog, nil
}

func (p *Parser) parseBlock() (*ast.Node, error) {
	pos, err := p.expect(LEFT_BRACE)
	if err != nil {
		return nil, err
	}
	block := ast.New(ast.Block, pos)
	for !p.at(RIGHT_BRACE) {
		if p.at(EOS) {
			return nil, diag.NewParseError(p.pos().Line, "unterminated block")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.AddChild(stmt)
	}
	if _, err := p.expect(RIGHT_BRACE); err != nil {
		return nil, err
	}
	return block, nil
}

func (p *Parser) parseStatement() (*ast.Node, error) {
	switch p.kind() {
	case LEFT_BRACE:
		return p.parseBlock()
	case IF:
		return p.parseIf()
	case WHILE:
		return p.parseWhile()
	case DO:
		return p.parseDoWhile()
	case FOR:
		return p.parseFor()
	case FUNCTION:
		return p.parseFunctionDeclaration()
	case CLASS:
		return p.parseClassDeclaration()
	case RETURN:
		return p.parseReturn()
	case BREAK:
		pos := p.pos()
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		return ast.New(ast.Break, pos), nil
	case CONTINUE:
		pos := p.pos()
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON); err != nil {
			return nil, err
		}
		return ast.New(ast.Continue, pos), nil
	case PRINT:
		return p.parsePrint()
	case IMPORT:
		return p.parseImport()
	case SEMICOLON:
		pos := p.pos()
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.New(ast.Block, pos), nil
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseIf() (*ast.Node, error) {
	pos, err := p.expect(IF)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LEFT_PAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RIGHT_PAREN); err != nil {
		return nil, err
	}
	thenStmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	node := ast.New(ast.If, pos, cond, thenStmt)
	if p.at(ELSE) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		elseStmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		node.AddChild(elseStmt)
	}
	return node, nil
}

func (p *Parser) parseWhile() (*ast.Node, error) {
	pos, err := p.expect(WHILE)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LEFT_PAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RIGHT_PAREN); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return ast.New(ast.While, pos, cond, body), nil
}

func (p *Parser) parseDoWhile() (*ast.Node, error) {
	pos, err := p.expect(DO)
	if err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(WHILE); err != nil {
		return nil, err
	}
	if _, err := p.expect(LEFT_PAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RIGHT_PAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return ast.New(ast.DoWhile, pos, body, cond), nil
}

// parseFor handles the three-clause C-style for loop; initializer and
// updater are wrapped in FOR_INITIALIZER/FOR_UPDATER marker nodes so the
// interpreter can open one block scope around the whole construct.
func (p *Parser) parseFor() (*ast.Node, error) {
	pos, err := p.expect(FOR)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LEFT_PAREN); err != nil {
		return nil, err
	}

	initPos := p.pos()
	var initExpr *ast.Node
	if !p.at(SEMICOLON) {
		initExpr, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	init := ast.New(ast.ForInitializer, initPos)
	if initExpr != nil {
		init.AddChild(initExpr)
	}

	var cond *ast.Node
	if !p.at(SEMICOLON) {
		cond, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	} else {
		cond = ast.NewBool(p.pos(), true)
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}

	updPos := p.pos()
	var updExpr *ast.Node
	if !p.at(RIGHT_PAREN) {
		updExpr, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(RIGHT_PAREN); err != nil {
		return nil, err
	}
	upd := ast.New(ast.ForUpdater, updPos)
	if updExpr != nil {
		upd.AddChild(updExpr)
	}

	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return ast.New(ast.For, pos, init, cond, upd, body), nil
}

func (p *Parser) parseReturn() (*ast.Node, error) {
	pos, err := p.expect(RETURN)
	if err != nil {
		return nil, err
	}
	node := ast.New(ast.Return, pos)
	if !p.at(SEMICOLON) {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		node.AddChild(expr)
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) parsePrint() (*ast.Node, error) {
	pos, err := p.expect(PRINT)
	if err != nil {
		return nil, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return ast.New(ast.Print, pos, expr), nil
}

func (p *Parser) parseImport() (*ast.Node, error) {
	pos, err := p.expect(IMPORT)
	if err != nil {
		return nil, err
	}
	if !p.at(STRING) {
		return nil, diag.NewParseError(p.pos().Line, "expected a string path after import")
	}
	path := p.src.CurrentStr()
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	node := ast.New(ast.Import, pos)
	node.Str = path
	return node, nil
}

func (p *Parser) parseExpressionStatement() (*ast.Node, error) {
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) parseFormalParams() (*ast.Node, error) {
	pos, err := p.expect(LEFT_PAREN)
	if err != nil {
		return nil, err
	}
	params := ast.New(ast.FormalParams, pos)
	for !p.at(RIGHT_PAREN) {
		if !p.at(IDENT) {
			return nil, diag.NewParseError(p.pos().Line, "expected parameter name, got %s", p.kind())
		}
		params.AddChild(ast.NewName(p.pos(), p.src.CurrentStr()))
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.at(COMMA) {
			if err := p.advance(); err != nil {
				return nil, err
			}
		} else {
			break
		}
	}
	if _, err := p.expect(RIGHT_PAREN); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) parseFunctionDeclaration() (*ast.Node, error) {
	pos, err := p.expect(FUNCTION)
	if err != nil {
		return nil, err
	}
	if !p.at(IDENT) {
		return nil, diag.NewParseError(p.pos().Line, "expected function name, got %s", p.kind())
	}
	name := p.src.CurrentStr()
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseFunctionRest(pos, name)
}

// parseFunctionExpression parses `function [name] (params) { body }` in
// expression position; the name is optional there, unlike at statement
// level where the declaration is hoisted by it.
func (p *Parser) parseFunctionExpression() (*ast.Node, error) {
	pos, err := p.expect(FUNCTION)
	if err != nil {
		return nil, err
	}
	var name string
	if p.at(IDENT) {
		name = p.src.CurrentStr()
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return p.parseFunctionRest(pos, name)
}

func (p *Parser) parseFunctionRest(pos ast.Position, name string) (*ast.Node, error) {
	params, err := p.parseFormalParams()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	node := ast.New(ast.FunctionDeclaration, pos, params, body)
	node.Str = name
	return node, nil
}

func (p *Parser) parseClassDeclaration() (*ast.Node, error) {
	pos, err := p.expect(CLASS)
	if err != nil {
		return nil, err
	}
	if !p.at(IDENT) {
		return nil, diag.NewParseError(p.pos().Line, "expected class name, got %s", p.kind())
	}
	name := p.src.CurrentStr()
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.expect(LEFT_BRACE); err != nil {
		return nil, err
	}
	node := ast.New(ast.ClassDeclaration, pos)
	node.Str = name
	for !p.at(RIGHT_BRACE) {
		if p.at(EOS) {
			return nil, diag.NewParseError(p.pos().Line, "unterminated class body")
		}
		method, err := p.parseFunctionDeclaration()
		if err != nil {
			return nil, err
		}
		node.AddChild(method)
	}
	if _, err := p.expect(RIGHT_BRACE); err != nil {
		return nil, err
	}
	return node, nil
}

// --- expressions, by ascending precedence. Assignment is recognized
// after a full left-hand-side chain has been parsed, so parseExpression
// tries an assignment first and falls back to the logical-or level.

func (p *Parser) parseExpression() (*ast.Node, error) {
	return p.parseAssignment()
}

var assignOps = map[Kind]ast.Kind{
	ASSIGN:     ast.Assign,
	ASSIGN_ADD: ast.AssignAdd,
	ASSIGN_SUB: ast.AssignSub,
	ASSIGN_MUL: ast.AssignMul,
	ASSIGN_DIV: ast.AssignDiv,
	ASSIGN_MOD: ast.AssignMod,
}

// isAssignableKind reports whether an already-parsed LHS node is one of
// the four kinds an assignment target may be: a simple name, a global
// reference, a field access or an array access.
func isAssignableKind(k ast.Kind) bool {
	switch k {
	case ast.SimpleName, ast.Global, ast.FieldAccess, ast.ArrayAccess:
		return true
	default:
		return false
	}
}

func (p *Parser) parseAssignment() (*ast.Node, error) {
	lhs, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	kind, isAssign := assignOps[p.kind()]
	if !isAssign {
		return lhs, nil
	}
	if !isAssignableKind(lhs.Kind) {
		return nil, diag.NewParseError(lhs.Pos.Line, "invalid assignment target")
	}
	pos := p.pos()
	if err := p.advance(); err != nil {
		return nil, err
	}
	rhs, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	return ast.New(kind, pos, lhs, rhs), nil
}

func (p *Parser) parseLogicalOr() (*ast.Node, error) {
	left, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for p.at(LOG_OR) {
		pos := p.pos()
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		left = ast.New(ast.LogOr, pos, left, right)
	}
	return left, nil
}

func (p *Parser) parseLogicalAnd() (*ast.Node, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.at(LOG_AND) {
		pos := p.pos()
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = ast.New(ast.LogAnd, pos, left, right)
	}
	return left, nil
}

var relOps = map[Kind]ast.Kind{
	EQUAL: ast.Equal, NOT_EQUAL: ast.NotEqual,
	LESS_THAN: ast.LessThan, LESS_EQUAL: ast.LessEqual,
	GREATER_THAN: ast.GreaterThan, GREATER_EQUAL: ast.GreaterEqual,
}

func (p *Parser) parseRelational() (*ast.Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		kind, ok := relOps[p.kind()]
		if !ok {
			return left, nil
		}
		pos := p.pos()
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = ast.New(kind, pos, left, right)
	}
}

func (p *Parser) parseAdditive() (*ast.Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.at(ADD) || p.at(SUB) {
		kind := ast.Add
		if p.at(SUB) {
			kind = ast.Sub
		}
		pos := p.pos()
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = ast.New(kind, pos, left, right)
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (*ast.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.at(MUL) || p.at(DIV) || p.at(MOD) {
		var kind ast.Kind
		switch {
		case p.at(MUL):
			kind = ast.Mul
		case p.at(DIV):
			kind = ast.Div
		default:
			kind = ast.Mod
		}
		pos := p.pos()
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = ast.New(kind, pos, left, right)
	}
	return left, nil
}

func (p *Parser) parseUnary() (*ast.Node, error) {
	switch p.kind() {
	case ADD:
		pos := p.pos()
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.New(ast.UnaryPlus, pos, operand), nil
	case SUB:
		pos := p.pos()
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.New(ast.UnaryMinus, pos, operand), nil
	case NOT:
		pos := p.pos()
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.New(ast.Not, pos, operand), nil
	case INCREMENT:
		pos := p.pos()
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.New(ast.PreIncrement, pos, operand), nil
	case DECREMENT:
		pos := p.pos()
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.New(ast.PreDecrement, pos, operand), nil
	default:
		return p.parseSelectorChain()
	}
}

// parseSelectorChain greedily folds .ident / [expr] / (args) after a
// primary into left-nested FIELD_ACCESS / ARRAY_ACCESS / FUNCTION_CALL
// nodes, then folds a trailing postfix ++/--.
func (p *Parser) parseSelectorChain() (*ast.Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.kind() {
		case DOT:
			pos := p.pos()
			if err := p.advance(); err != nil {
				return nil, err
			}
			if !p.at(IDENT) {
				return nil, diag.NewParseError(p.pos().Line, "expected field name, got %s", p.kind())
			}
			field := p.src.CurrentStr()
			if err := p.advance(); err != nil {
				return nil, err
			}
			fa := ast.New(ast.FieldAccess, pos, node)
			fa.Str = field
			node = fa
		case LEFT_BRACKET:
			pos := p.pos()
			if err := p.advance(); err != nil {
				return nil, err
			}
			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RIGHT_BRACKET); err != nil {
				return nil, err
			}
			node = ast.New(ast.ArrayAccess, pos, node, index)
		case LEFT_PAREN:
			pos := p.pos()
			args, err := p.parseActualParams()
			if err != nil {
				return nil, err
			}
			node = ast.New(ast.FunctionCall, pos, node, args)
		case INCREMENT:
			pos := p.pos()
			if err := p.advance(); err != nil {
				return nil, err
			}
			node = ast.New(ast.PostIncrement, pos, node)
		case DECREMENT:
			pos := p.pos()
			if err := p.advance(); err != nil {
				return nil, err
			}
			node = ast.New(ast.PostDecrement, pos, node)
		default:
			return node, nil
		}
	}
}

func (p *Parser) parseActualParams() (*ast.Node, error) {
	pos, err := p.expect(LEFT_PAREN)
	if err != nil {
		return nil, err
	}
	params := ast.New(ast.ActualParams, pos)
	for !p.at(RIGHT_PAREN) {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		params.AddChild(arg)
		if p.at(COMMA) {
			if err := p.advance(); err != nil {
				return nil, err
			}
		} else {
			break
		}
	}
	if _, err := p.expect(RIGHT_PAREN); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) parsePrimary() (*ast.Node, error) {
	switch p.kind() {
	case INTEGER:
		pos := p.pos()
		v := p.src.CurrentInt()
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewInt(pos, v), nil
	case REAL:
		pos := p.pos()
		v := p.src.CurrentReal()
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewReal(pos, v), nil
	case STRING:
		pos := p.pos()
		v := p.src.CurrentStr()
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewString(pos, v), nil
	case COLOR:
		// The scanner delivers the literal's hex digits (sans '#') as the
		// token's string payload; a 6-digit literal is RRGGBB, an 8-digit
		// one RRGGBBAA.
		pos := p.pos()
		v, err := strconv.ParseInt(p.src.CurrentStr(), 16, 64)
		if err != nil {
			return nil, diag.NewParseError(pos.Line, "invalid color literal #%s", p.src.CurrentStr())
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		node := ast.New(ast.ColorLiteral, pos)
		node.Int = v
		return node, nil
	case TRUE:
		pos := p.pos()
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewBool(pos, true), nil
	case FALSE:
		pos := p.pos()
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewBool(pos, false), nil
	case UNDEFINED:
		pos := p.pos()
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.New(ast.UndefinedLiteral, pos), nil
	case NEW:
		return p.parseNew()
	case FUNCTION:
		return p.parseFunctionExpression()
	case GLOBAL:
		pos := p.pos()
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(DOT); err != nil {
			return nil, err
		}
		if !p.at(IDENT) {
			return nil, diag.NewParseError(p.pos().Line, "expected name after global.")
		}
		name := p.src.CurrentStr()
		if err := p.advance(); err != nil {
			return nil, err
		}
		node := ast.New(ast.Global, pos)
		node.Str = name
		return node, nil
	case IDENT:
		pos := p.pos()
		name := p.src.CurrentStr()
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewName(pos, name), nil
	case LEFT_PAREN:
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RIGHT_PAREN); err != nil {
			return nil, err
		}
		return expr, nil
	case LEFT_BRACKET:
		return p.parseArrayLiteral()
	default:
		return nil, diag.NewParseError(p.pos().Line, "unexpected token %s", p.kind())
	}
}

func (p *Parser) parseArrayLiteral() (*ast.Node, error) {
	pos, err := p.expect(LEFT_BRACKET)
	if err != nil {
		return nil, err
	}
	node := ast.New(ast.ArrayLiteral, pos)
	for !p.at(RIGHT_BRACKET) {
		elem, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		node.AddChild(elem)
		if p.at(COMMA) {
			if err := p.advance(); err != nil {
				return nil, err
			}
		} else {
			break
		}
	}
	if _, err := p.expect(RIGHT_BRACKET); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) parseNew() (*ast.Node, error) {
	pos, err := p.expect(NEW)
	if err != nil {
		return nil, err
	}
	if !p.at(IDENT) {
		return nil, diag.NewParseError(p.pos().Line, "expected class name after new")
	}
	name := p.src.CurrentStr()
	if err := p.advance(); err != nil {
		return nil, err
	}
	args, err := p.parseActualParams()
	if err != nil {
		return nil, err
	}
	node := ast.New(ast.NewExpr, pos, args)
	node.Str = name
	return node, nil
}
