// Package ast defines the Velox abstract syntax tree: a single homogeneous
// tagged Node type, rather than one Go type per production. Every node
// carries a Kind, optional string/int/real payloads, an ordered child
// list, and the (line, column) position of the token the parser was
// looking at when it built the node.
package ast

import "fmt"

// Kind tags what a Node represents.
type Kind int

const (
	// Program is the root of a parsed script: an ordered sequence of
	// top-level statements.
	Program Kind = iota
	Block

	// Literals.
	IntLiteral
	RealLiteral
	StringLiteral
	BoolLiteral
	UndefinedLiteral
	ColorLiteral
	ArrayLiteral

	// Names.
	SimpleName
	Global

	// Binary arithmetic.
	Add
	Sub
	Mul
	Div
	Mod

	// Unary.
	UnaryPlus
	UnaryMinus
	Not

	// Logical.
	LogAnd
	LogOr

	// Relational.
	Equal
	NotEqual
	LessThan
	LessEqual
	GreaterThan
	GreaterEqual

	// Assignment.
	Assign
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
	AssignMod

	// Increment/decrement.
	PreIncrement
	PreDecrement
	PostIncrement
	PostDecrement

	// Access / call.
	FieldAccess
	ArrayAccess
	FunctionCall
	ActualParams

	// Declarations.
	FunctionDeclaration
	FormalParams
	ClassDeclaration
	NewExpr

	// Control flow.
	If
	While
	DoWhile
	For
	ForInitializer
	ForUpdater
	Return
	Break
	Continue
	Print
	Import
)

var kindNames = map[Kind]string{
	Program:             "PROGRAM",
	Block:               "BLOCK",
	IntLiteral:          "INTEGER_LITERAL",
	RealLiteral:         "REAL_LITERAL",
	StringLiteral:       "STRING_LITERAL",
	BoolLiteral:         "BOOL_LITERAL",
	UndefinedLiteral:    "UNDEFINED_LITERAL",
	ColorLiteral:        "COLOR_LITERAL",
	ArrayLiteral:        "ARRAY_INITIALIZER",
	SimpleName:          "SIMPLE_NAME",
	Global:              "GLOBAL",
	Add:                 "ADDITION",
	Sub:                 "SUBTRACTION",
	Mul:                 "MULTIPLICATION",
	Div:                 "DIVISION",
	Mod:                 "MODULO",
	UnaryPlus:           "UNARY_PLUS",
	UnaryMinus:          "UNARY_MINUS",
	Not:                 "NOT",
	LogAnd:              "LOG_AND",
	LogOr:               "LOG_OR",
	Equal:               "EQUAL",
	NotEqual:            "NOT_EQUAL",
	LessThan:            "LESS_THAN",
	LessEqual:           "LESS_EQUAL",
	GreaterThan:         "GREATER_THAN",
	GreaterEqual:        "GREATER_EQUAL",
	Assign:              "ASSIGNMENT",
	AssignAdd:           "ASSIGN_ADD",
	AssignSub:           "ASSIGN_SUB",
	AssignMul:           "ASSIGN_MUL",
	AssignDiv:           "ASSIGN_DIV",
	AssignMod:           "ASSIGN_MOD",
	PreIncrement:        "INCREMENT",
	PreDecrement:        "DECREMENT",
	PostIncrement:       "POST_INCREMENT",
	PostDecrement:       "POST_DECREMENT",
	FieldAccess:         "FIELD_ACCESS",
	ArrayAccess:         "ARRAY_ACCESS",
	FunctionCall:        "FUNCTION_CALL",
	ActualParams:        "FUNCTION_PARAMS",
	FunctionDeclaration: "FUNCTION_DECLARATION",
	FormalParams:        "FORMAL_PARAMETER",
	ClassDeclaration:    "CLASS_DECLARATION",
	NewExpr:             "NEW",
	If:                  "IF",
	While:               "WHILE",
	DoWhile:             "DO_WHILE",
	For:                 "FOR",
	ForInitializer:      "FOR_INITIALIZER",
	ForUpdater:          "FOR_UPDATER",
	Return:              "RETURN",
	Break:               "BREAK",
	Continue:            "CONTINUE",
	Print:               "PRINT",
	Import:              "IMPORT",
}

// String returns the node kind's canonical upper-snake-case name, as used
// in diagnostics and the `ast dump` CLI output.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KIND(%d)", int(k))
}

// Position is a 1-based source location plus the absolute character
// offset it was computed from.
type Position struct {
	Line   int
	Column int
	Offset int
}

// Node is the single AST node type shared by every production. Assignment
// and compound-assignment nodes, binary/relational/logical operators, and
// increment/decrement all reuse this same shape; what varies is Kind and
// which optional payload/children are populated.
type Node struct {
	Kind     Kind
	Pos      Position
	Str      string  // identifier/field name, string literal text, import path
	Int      int64   // integer literal value
	Real     float64 // real literal value
	Children []*Node
}

// New creates a node of the given kind at pos with the given children.
func New(kind Kind, pos Position, children ...*Node) *Node {
	return &Node{Kind: kind, Pos: pos, Children: children}
}

// NewInt creates an INTEGER_LITERAL node.
func NewInt(pos Position, v int64) *Node {
	return &Node{Kind: IntLiteral, Pos: pos, Int: v}
}

// NewReal creates a REAL_LITERAL node.
func NewReal(pos Position, v float64) *Node {
	return &Node{Kind: RealLiteral, Pos: pos, Real: v}
}

// NewString creates a STRING_LITERAL node.
func NewString(pos Position, v string) *Node {
	return &Node{Kind: StringLiteral, Pos: pos, Str: v}
}

// NewBool creates a BOOL_LITERAL node, storing the value in Int (0/1).
func NewBool(pos Position, v bool) *Node {
	n := &Node{Kind: BoolLiteral, Pos: pos}
	if v {
		n.Int = 1
	}
	return n
}

// Bool returns a BOOL_LITERAL node's boolean value.
func (n *Node) Bool() bool { return n.Int != 0 }

// NewName creates a SIMPLE_NAME node referencing the given identifier.
func NewName(pos Position, name string) *Node {
	return &Node{Kind: SimpleName, Pos: pos, Str: name}
}

// AddChild appends child to n's children.
func (n *Node) AddChild(child *Node) {
	n.Children = append(n.Children, child)
}

// Child returns the i'th child, or nil if out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// NumChildren returns the number of direct children.
func (n *Node) NumChildren() int { return len(n.Children) }
