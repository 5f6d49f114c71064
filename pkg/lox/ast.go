package lox

import (
	"fmt"
	"strings"
)

// NodeID identifies one expression node. IDs are unique across every unit
// parsed within a Context, so resolver annotations from earlier units
// stay valid for functions and classes that outlive them.
type NodeID int

// Node represents an abstract syntax tree (AST) node in a Lox program.
type Node interface {
	String() string
	Line() int
}

// Expr is an expression node. Expressions evaluate to exactly one Value.
type Expr interface {
	Node
	ID() NodeID
	Eval(*Context) (Value, error)
}

// Stmt is a statement node, executed for effect.
type Stmt interface {
	Node
	Exec(*Context) (completion, error)
}

type exprNode struct {
	id NodeID
}

func (n exprNode) ID() NodeID {
	return n.id
}

type AssignExpr struct {
	exprNode
	name  Tok
	value Expr
}

func (n *AssignExpr) String() string {
	return fmt.Sprintf("Assign %s = (%s)", n.name.Lexeme, n.value)
}

func (n *AssignExpr) Line() int {
	return n.name.Line
}

type BinaryExpr struct {
	exprNode
	left     Expr
	operator Tok
	right    Expr
}

func (n *BinaryExpr) String() string {
	return fmt.Sprintf("Binary (%s) %s (%s)", n.left, n.operator.Lexeme, n.right)
}

func (n *BinaryExpr) Line() int {
	return n.operator.Line
}

type CallExpr struct {
	exprNode
	callee    Expr
	paren     Tok
	arguments []Expr
}

func (n *CallExpr) String() string {
	args := make([]string, len(n.arguments))
	for i, a := range n.arguments {
		args[i] = a.String()
	}
	return fmt.Sprintf("Call (%s) on (%s)", n.callee, strings.Join(args, ", "))
}

func (n *CallExpr) Line() int {
	return n.paren.Line
}

type GetExpr struct {
	exprNode
	object Expr
	name   Tok
}

func (n *GetExpr) String() string {
	return fmt.Sprintf("Get (%s).%s", n.object, n.name.Lexeme)
}

func (n *GetExpr) Line() int {
	return n.name.Line
}

type GroupingExpr struct {
	exprNode
	expression Expr
}

func (n *GroupingExpr) String() string {
	return fmt.Sprintf("Group (%s)", n.expression)
}

func (n *GroupingExpr) Line() int {
	return n.expression.Line()
}

type LiteralExpr struct {
	exprNode
	value Value
	line  int
}

func (n *LiteralExpr) String() string {
	if s, isString := n.value.(StringValue); isString {
		return fmt.Sprintf("Literal \"%s\"", string(s))
	}
	return fmt.Sprintf("Literal %s", n.value)
}

func (n *LiteralExpr) Line() int {
	return n.line
}

// LogicalExpr is a short-circuiting `and` or `or`.
type LogicalExpr struct {
	exprNode
	left     Expr
	operator Tok
	right    Expr
}

func (n *LogicalExpr) String() string {
	return fmt.Sprintf("Logical (%s) %s (%s)", n.left, n.operator.Lexeme, n.right)
}

func (n *LogicalExpr) Line() int {
	return n.operator.Line
}

type SetExpr struct {
	exprNode
	object Expr
	name   Tok
	value  Expr
}

func (n *SetExpr) String() string {
	return fmt.Sprintf("Set (%s).%s = (%s)", n.object, n.name.Lexeme, n.value)
}

func (n *SetExpr) Line() int {
	return n.name.Line
}

type SuperExpr struct {
	exprNode
	keyword Tok
	method  Tok
}

func (n *SuperExpr) String() string {
	return fmt.Sprintf("Super .%s", n.method.Lexeme)
}

func (n *SuperExpr) Line() int {
	return n.keyword.Line
}

type ThisExpr struct {
	exprNode
	keyword Tok
}

func (n *ThisExpr) String() string {
	return "This"
}

func (n *ThisExpr) Line() int {
	return n.keyword.Line
}

type PrefixExpr struct {
	exprNode
	operator Tok
	right    Expr
}

func (n *PrefixExpr) String() string {
	return fmt.Sprintf("Prefix %s (%s)", n.operator.Lexeme, n.right)
}

func (n *PrefixExpr) Line() int {
	return n.operator.Line
}

type PostfixExpr struct {
	exprNode
	operator Tok
	left     Expr
}

func (n *PostfixExpr) String() string {
	return fmt.Sprintf("Postfix (%s) %s", n.left, n.operator.Lexeme)
}

func (n *PostfixExpr) Line() int {
	return n.operator.Line
}

// ConditionalExpr is the ternary `c ? a : b`. No parser path builds it.
type ConditionalExpr struct {
	exprNode
	condition Expr
	then      Expr
	otherwise Expr
}

func (n *ConditionalExpr) String() string {
	return fmt.Sprintf("Conditional (%s) ? (%s) : (%s)", n.condition, n.then, n.otherwise)
}

func (n *ConditionalExpr) Line() int {
	return n.condition.Line()
}

type VariableExpr struct {
	exprNode
	name Tok
}

func (n *VariableExpr) String() string {
	return fmt.Sprintf("Variable '%s'", n.name.Lexeme)
}

func (n *VariableExpr) Line() int {
	return n.name.Line
}

type BlockStmt struct {
	statements []Stmt
	line       int
}

func (n *BlockStmt) String() string {
	return fmt.Sprintf("Block {%s}", stmtsString(n.statements))
}

func (n *BlockStmt) Line() int {
	return n.line
}

type ExpressionStmt struct {
	expression Expr
}

func (n *ExpressionStmt) String() string {
	return fmt.Sprintf("Expression (%s)", n.expression)
}

func (n *ExpressionStmt) Line() int {
	return n.expression.Line()
}

type FunctionStmt struct {
	name   Tok
	params []Tok
	body   []Stmt
}

func (n *FunctionStmt) String() string {
	params := make([]string, len(n.params))
	for i, p := range n.params {
		params[i] = p.Lexeme
	}
	return fmt.Sprintf("Function %s (%s) {%s}",
		n.name.Lexeme, strings.Join(params, ", "), stmtsString(n.body))
}

func (n *FunctionStmt) Line() int {
	return n.name.Line
}

type IfStmt struct {
	condition Expr
	then      Stmt
	otherwise Stmt // nil without an else branch
}

func (n *IfStmt) String() string {
	if n.otherwise == nil {
		return fmt.Sprintf("If (%s) then (%s)", n.condition, n.then)
	}
	return fmt.Sprintf("If (%s) then (%s) else (%s)", n.condition, n.then, n.otherwise)
}

func (n *IfStmt) Line() int {
	return n.condition.Line()
}

type PrintStmt struct {
	expression Expr
}

func (n *PrintStmt) String() string {
	return fmt.Sprintf("Print (%s)", n.expression)
}

func (n *PrintStmt) Line() int {
	return n.expression.Line()
}

type ReturnStmt struct {
	keyword Tok
	value   Expr // nil for a bare return
}

func (n *ReturnStmt) String() string {
	if n.value == nil {
		return "Return"
	}
	return fmt.Sprintf("Return (%s)", n.value)
}

func (n *ReturnStmt) Line() int {
	return n.keyword.Line
}

type VarStmt struct {
	name        Tok
	initializer Expr // nil without an initializer
}

func (n *VarStmt) String() string {
	if n.initializer == nil {
		return fmt.Sprintf("Var %s", n.name.Lexeme)
	}
	return fmt.Sprintf("Var %s = (%s)", n.name.Lexeme, n.initializer)
}

func (n *VarStmt) Line() int {
	return n.name.Line
}

type WhileStmt struct {
	condition Expr
	body      Stmt
}

func (n *WhileStmt) String() string {
	return fmt.Sprintf("While (%s) (%s)", n.condition, n.body)
}

func (n *WhileStmt) Line() int {
	return n.condition.Line()
}

type ClassStmt struct {
	name       Tok
	superclass *VariableExpr // nil without a superclass
	methods    []*FunctionStmt
}

func (n *ClassStmt) String() string {
	methods := make([]string, len(n.methods))
	for i, m := range n.methods {
		methods[i] = m.String()
	}
	if n.superclass == nil {
		return fmt.Sprintf("Class %s {%s}", n.name.Lexeme, strings.Join(methods, ", "))
	}
	return fmt.Sprintf("Class %s < %s {%s}",
		n.name.Lexeme, n.superclass.name.Lexeme, strings.Join(methods, ", "))
}

func (n *ClassStmt) Line() int {
	return n.name.Line
}

func stmtsString(stmts []Stmt) string {
	parts := make([]string, len(stmts))
	for i, s := range stmts {
		parts[i] = s.String()
	}
	return strings.Join(parts, ", ")
}
