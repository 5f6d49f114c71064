package lox

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// maxArgs caps both parameter and argument lists.
const maxArgs = 255

// errUnwind is returned by parse functions after a diagnostic has been
// recorded; the nearest declaration discards it and resynchronizes.
var errUnwind = errors.New("parse error")

// IDSource hands out NodeIDs in increasing order. A Context owns one so
// that IDs stay unique across every unit it parses.
type IDSource struct {
	last NodeID
}

// Next returns a NodeID never returned before by this IDSource.
func (ids *IDSource) Next() NodeID {
	ids.last++
	return ids.last
}

type parser struct {
	tokens  []Tok
	current int
	ids     *IDSource
	errs    *multierror.Error
}

// Parse transforms a token stream into a list of statements using
// recursive descent. A syntax error inside one declaration is recorded and
// parsing resumes at the next statement boundary, so every diagnostic in
// the unit is returned together in a *multierror.Error. Statements that
// failed to parse are left out of the result.
func Parse(tokens []Tok, ids *IDSource, debugParser bool) ([]Stmt, error) {
	if ids == nil {
		ids = &IDSource{}
	}
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != EOF {
		LogErrf(ErrAssert, "Parse expected a token stream terminated by EOF")
	}

	p := &parser{tokens: tokens, ids: ids}
	stmts := make([]Stmt, 0)
	for !p.atEnd() {
		stmt := p.declaration()
		if stmt == nil {
			continue
		}

		if debugParser {
			LogDebug("parse ->", stmt.String())
		}
		stmts = append(stmts, stmt)
	}

	return stmts, p.errs.ErrorOrNil()
}

func (p *parser) declaration() Stmt {
	var stmt Stmt
	var err error
	switch {
	case p.match(Fun):
		stmt, err = p.function("function")
	case p.match(Class):
		stmt, err = p.classDeclaration()
	case p.match(Var):
		stmt, err = p.varDeclaration()
	default:
		stmt, err = p.statement()
	}

	if err != nil {
		p.synchronize()
		return nil
	}
	return stmt
}

func (p *parser) classDeclaration() (Stmt, error) {
	name, err := p.consume(Identifier, "Expect class name.")
	if err != nil {
		return nil, err
	}

	var superclass *VariableExpr
	if p.match(Less) {
		superName, err := p.consume(Identifier, "Expect superclass name.")
		if err != nil {
			return nil, err
		}
		superclass = &VariableExpr{exprNode: p.node(), name: superName}
	}

	if _, err := p.consume(LeftBrace, "Expect '{' before class body."); err != nil {
		return nil, err
	}

	methods := make([]*FunctionStmt, 0)
	for !p.check(RightBrace) && !p.atEnd() {
		method, err := p.function("method")
		if err != nil {
			return nil, err
		}
		methods = append(methods, method)
	}

	if _, err := p.consume(RightBrace, "Expect '}' after class body."); err != nil {
		return nil, err
	}

	return &ClassStmt{
		name:       name,
		superclass: superclass,
		methods:    methods,
	}, nil
}

// function parses a function declaration or a method, which has no
// leading `fun` keyword.
func (p *parser) function(kind string) (*FunctionStmt, error) {
	name, err := p.consume(Identifier, "Expect "+kind+" name.")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(LeftParen, "Expect '(' after "+kind+" name."); err != nil {
		return nil, err
	}

	params := make([]Tok, 0)
	if !p.check(RightParen) {
		for {
			if len(params) >= maxArgs {
				p.report(p.peek(), "Cannot have more than 255 parameters.")
			}

			param, err := p.consume(Identifier, "Expect parameter name.")
			if err != nil {
				return nil, err
			}
			params = append(params, param)

			if !p.match(Comma) {
				break
			}
		}
	}

	if _, err := p.consume(RightParen, "Expect ')' after parameters."); err != nil {
		return nil, err
	}
	if _, err := p.consume(LeftBrace, "Expect '{' before "+kind+" body."); err != nil {
		return nil, err
	}

	body, err := p.block()
	if err != nil {
		return nil, err
	}

	return &FunctionStmt{
		name:   name,
		params: params,
		body:   body,
	}, nil
}

func (p *parser) varDeclaration() (Stmt, error) {
	name, err := p.consume(Identifier, "Expect variable name.")
	if err != nil {
		return nil, err
	}

	var initializer Expr
	if p.match(Equal) {
		initializer, err = p.expression()
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.consume(Semicolon, "Expect ';' after variable declaration."); err != nil {
		return nil, err
	}
	return &VarStmt{name: name, initializer: initializer}, nil
}

func (p *parser) statement() (Stmt, error) {
	switch {
	case p.match(For):
		return p.forStatement()
	case p.match(If):
		return p.ifStatement()
	case p.match(Print):
		return p.printStatement()
	case p.match(Return):
		return p.returnStatement()
	case p.match(While):
		return p.whileStatement()
	case p.match(LeftBrace):
		line := p.previous().Line
		stmts, err := p.block()
		if err != nil {
			return nil, err
		}
		return &BlockStmt{statements: stmts, line: line}, nil
	default:
		return p.expressionStatement()
	}
}

// block parses declarations up to and including the closing brace. The
// opening brace has already been consumed.
func (p *parser) block() ([]Stmt, error) {
	stmts := make([]Stmt, 0)
	for !p.check(RightBrace) && !p.atEnd() {
		if stmt := p.declaration(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}

	if _, err := p.consume(RightBrace, "Expect '}' after block."); err != nil {
		return nil, err
	}
	return stmts, nil
}

// forStatement desugars a for loop into an optional initializer block
// wrapped around a while loop whose body runs the increment last.
func (p *parser) forStatement() (Stmt, error) {
	forTok := p.previous()
	if _, err := p.consume(LeftParen, "Expect '(' after 'for'."); err != nil {
		return nil, err
	}

	var initializer Stmt
	var err error
	switch {
	case p.match(Semicolon):
		// no initializer
	case p.match(Var):
		initializer, err = p.varDeclaration()
	default:
		initializer, err = p.expressionStatement()
	}
	if err != nil {
		return nil, err
	}

	var condition Expr
	if !p.check(Semicolon) {
		if condition, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(Semicolon, "Expect ';' after loop condition."); err != nil {
		return nil, err
	}

	var increment Expr
	if !p.check(RightParen) {
		if increment, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(RightParen, "Expect ')' after for clauses."); err != nil {
		return nil, err
	}

	body, err := p.statement()
	if err != nil {
		return nil, err
	}

	if increment != nil {
		body = &BlockStmt{
			statements: []Stmt{body, &ExpressionStmt{expression: increment}},
			line:       forTok.Line,
		}
	}
	if condition == nil {
		condition = &LiteralExpr{exprNode: p.node(), value: BooleanValue(true), line: forTok.Line}
	}
	body = &WhileStmt{condition: condition, body: body}

	if initializer != nil {
		body = &BlockStmt{
			statements: []Stmt{initializer, body},
			line:       forTok.Line,
		}
	}
	return body, nil
}

func (p *parser) ifStatement() (Stmt, error) {
	if _, err := p.consume(LeftParen, "Expect '(' after 'if'."); err != nil {
		return nil, err
	}
	condition, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(RightParen, "Expect ')' after if condition."); err != nil {
		return nil, err
	}

	then, err := p.statement()
	if err != nil {
		return nil, err
	}

	var otherwise Stmt
	if p.match(Else) {
		if otherwise, err = p.statement(); err != nil {
			return nil, err
		}
	}

	return &IfStmt{condition: condition, then: then, otherwise: otherwise}, nil
}

func (p *parser) printStatement() (Stmt, error) {
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(Semicolon, "Expect ';' after value."); err != nil {
		return nil, err
	}
	return &PrintStmt{expression: value}, nil
}

func (p *parser) returnStatement() (Stmt, error) {
	keyword := p.previous()

	var value Expr
	var err error
	if !p.check(Semicolon) {
		if value, err = p.expression(); err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(Semicolon, "Expect ';' after return value."); err != nil {
		return nil, err
	}
	return &ReturnStmt{keyword: keyword, value: value}, nil
}

func (p *parser) whileStatement() (Stmt, error) {
	if _, err := p.consume(LeftParen, "Expect '(' after 'while'."); err != nil {
		return nil, err
	}
	condition, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(RightParen, "Expect ')' after condition."); err != nil {
		return nil, err
	}

	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	return &WhileStmt{condition: condition, body: body}, nil
}

func (p *parser) expressionStatement() (Stmt, error) {
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(Semicolon, "Expect ';' after expression."); err != nil {
		return nil, err
	}
	return &ExpressionStmt{expression: expr}, nil
}

func (p *parser) expression() (Expr, error) {
	return p.assignment()
}

func (p *parser) assignment() (Expr, error) {
	expr, err := p.or()
	if err != nil {
		return nil, err
	}

	if p.match(Equal) {
		equals := p.previous()
		value, err := p.assignment()
		if err != nil {
			return nil, err
		}

		switch target := expr.(type) {
		case *VariableExpr:
			return &AssignExpr{exprNode: p.node(), name: target.name, value: value}, nil
		case *GetExpr:
			return &SetExpr{exprNode: p.node(), object: target.object, name: target.name, value: value}, nil
		}

		// reported, but the left side still stands as an expression
		p.report(equals, "Invalid assignment target.")
	}

	return expr, nil
}

func (p *parser) or() (Expr, error) {
	return p.logical(p.and, Or)
}

func (p *parser) and() (Expr, error) {
	return p.logical(p.equality, And)
}

func (p *parser) logical(operand func() (Expr, error), kind Kind) (Expr, error) {
	expr, err := operand()
	if err != nil {
		return nil, err
	}

	for p.match(kind) {
		operator := p.previous()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		expr = &LogicalExpr{exprNode: p.node(), left: expr, operator: operator, right: right}
	}
	return expr, nil
}

func (p *parser) equality() (Expr, error) {
	return p.binary(p.comparison, BangEqual, EqualEqual)
}

func (p *parser) comparison() (Expr, error) {
	return p.binary(p.additive, Greater, GreaterEqual, Less, LessEqual)
}

func (p *parser) additive() (Expr, error) {
	return p.binary(p.multiplicative, Minus, Plus)
}

func (p *parser) multiplicative() (Expr, error) {
	return p.binary(p.unary, Slash, Star)
}

// binary parses a left-associative chain of operand (op operand)*.
func (p *parser) binary(operand func() (Expr, error), kinds ...Kind) (Expr, error) {
	expr, err := operand()
	if err != nil {
		return nil, err
	}

	for p.match(kinds...) {
		operator := p.previous()
		right, err := operand()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{exprNode: p.node(), left: expr, operator: operator, right: right}
	}
	return expr, nil
}

func (p *parser) unary() (Expr, error) {
	if p.match(Bang, Minus) {
		operator := p.previous()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &PrefixExpr{exprNode: p.node(), operator: operator, right: right}, nil
	}

	return p.postfix()
}

func (p *parser) postfix() (Expr, error) {
	expr, err := p.call()
	if err != nil {
		return nil, err
	}

	if p.match(PlusPlus, MinusMinus) {
		return &PostfixExpr{exprNode: p.node(), operator: p.previous(), left: expr}, nil
	}
	return expr, nil
}

func (p *parser) call() (Expr, error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}

	for {
		if p.match(LeftParen) {
			if expr, err = p.finishCall(expr); err != nil {
				return nil, err
			}
		} else if p.match(Dot) {
			name, err := p.consume(Identifier, "Expect property name after '.'.")
			if err != nil {
				return nil, err
			}
			expr = &GetExpr{exprNode: p.node(), object: expr, name: name}
		} else {
			break
		}
	}

	return expr, nil
}

func (p *parser) finishCall(callee Expr) (Expr, error) {
	arguments := make([]Expr, 0)
	if !p.check(RightParen) {
		for {
			if len(arguments) >= maxArgs {
				p.report(p.peek(), "Cannot have more than 255 arguments.")
			}

			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			arguments = append(arguments, arg)

			if !p.match(Comma) {
				break
			}
		}
	}

	paren, err := p.consume(RightParen, "Expect ')' after arguments.")
	if err != nil {
		return nil, err
	}

	return &CallExpr{exprNode: p.node(), callee: callee, paren: paren, arguments: arguments}, nil
}

func (p *parser) primary() (Expr, error) {
	tok := p.peek()
	switch {
	case p.match(False):
		return &LiteralExpr{exprNode: p.node(), value: BooleanValue(false), line: tok.Line}, nil
	case p.match(True):
		return &LiteralExpr{exprNode: p.node(), value: BooleanValue(true), line: tok.Line}, nil
	case p.match(Nil):
		return &LiteralExpr{exprNode: p.node(), value: Null, line: tok.Line}, nil
	case p.match(NumberLiteral):
		return &LiteralExpr{exprNode: p.node(), value: NumberValue(tok.Literal.(float64)), line: tok.Line}, nil
	case p.match(StringLiteral):
		return &LiteralExpr{exprNode: p.node(), value: StringValue(tok.Literal.(string)), line: tok.Line}, nil
	case p.match(Super):
		if _, err := p.consume(Dot, "Expect '.' after 'super'."); err != nil {
			return nil, err
		}
		method, err := p.consume(Identifier, "Expect superclass method name.")
		if err != nil {
			return nil, err
		}
		return &SuperExpr{exprNode: p.node(), keyword: tok, method: method}, nil
	case p.match(This):
		return &ThisExpr{exprNode: p.node(), keyword: tok}, nil
	case p.match(Identifier):
		return &VariableExpr{exprNode: p.node(), name: tok}, nil
	case p.match(LeftParen):
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(RightParen, "Expect ')' after expression."); err != nil {
			return nil, err
		}
		return &GroupingExpr{exprNode: p.node(), expression: expr}, nil
	}

	return nil, p.fail(tok, "Expect expression.")
}

// synchronize discards tokens until the start of what is probably the
// next statement.
func (p *parser) synchronize() {
	p.advance()

	for !p.atEnd() {
		if p.previous().Kind == Semicolon {
			return
		}

		switch p.peek().Kind {
		case Class, Fun, Var, For, If, While, Print, Return:
			return
		}

		p.advance()
	}
}

func (p *parser) node() exprNode {
	return exprNode{id: p.ids.Next()}
}

func (p *parser) report(tok Tok, message string) {
	p.errs = multierror.Append(p.errs, diagnosticAt(tok, message))
}

func (p *parser) fail(tok Tok, message string) error {
	p.report(tok, message)
	return errUnwind
}

func (p *parser) consume(kind Kind, message string) (Tok, error) {
	if p.check(kind) {
		return p.advance(), nil
	}
	return Tok{}, p.fail(p.peek(), message)
}

func (p *parser) match(kinds ...Kind) bool {
	for _, kind := range kinds {
		if p.check(kind) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *parser) check(kind Kind) bool {
	if p.atEnd() {
		return false
	}
	return p.peek().Kind == kind
}

func (p *parser) advance() Tok {
	if !p.atEnd() {
		p.current++
	}
	return p.previous()
}

func (p *parser) atEnd() bool {
	return p.peek().Kind == EOF
}

func (p *parser) peek() Tok {
	return p.tokens[p.current]
}

func (p *parser) previous() Tok {
	return p.tokens[p.current-1]
}
