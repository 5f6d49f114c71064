package lox

import (
	"github.com/golang/glog"
	"github.com/hashicorp/go-multierror"
)

type functionType int

const (
	noFunction functionType = iota
	plainFunction
	methodFunction
	initializerFunction
)

type classType int

const (
	noClass classType = iota
	plainClass
	subclass
)

// Locals maps each resolved expression to the number of Environment
// hops between its evaluation site and the binding it refers to.
// Expressions absent from the map refer to globals.
type Locals map[NodeID]int

// scope maps a name to whether its declaration has finished.
type scope map[string]bool

type resolver struct {
	scopes          []scope
	locals          Locals
	currentFunction functionType
	currentClass    classType
	debug           bool
	errs            *multierror.Error
}

// Resolve statically binds every local variable reference in stmts to a
// scope depth. It keeps going after an error, so that all problems in
// the unit are returned together as Diagnostics in a *multierror.Error;
// the returned Locals are only meaningful when the error is nil.
func Resolve(stmts []Stmt, debugResolver bool) (Locals, error) {
	r := &resolver{
		scopes: make([]scope, 0),
		locals: Locals{},
		debug:  debugResolver,
	}
	r.resolveStmts(stmts)

	return r.locals, r.errs.ErrorOrNil()
}

func (r *resolver) resolveStmts(stmts []Stmt) {
	for _, stmt := range stmts {
		r.resolveStmt(stmt)
	}
}

func (r *resolver) resolveStmt(stmt Stmt) {
	switch n := stmt.(type) {
	case *BlockStmt:
		r.beginScope()
		r.resolveStmts(n.statements)
		r.endScope()
	case *ClassStmt:
		r.resolveClass(n)
	case *ExpressionStmt:
		r.resolveExpr(n.expression)
	case *FunctionStmt:
		r.declare(n.name)
		r.define(n.name)
		r.resolveFunction(n, plainFunction)
	case *IfStmt:
		r.resolveExpr(n.condition)
		r.resolveStmt(n.then)
		if n.otherwise != nil {
			r.resolveStmt(n.otherwise)
		}
	case *PrintStmt:
		r.resolveExpr(n.expression)
	case *ReturnStmt:
		if r.currentFunction == noFunction {
			r.report(n.keyword, "Cannot return from top-level code.")
		}
		if n.value != nil {
			if r.currentFunction == initializerFunction {
				r.report(n.keyword, "Cannot return a value from an initializer.")
			}
			r.resolveExpr(n.value)
		}
	case *VarStmt:
		r.declare(n.name)
		if n.initializer != nil {
			r.resolveExpr(n.initializer)
		}
		r.define(n.name)
	case *WhileStmt:
		r.resolveExpr(n.condition)
		r.resolveStmt(n.body)
	default:
		LogErrf(ErrAssert, "resolver met an unknown statement %s", stmt)
	}
}

func (r *resolver) resolveClass(n *ClassStmt) {
	enclosingClass := r.currentClass
	r.currentClass = plainClass
	defer func() { r.currentClass = enclosingClass }()

	r.declare(n.name)
	r.define(n.name)

	if n.superclass != nil {
		if n.superclass.name.Lexeme == n.name.Lexeme {
			r.report(n.superclass.name, "A class cannot inherit from itself.")
		}

		r.currentClass = subclass
		r.resolveExpr(n.superclass)

		r.beginScope()
		r.peek()["super"] = true
	}

	r.beginScope()
	r.peek()["this"] = true

	for _, method := range n.methods {
		kind := methodFunction
		if method.name.Lexeme == "init" {
			kind = initializerFunction
		}
		r.resolveFunction(method, kind)
	}

	r.endScope()
	if n.superclass != nil {
		r.endScope()
	}
}

func (r *resolver) resolveFunction(fn *FunctionStmt, kind functionType) {
	enclosingFunction := r.currentFunction
	r.currentFunction = kind
	defer func() { r.currentFunction = enclosingFunction }()

	r.beginScope()
	for _, param := range fn.params {
		r.declare(param)
		r.define(param)
	}
	r.resolveStmts(fn.body)
	r.endScope()
}

func (r *resolver) resolveExpr(expr Expr) {
	switch n := expr.(type) {
	case *AssignExpr:
		r.resolveExpr(n.value)
		r.resolveLocal(n, n.name)
	case *BinaryExpr:
		r.resolveExpr(n.left)
		r.resolveExpr(n.right)
	case *CallExpr:
		r.resolveExpr(n.callee)
		for _, arg := range n.arguments {
			r.resolveExpr(arg)
		}
	case *GetExpr:
		r.resolveExpr(n.object)
	case *GroupingExpr:
		r.resolveExpr(n.expression)
	case *LiteralExpr:
		// nothing to bind
	case *LogicalExpr:
		r.resolveExpr(n.left)
		r.resolveExpr(n.right)
	case *SetExpr:
		r.resolveExpr(n.value)
		r.resolveExpr(n.object)
	case *SuperExpr:
		switch r.currentClass {
		case noClass:
			r.report(n.keyword, "Cannot use 'super' outside of a class.")
		case plainClass:
			r.report(n.keyword, "Cannot use 'super' in a class with no superclass.")
		}
		r.resolveLocal(n, n.keyword)
	case *ThisExpr:
		if r.currentClass == noClass {
			r.report(n.keyword, "Cannot use 'this' outside of a class.")
			return
		}
		r.resolveLocal(n, n.keyword)
	case *PrefixExpr:
		r.resolveExpr(n.right)
	case *PostfixExpr:
		r.resolveExpr(n.left)
	case *ConditionalExpr:
		r.resolveExpr(n.condition)
		r.resolveExpr(n.then)
		r.resolveExpr(n.otherwise)
	case *VariableExpr:
		if len(r.scopes) > 0 {
			if ready, declared := r.peek()[n.name.Lexeme]; declared && !ready {
				r.report(n.name, "Cannot read local variable in its own initializer.")
			}
		}
		r.resolveLocal(n, n.name)
	default:
		LogErrf(ErrAssert, "resolver met an unknown expression %s", expr)
	}
}

// resolveLocal records the depth of the innermost scope declaring name.
// Names found in no scope are left for global lookup.
func (r *resolver) resolveLocal(expr Expr, name Tok) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name.Lexeme]; ok {
			depth := len(r.scopes) - 1 - i
			r.locals[expr.ID()] = depth

			if glog.V(7) {
				glog.Infof("resolved '%s' (node %d) on line %d at depth %d",
					name.Lexeme, expr.ID(), name.Line, depth)
			}
			if r.debug {
				LogDebugf("resolve -> '%s' [line %d] depth %d", name.Lexeme, name.Line, depth)
			}
			return
		}
	}
}

func (r *resolver) beginScope() {
	r.scopes = append(r.scopes, scope{})
}

func (r *resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *resolver) peek() scope {
	return r.scopes[len(r.scopes)-1]
}

// declare adds name to the innermost scope as not yet ready. Globals
// are not tracked, so redeclaring a global is allowed.
func (r *resolver) declare(name Tok) {
	if len(r.scopes) == 0 {
		return
	}

	s := r.peek()
	if _, exists := s[name.Lexeme]; exists {
		r.report(name, "Variable with this name already declared in this scope.")
		return
	}
	s[name.Lexeme] = false
}

func (r *resolver) define(name Tok) {
	if len(r.scopes) == 0 {
		return
	}
	r.peek()[name.Lexeme] = true
}

func (r *resolver) report(tok Tok, message string) {
	r.errs = multierror.Append(r.errs, diagnosticAt(tok, message))
}
