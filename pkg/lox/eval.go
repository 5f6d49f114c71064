package lox

import (
	"fmt"
)

// completion is the outcome of executing a statement: either it ran to
// the end, or a `return` is unwinding towards the nearest call.
type completion struct {
	returning bool
	value     Value
}

var completed = completion{}

// maxCallDepth bounds nested calls so runaway recursion fails as a
// runtime error instead of exhausting the Go stack.
const maxCallDepth = 4096

func returned(v Value) completion {
	return completion{returning: true, value: v}
}

// executeBlock runs stmts with env as the current Environment and
// restores the previous one on every exit path.
func (ctx *Context) executeBlock(stmts []Stmt, env *Environment) (completion, error) {
	previous := ctx.env
	ctx.env = env
	defer func() { ctx.env = previous }()

	for _, stmt := range stmts {
		result, err := stmt.Exec(ctx)
		if err != nil || result.returning {
			return result, err
		}
	}
	return completed, nil
}

// lookUpVariable reads a resolved local by hop count, or the global
// Environment directly when the resolver left the reference unbound.
func (ctx *Context) lookUpVariable(name Tok, expr Expr) (Value, error) {
	if distance, ok := ctx.locals[expr.ID()]; ok {
		return ctx.env.GetAt(distance, name.Lexeme), nil
	}
	return ctx.Globals.Get(name)
}

func checkNumberOperand(operator Tok, operand Value) (NumberValue, error) {
	if n, ok := operand.(NumberValue); ok {
		return n, nil
	}
	return 0, runtimeErrorf(operator, "Operand must be a number.")
}

func checkNumberOperands(operator Tok, left, right Value) (NumberValue, NumberValue, error) {
	l, lok := left.(NumberValue)
	r, rok := right.(NumberValue)
	if lok && rok {
		return l, r, nil
	}
	return 0, 0, runtimeErrorf(operator, "Operands must be numbers.")
}

func (n *BlockStmt) Exec(ctx *Context) (completion, error) {
	return ctx.executeBlock(n.statements, NewEnvironment(ctx.env))
}

func (n *ClassStmt) Exec(ctx *Context) (completion, error) {
	ctx.env.Define(n.name.Lexeme, Null)

	var superclass *ClassValue
	if n.superclass != nil {
		val, err := n.superclass.Eval(ctx)
		if err != nil {
			return completed, err
		}

		class, isClass := val.(*ClassValue)
		if !isClass {
			return completed, runtimeErrorf(n.superclass.name, "Superclass must be a class.")
		}
		superclass = class
	}

	enclosing := ctx.env
	if superclass != nil {
		ctx.env = NewEnvironment(ctx.env)
		ctx.env.Define("super", superclass)
	}

	methods := make(map[string]*FunctionValue, len(n.methods))
	for _, method := range n.methods {
		methods[method.name.Lexeme] = &FunctionValue{
			decl:          method,
			closure:       ctx.env,
			isInitializer: method.name.Lexeme == "init",
		}
	}

	ctx.env = enclosing

	class := &ClassValue{
		name:       n.name.Lexeme,
		superclass: superclass,
		methods:    methods,
	}
	return completed, ctx.env.Assign(n.name, class)
}

func (n *ExpressionStmt) Exec(ctx *Context) (completion, error) {
	_, err := n.expression.Eval(ctx)
	return completed, err
}

func (n *FunctionStmt) Exec(ctx *Context) (completion, error) {
	ctx.env.Define(n.name.Lexeme, &FunctionValue{
		decl:    n,
		closure: ctx.env,
	})
	return completed, nil
}

func (n *IfStmt) Exec(ctx *Context) (completion, error) {
	cond, err := n.condition.Eval(ctx)
	if err != nil {
		return completed, err
	}

	if isTruthy(cond) {
		return n.then.Exec(ctx)
	} else if n.otherwise != nil {
		return n.otherwise.Exec(ctx)
	}
	return completed, nil
}

func (n *PrintStmt) Exec(ctx *Context) (completion, error) {
	val, err := n.expression.Eval(ctx)
	if err != nil {
		return completed, err
	}

	fmt.Fprintln(ctx.Stdout, val.String())
	return completed, nil
}

func (n *ReturnStmt) Exec(ctx *Context) (completion, error) {
	if n.value == nil {
		return returned(Null), nil
	}

	val, err := n.value.Eval(ctx)
	if err != nil {
		return completed, err
	}
	return returned(val), nil
}

func (n *VarStmt) Exec(ctx *Context) (completion, error) {
	var val Value = Null
	if n.initializer != nil {
		var err error
		if val, err = n.initializer.Eval(ctx); err != nil {
			return completed, err
		}
	}

	ctx.env.Define(n.name.Lexeme, val)
	return completed, nil
}

func (n *WhileStmt) Exec(ctx *Context) (completion, error) {
	for {
		cond, err := n.condition.Eval(ctx)
		if err != nil {
			return completed, err
		}
		if !isTruthy(cond) {
			return completed, nil
		}

		result, err := n.body.Exec(ctx)
		if err != nil || result.returning {
			return result, err
		}
	}
}

func (n *AssignExpr) Eval(ctx *Context) (Value, error) {
	val, err := n.value.Eval(ctx)
	if err != nil {
		return nil, err
	}

	if distance, ok := ctx.locals[n.ID()]; ok {
		ctx.env.AssignAt(distance, n.name.Lexeme, val)
		return val, nil
	}

	if err := ctx.Globals.Assign(n.name, val); err != nil {
		return nil, err
	}
	return val, nil
}

func (n *BinaryExpr) Eval(ctx *Context) (Value, error) {
	left, err := n.left.Eval(ctx)
	if err != nil {
		return nil, err
	}
	right, err := n.right.Eval(ctx)
	if err != nil {
		return nil, err
	}

	switch n.operator.Kind {
	case EqualEqual, BangEqual:
		// equality only admits a number on the right-hand side
		if _, err := checkNumberOperand(n.operator, right); err != nil {
			return nil, err
		}
		equal := left.Equals(right)
		if n.operator.Kind == BangEqual {
			return BooleanValue(!equal), nil
		}
		return BooleanValue(equal), nil
	case Plus:
		switch l := left.(type) {
		case NumberValue:
			if r, ok := right.(NumberValue); ok {
				return l + r, nil
			}
		case StringValue:
			switch r := right.(type) {
			case StringValue:
				return l + r, nil
			case NumberValue:
				return l + StringValue(r.String()), nil
			}
		}
		return nil, runtimeErrorf(n.operator, "Operands must be two numbers or two strings.")
	}

	l, r, err := checkNumberOperands(n.operator, left, right)
	if err != nil {
		return nil, err
	}

	switch n.operator.Kind {
	case Greater:
		return BooleanValue(l > r), nil
	case GreaterEqual:
		return BooleanValue(l >= r), nil
	case Less:
		return BooleanValue(l < r), nil
	case LessEqual:
		return BooleanValue(l <= r), nil
	case Minus:
		return l - r, nil
	case Star:
		return l * r, nil
	case Slash:
		if r == 0 {
			return nil, runtimeErrorf(n.operator, "Cannot divide by zero.")
		}
		return l / r, nil
	}

	LogErrf(ErrAssert, "unknown binary operator %s", n.String())
	return nil, nil
}

func (n *CallExpr) Eval(ctx *Context) (Value, error) {
	callee, err := n.callee.Eval(ctx)
	if err != nil {
		return nil, err
	}

	args := make([]Value, len(n.arguments))
	for i, arg := range n.arguments {
		if args[i], err = arg.Eval(ctx); err != nil {
			return nil, err
		}
	}

	fn, isCallable := callee.(Callable)
	if !isCallable {
		return nil, runtimeErrorf(n.paren, "Can only call functions and classes.")
	}
	if len(args) != fn.Arity() {
		return nil, runtimeErrorf(n.paren, "Expected %d arguments, but got %d.", fn.Arity(), len(args))
	}

	if ctx.depth >= maxCallDepth {
		return nil, runtimeErrorf(n.paren, "Stack overflow.")
	}
	ctx.depth++
	defer func() { ctx.depth-- }()

	return fn.Call(ctx, args)
}

func (n *GetExpr) Eval(ctx *Context) (Value, error) {
	object, err := n.object.Eval(ctx)
	if err != nil {
		return nil, err
	}

	if instance, ok := object.(*InstanceValue); ok {
		return instance.Get(n.name)
	}
	return nil, runtimeErrorf(n.name, "Only instances have properties.")
}

func (n *GroupingExpr) Eval(ctx *Context) (Value, error) {
	return n.expression.Eval(ctx)
}

func (n *LiteralExpr) Eval(ctx *Context) (Value, error) {
	return n.value, nil
}

func (n *LogicalExpr) Eval(ctx *Context) (Value, error) {
	left, err := n.left.Eval(ctx)
	if err != nil {
		return nil, err
	}

	if n.operator.Kind == Or {
		if isTruthy(left) {
			return left, nil
		}
	} else if !isTruthy(left) {
		return left, nil
	}

	return n.right.Eval(ctx)
}

func (n *SetExpr) Eval(ctx *Context) (Value, error) {
	object, err := n.object.Eval(ctx)
	if err != nil {
		return nil, err
	}

	instance, ok := object.(*InstanceValue)
	if !ok {
		return nil, runtimeErrorf(n.name, "Only instances have fields.")
	}

	val, err := n.value.Eval(ctx)
	if err != nil {
		return nil, err
	}
	instance.Set(n.name, val)
	return val, nil
}

// Eval on super finds the method on the superclass of the class whose
// body encloses the expression, bound to the current `this`. The
// Environment holding `this` always sits one hop inside the one holding
// `super`.
func (n *SuperExpr) Eval(ctx *Context) (Value, error) {
	distance, ok := ctx.locals[n.ID()]
	if !ok {
		return nil, runtimeErrorf(n.keyword, "Cannot use 'super' outside of a class.")
	}

	superclass, _ := ctx.env.GetAt(distance, "super").(*ClassValue)
	receiver, _ := ctx.env.GetAt(distance-1, "this").(*InstanceValue)
	if superclass == nil || receiver == nil {
		LogErrf(ErrAssert, "super expression on line %d resolved to a malformed environment", n.Line())
	}

	method, ok := superclass.findMethod(n.method.Lexeme)
	if !ok {
		return nil, runtimeErrorf(n.method, "Undefined property '%s'.", n.method.Lexeme)
	}
	return method.bind(receiver), nil
}

func (n *ThisExpr) Eval(ctx *Context) (Value, error) {
	return ctx.lookUpVariable(n.keyword, n)
}

func (n *PrefixExpr) Eval(ctx *Context) (Value, error) {
	right, err := n.right.Eval(ctx)
	if err != nil {
		return nil, err
	}

	switch n.operator.Kind {
	case Bang:
		return BooleanValue(!isTruthy(right)), nil
	case Minus:
		r, err := checkNumberOperand(n.operator, right)
		if err != nil {
			return nil, err
		}
		return -r, nil
	}

	LogErrf(ErrAssert, "unknown prefix operator %s", n.String())
	return nil, nil
}

// Eval on a postfix operator yields the adjusted value but leaves the
// operand's storage untouched.
func (n *PostfixExpr) Eval(ctx *Context) (Value, error) {
	left, err := n.left.Eval(ctx)
	if err != nil {
		return nil, err
	}

	l, err := checkNumberOperand(n.operator, left)
	if err != nil {
		return nil, err
	}

	switch n.operator.Kind {
	case PlusPlus:
		return l + 1, nil
	case MinusMinus:
		return l - 1, nil
	}

	LogErrf(ErrAssert, "unknown postfix operator %s", n.String())
	return nil, nil
}

func (n *ConditionalExpr) Eval(ctx *Context) (Value, error) {
	return nil, runtimeErrorf(Tok{Kind: EOF, Line: n.Line()}, "Conditional expressions are not supported.")
}

func (n *VariableExpr) Eval(ctx *Context) (Value, error) {
	return ctx.lookUpVariable(n.name, n)
}
