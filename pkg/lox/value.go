package lox

import (
	"fmt"
	"strconv"
)

// Value represents any value in the Lox programming language.
// Each value corresponds to some primitive or object value created
// during the execution of a Lox program.
type Value interface {
	String() string
	// Equals reports whether the given value is equal to the receiving
	// value. Primitives compare by value; functions, classes and instances
	// compare by identity.
	Equals(Value) bool
}

// Callable is implemented by every value that can appear on the left
// of a call expression.
type Callable interface {
	Value
	Arity() int
	Call(ctx *Context, args []Value) (Value, error)
}

// Null is the single nil value.
var Null = NilValue{}

// nToS formats a number in its shortest round-tripping decimal form,
// so that whole numbers print without a trailing ".0".
func nToS(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// isTruthy treats nil and false as falsey and everything else,
// including 0 and "", as truthy.
func isTruthy(v Value) bool {
	switch tv := v.(type) {
	case NilValue:
		return false
	case BooleanValue:
		return bool(tv)
	default:
		return true
	}
}

// NilValue is the value of `nil` and of anything left uninitialized.
type NilValue struct{}

func (v NilValue) String() string {
	return "nil"
}

func (v NilValue) Equals(other Value) bool {
	_, ok := other.(NilValue)
	return ok
}

// BooleanValue is either `true` or `false`
type BooleanValue bool

func (v BooleanValue) String() string {
	if v {
		return "true"
	}
	return "false"
}

func (v BooleanValue) Equals(other Value) bool {
	if ov, ok := other.(BooleanValue); ok {
		return v == ov
	}
	return false
}

// NumberValue is the only number type, a double-precision float.
type NumberValue float64

func (v NumberValue) String() string {
	return nToS(float64(v))
}

func (v NumberValue) Equals(other Value) bool {
	if ov, ok := other.(NumberValue); ok {
		return v == ov
	}
	return false
}

// StringValue is an immutable string. Its String form is the raw text,
// which is what `print` writes.
type StringValue string

func (v StringValue) String() string {
	return string(v)
}

func (v StringValue) Equals(other Value) bool {
	if ov, ok := other.(StringValue); ok {
		return v == ov
	}
	return false
}

// FunctionValue is a user-defined function or method together with the
// Environment it closes over.
type FunctionValue struct {
	decl          *FunctionStmt
	closure       *Environment
	isInitializer bool
}

func (v *FunctionValue) String() string {
	return "<fn " + v.decl.name.Lexeme + ">"
}

func (v *FunctionValue) Equals(other Value) bool {
	ov, ok := other.(*FunctionValue)
	return ok && v == ov
}

func (v *FunctionValue) Arity() int {
	return len(v.decl.params)
}

func (v *FunctionValue) Call(ctx *Context, args []Value) (Value, error) {
	return v.callIn(ctx, v.closure, args)
}

// callIn runs the function body in a fresh Environment whose parent is
// enclosing, with one binding per parameter.
func (v *FunctionValue) callIn(ctx *Context, enclosing *Environment, args []Value) (Value, error) {
	env := NewEnvironment(enclosing)
	for i, param := range v.decl.params {
		env.Define(param.Lexeme, args[i])
	}

	result, err := ctx.executeBlock(v.decl.body, env)
	if err != nil {
		return nil, err
	}
	if result.returning {
		return result.value, nil
	}
	return Null, nil
}

// bind produces a method closed over an instance, so that `this` in
// the body refers to receiver.
func (v *FunctionValue) bind(receiver *InstanceValue) *BoundMethodValue {
	return &BoundMethodValue{receiver: receiver, method: v}
}

// BoundMethodValue is a method retrieved from an instance. Calling it
// runs the method with `this` bound to the receiver.
type BoundMethodValue struct {
	receiver *InstanceValue
	method   *FunctionValue
}

func (v *BoundMethodValue) String() string {
	return v.method.String()
}

func (v *BoundMethodValue) Equals(other Value) bool {
	ov, ok := other.(*BoundMethodValue)
	return ok && v == ov
}

func (v *BoundMethodValue) Arity() int {
	return v.method.Arity()
}

func (v *BoundMethodValue) Call(ctx *Context, args []Value) (Value, error) {
	this := NewEnvironment(v.method.closure)
	this.Define("this", v.receiver)

	result, err := v.method.callIn(ctx, this, args)
	if err != nil {
		return nil, err
	}

	// init always yields its instance, even on a bare `return;`
	if v.method.isInitializer {
		return v.receiver, nil
	}
	return result, nil
}

// NativeFunctionValue represents a function whose implementation is written
// in Go and built into the runtime.
type NativeFunctionValue struct {
	name  string
	arity int
	exec  func(*Context, []Value) (Value, error)
}

func (v NativeFunctionValue) String() string {
	return "<native fn>"
}

func (v NativeFunctionValue) Equals(other Value) bool {
	if ov, ok := other.(NativeFunctionValue); ok {
		return v.name == ov.name
	}
	return false
}

func (v NativeFunctionValue) Arity() int {
	return v.arity
}

func (v NativeFunctionValue) Call(ctx *Context, args []Value) (Value, error) {
	return v.exec(ctx, args)
}

// ClassValue is a class declared in a Lox program. Calling it
// constructs a new instance.
type ClassValue struct {
	name       string
	superclass *ClassValue // nil without a superclass
	methods    map[string]*FunctionValue
}

func (v *ClassValue) String() string {
	return v.name
}

func (v *ClassValue) Equals(other Value) bool {
	ov, ok := other.(*ClassValue)
	return ok && v == ov
}

// findMethod looks a method up on the class and then along its
// superclass chain, nearest definition first.
func (v *ClassValue) findMethod(name string) (*FunctionValue, bool) {
	for class := v; class != nil; class = class.superclass {
		if method, ok := class.methods[name]; ok {
			return method, true
		}
	}
	return nil, false
}

// Arity of a class is the arity of its initializer, if any.
func (v *ClassValue) Arity() int {
	if init, ok := v.findMethod("init"); ok {
		return init.Arity()
	}
	return 0
}

func (v *ClassValue) Call(ctx *Context, args []Value) (Value, error) {
	instance := &InstanceValue{
		class:  v,
		fields: ValueTable{},
	}

	if init, ok := v.findMethod("init"); ok {
		if _, err := init.bind(instance).Call(ctx, args); err != nil {
			return nil, err
		}
	}
	return instance, nil
}

// InstanceValue is an object constructed from a class. Fields are
// created on first assignment.
type InstanceValue struct {
	class  *ClassValue
	fields ValueTable
}

func (v *InstanceValue) String() string {
	return v.class.name + " instance."
}

func (v *InstanceValue) Equals(other Value) bool {
	ov, ok := other.(*InstanceValue)
	return ok && v == ov
}

// Get reads a field, falling back to a method bound to this instance.
func (v *InstanceValue) Get(name Tok) (Value, error) {
	if val, ok := v.fields[name.Lexeme]; ok {
		return val, nil
	}

	if method, ok := v.class.findMethod(name.Lexeme); ok {
		return method.bind(v), nil
	}

	return nil, runtimeErrorf(name, "Undefined property '%s'.", name.Lexeme)
}

// Set creates or overwrites a field.
func (v *InstanceValue) Set(name Tok, val Value) {
	v.fields[name.Lexeme] = val
}

// typeName is used in debug dumps only.
func typeName(v Value) string {
	switch v.(type) {
	case NilValue:
		return "nil"
	case BooleanValue:
		return "boolean"
	case NumberValue:
		return "number"
	case StringValue:
		return "string"
	case *ClassValue:
		return "class"
	case *InstanceValue:
		return "instance"
	case Callable:
		return "function"
	default:
		return fmt.Sprintf("%T", v)
	}
}
