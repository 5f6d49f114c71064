package lox

import (
	"time"

	"github.com/golang/glog"
)

// LoadEnvironment loads all builtins to a given Context's globals.
func (ctx *Context) LoadEnvironment() {
	ctx.LoadFunc("clock", 0, loxClock)
	ctx.LoadFunc("exit", 0, loxExit)
}

// LoadFunc loads a single Go-implemented function into a Context.
func (ctx *Context) LoadFunc(
	name string,
	arity int,
	exec func(*Context, []Value) (Value, error),
) {
	ctx.Globals.Define(name, NativeFunctionValue{
		name:  name,
		arity: arity,
		exec:  exec,
	})
}

// loxClock returns wall-clock time in seconds since the Unix epoch,
// with sub-second precision.
func loxClock(ctx *Context, in []Value) (Value, error) {
	return NumberValue(float64(time.Now().UnixNano()) / 1e9), nil
}

// loxExit terminates the host with status 1 through the Engine's exit
// hook. If the hook returns, the call yields nil.
func loxExit(ctx *Context, in []Value) (Value, error) {
	glog.V(5).Info("exit() called, terminating with status 1")
	glog.Flush()

	ctx.Engine.exit(1)
	return Null, nil
}
