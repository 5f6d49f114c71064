package lox

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Engine holds the settings shared by every Context it creates:
// debugging flags and the hook used by the exit() builtin.
type Engine struct {
	Debug DebugConfig

	// Exit terminates the host process. It defaults to os.Exit and may be
	// replaced, for example in tests.
	Exit func(code int)
}

// DebugConfig defines any debugging flags referenced at runtime
type DebugConfig struct {
	Lex     bool `yaml:"lex"`
	Parse   bool `yaml:"parse"`
	Resolve bool `yaml:"resolve"`
	Dump    bool `yaml:"dump"`
}

func (eng *Engine) exit(code int) {
	if eng.Exit != nil {
		eng.Exit(code)
		return
	}
	os.Exit(code)
}

// CreateContext creates and initializes a new Context tied to a given
// Engine, with the builtins loaded into its globals.
func (eng *Engine) CreateContext() *Context {
	globals := NewEnvironment(nil)
	ctx := &Context{
		Engine:   eng,
		Globals:  globals,
		Stdout:   os.Stdout,
		Reporter: DefaultReporter(FormatOptions{Colors: Color}),
		env:      globals,
		locals:   Locals{},
	}

	ctx.LoadEnvironment()
	return ctx
}

// Context represents a single interpreter session. Its global
// Environment, resolver annotations and node ids persist across every
// unit it runs, so later units see earlier declarations.
type Context struct {
	Engine *Engine
	// Globals is the outermost Environment
	Globals *Environment
	// Stdout receives the output of print statements
	Stdout io.Writer
	// Reporter receives static diagnostics and runtime errors
	Reporter Reporter
	// currently executing file's path, if any
	File string

	env    *Environment
	depth  int // calls currently in progress
	locals Locals
	ids    IDSource
}

// Dump prints the current state of the Context's global Environment
func (ctx *Context) Dump() {
	LogDebug("globals dump", ctx.Globals.String())
}

// Run sends one unit of source text through scanning, parsing,
// resolution and evaluation. Static diagnostics from any pass skip
// evaluation of the whole unit; a runtime error stops it at the
// offending statement. Problems go to the Context's Reporter.
func (ctx *Context) Run(source string) Status {
	debug := ctx.Engine.Debug

	tokens, lexErr := Tokenize(source, debug.Lex)
	reportAll(ctx.Reporter, lexErr)

	stmts, parseErr := Parse(tokens, &ctx.ids, debug.Parse)
	reportAll(ctx.Reporter, parseErr)

	if glog.V(5) {
		glog.V(5).Infof("unit %s: %d tokens, %d statements", ctx.unitName(), len(tokens), len(stmts))
	}
	if lexErr != nil || parseErr != nil {
		return StatusStaticError
	}

	locals, resolveErr := Resolve(stmts, debug.Resolve)
	if resolveErr != nil {
		reportAll(ctx.Reporter, resolveErr)
		return StatusStaticError
	}
	for id, depth := range locals {
		ctx.locals[id] = depth
	}

	status := ctx.interpret(stmts)
	if debug.Dump {
		ctx.Dump()
	}
	return status
}

func (ctx *Context) interpret(stmts []Stmt) Status {
	for _, stmt := range stmts {
		if _, err := stmt.Exec(ctx); err != nil {
			if rerr, ok := err.(*RuntimeError); ok {
				ctx.Reporter.ReportRuntime(rerr.Token.Line, rerr.Message)
			} else {
				ctx.Reporter.ReportRuntime(stmt.Line(), err.Error())
			}
			glog.V(5).Infof("unit %s aborted: %v", ctx.unitName(), err)
			return StatusRuntimeError
		}
	}
	return StatusOK
}

func (ctx *Context) unitName() string {
	if ctx.File != "" {
		return ctx.File
	}
	return "<input>"
}

// Exec runs a Lox program defined by an io.Reader as a single unit.
// This is the main way to invoke Lox programs from Go.
func (ctx *Context) Exec(input io.Reader) (Status, error) {
	source, err := ioutil.ReadAll(input)
	if err != nil {
		return StatusOK, errors.WithStack(Err{
			ErrSystem,
			fmt.Sprintf("could not read program:\n\t-> %s", err),
		})
	}
	return ctx.Run(string(source)), nil
}

// ExecPath is a convenience function to Exec() a program file in a given Context.
func (ctx *Context) ExecPath(filePath string) (Status, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return StatusOK, errors.WithStack(Err{
			ErrSystem,
			fmt.Sprintf("could not open %s for execution:\n\t-> %s", filePath, err),
		})
	}
	defer file.Close()

	ctx.File = filePath
	defer func() { ctx.File = "" }()

	return ctx.Exec(file)
}

// Incomplete reports whether source fails to parse only because it ends
// too early, as when a REPL user is partway through a block.
func Incomplete(source string) bool {
	if strings.TrimSpace(source) == "" {
		return false
	}

	tokens, _ := Tokenize(source, false)
	_, err := Parse(tokens, nil, false)
	for _, d := range Diagnostics(err) {
		if d.AtEnd() {
			return true
		}
	}
	return false
}
