package lox

import (
	"fmt"
)

// Error reasons are enumerated here to be used in the Err struct,
// the error type shared across all Lox host APIs.
const (
	ErrUnknown = 0
	ErrSyntax  = 1
	ErrRuntime = 2
	ErrSystem  = 40
	ErrAssert  = 100
)

// Err constants represent possible errors that the Lox interpreter
// host may return, outside of diagnostics about the program itself.
type Err struct {
	reason  int
	message string
}

func (e Err) Error() string {
	return e.message
}

// Reason returns the error reason code of the Err.
func (e Err) Reason() int {
	return e.reason
}

// Diagnostic is a single static error found while scanning, parsing
// or resolving a unit. Where is empty for scanner errors, " at end" for
// errors at the end of input, and " at '<lexeme>'" otherwise.
type Diagnostic struct {
	Line    int
	Where   string
	Message string
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("[line %d] Error%s: %s", d.Line, d.Where, d.Message)
}

// AtEnd reports whether the diagnostic was raised at the end of input,
// which is how an incomplete REPL submission shows up.
func (d Diagnostic) AtEnd() bool {
	return d.Where == " at end"
}

func diagnosticAt(tok Tok, message string) Diagnostic {
	if tok.Kind == EOF {
		return Diagnostic{Line: tok.Line, Where: " at end", Message: message}
	}
	return Diagnostic{Line: tok.Line, Where: " at '" + tok.Lexeme + "'", Message: message}
}

// RuntimeError aborts evaluation of the unit that raised it. Token
// locates the offending operator or name.
type RuntimeError struct {
	Token   Tok
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s\n[line %d]", e.Message, e.Token.Line)
}

func runtimeErrorf(tok Tok, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Token: tok, Message: fmt.Sprintf(format, args...)}
}

// Status is the outcome of running one unit through the pipeline.
type Status int

const (
	StatusOK Status = iota
	StatusStaticError
	StatusRuntimeError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusStaticError:
		return "static error"
	case StatusRuntimeError:
		return "runtime error"
	default:
		return "unknown"
	}
}

// ExitCode maps a Status to the conventional process exit code.
func (s Status) ExitCode() int {
	switch s {
	case StatusStaticError:
		return 65
	case StatusRuntimeError:
		return 70
	default:
		return 0
	}
}
