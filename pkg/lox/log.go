package lox

import (
	"fmt"
	"os"
	"strings"
)

const (
	ANSI_RESET     = "[0;0m"
	ANSI_BLUE      = "[34;22m"
	ANSI_GREEN     = "[32;22m"
	ANSI_RED       = "[31;22m"
	ANSI_BLUE_BOLD = "[34;1m"
	ANSI_RED_BOLD  = "[31;1m"
)

// Color toggles ANSI escapes in everything written by the Log* helpers
// and the default diagnostics sink.
var Color = true

func paint(code, s string) string {
	if !Color {
		return s
	}
	return code + s
}

func LogDebug(args ...string) {
	fmt.Println(paint(ANSI_BLUE_BOLD, "debug: ") + paint(ANSI_BLUE, strings.Join(args, " ")) + paint(ANSI_RESET, ""))
}

func LogDebugf(s string, args ...interface{}) {
	LogDebug(fmt.Sprintf(s, args...))
}

func LogInteractive(args ...string) {
	fmt.Println(paint(ANSI_GREEN, strings.Join(args, " ")) + paint(ANSI_RESET, ""))
}

func LogInteractivef(s string, args ...interface{}) {
	LogInteractive(fmt.Sprintf(s, args...))
}

func reasonString(reason int) string {
	switch reason {
	case ErrSyntax:
		return "syntax error"
	case ErrRuntime:
		return "runtime error"
	case ErrSystem:
		return "system error"
	case ErrAssert:
		return "invariant violation"
	default:
		return "error"
	}
}

func LogSafeErr(reason int, args ...string) {
	fmt.Fprintln(os.Stderr,
		paint(ANSI_RED_BOLD, reasonString(reason)+": ")+paint(ANSI_RED, strings.Join(args, " "))+paint(ANSI_RESET, ""))
}

func LogErr(reason int, args ...string) {
	LogSafeErr(reason, args...)
	os.Exit(reason)
}

func LogErrf(reason int, s string, args ...interface{}) {
	LogErr(reason, fmt.Sprintf(s, args...))
}
