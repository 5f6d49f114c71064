package lox

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestContext returns a Context whose output and errors are captured
// and whose exit() builtin records the code instead of exiting.
func newTestContext(exitCode *int) (*Context, *bytes.Buffer, *bytes.Buffer) {
	eng := &Engine{
		Exit: func(code int) {
			if exitCode != nil {
				*exitCode = code
			}
		},
	}
	ctx := eng.CreateContext()

	var stdout, stderr bytes.Buffer
	ctx.Stdout = &stdout
	ctx.Reporter = NewReporter(FormatOptions{}, &stderr)
	return ctx, &stdout, &stderr
}

func run(t *testing.T, source string) (string, string, Status) {
	ctx, stdout, stderr := newTestContext(nil)
	status := ctx.Run(source)
	return stdout.String(), stderr.String(), status
}

func expectOutput(t *testing.T, source string, expected string) {
	stdout, stderr, status := run(t, source)
	assert.Equal(t, StatusOK, status, "stderr: %s", stderr)
	assert.Equal(t, expected, stdout)
}

func expectRuntimeError(t *testing.T, source string, expected string) {
	_, stderr, status := run(t, source)
	assert.Equal(t, StatusRuntimeError, status)
	assert.Equal(t, expected, stderr)
}

func TestArithmetic(t *testing.T) {
	t.Parallel()

	expectOutput(t, "print 1 + 2 * 3;", "7\n")
	expectOutput(t, "print (1 + 2) * 3;", "9\n")
	expectOutput(t, "print 7 / 2;", "3.5\n")
	expectOutput(t, "print -(1.5);", "-1.5\n")
	expectOutput(t, "print 3.0;", "3\n")
	expectOutput(t, "print 0.1 + 0.2;", "0.30000000000000004\n")
	expectOutput(t, "print 2 < 3; print 3 <= 3; print 2 > 3; print 2 >= 3;", "true\ntrue\nfalse\nfalse\n")
}

func TestDivideByZero(t *testing.T) {
	t.Parallel()

	expectRuntimeError(t, "print 1 / 0;", "Cannot divide by zero.\n[line 1]\n")
}

func TestOperandTypes(t *testing.T) {
	t.Parallel()

	expectRuntimeError(t, "print 1 < \"a\";", "Operands must be numbers.\n[line 1]\n")
	expectRuntimeError(t, "print -\"a\";", "Operand must be a number.\n[line 1]\n")
	expectRuntimeError(t, "print nil * 2;", "Operands must be numbers.\n[line 1]\n")
}

func TestStringConcatenation(t *testing.T) {
	t.Parallel()

	expectOutput(t, `print "a" + "b";`, "ab\n")
	expectOutput(t, `print "a" + 1;`, "a1\n")
	expectOutput(t, `print "n=" + 2.5;`, "n=2.5\n")
	expectRuntimeError(t, `print 1 + "a";`, "Operands must be two numbers or two strings.\n[line 1]\n")
	expectRuntimeError(t, `print true + true;`, "Operands must be two numbers or two strings.\n[line 1]\n")
}

func TestEqualityRequiresNumberOnTheRight(t *testing.T) {
	t.Parallel()

	expectOutput(t, "print 1 == 1; print 1 != 2; print nil == 1; print \"a\" == 1;", "true\ntrue\nfalse\nfalse\n")
	expectRuntimeError(t, `print "a" == "a";`, "Operand must be a number.\n[line 1]\n")
	expectRuntimeError(t, "print 1 != nil;", "Operand must be a number.\n[line 1]\n")
}

func TestTruthinessAndLogic(t *testing.T) {
	t.Parallel()

	expectOutput(t, `print !nil; print !0; print !"";`, "true\nfalse\nfalse\n")
	expectOutput(t, `print nil or "x"; print false and 1; print 1 and 2;`, "x\nfalse\n2\n")

	// the right side is never evaluated when short-circuited
	expectOutput(t, "print true or undefined; print false and undefined;", "true\nfalse\n")
}

func TestPostfixDoesNotWriteBack(t *testing.T) {
	t.Parallel()

	expectOutput(t, "var i = 1; print i++; print i--; print i;", "2\n0\n1\n")
	expectRuntimeError(t, `var s = "a"; print s++;`, "Operand must be a number.\n[line 1]\n")
}

func TestShadowing(t *testing.T) {
	t.Parallel()

	expectOutput(t, "var a = 1; { var a = 2; print a; } print a;", "2\n1\n")
	expectOutput(t, "var a = 1; { a = 2; } print a;", "2\n")
}

func TestControlFlow(t *testing.T) {
	t.Parallel()

	expectOutput(t, "if (1 < 2) print \"yes\"; else print \"no\";", "yes\n")
	expectOutput(t, "if (nil) print \"yes\"; else print \"no\";", "no\n")
	expectOutput(t, "var i = 0; while (i < 3) { print i; i = i + 1; }", "0\n1\n2\n")
	expectOutput(t, "for (var i = 0; i < 3; i = i + 1) print i;", "0\n1\n2\n")
}

func TestFunctions(t *testing.T) {
	t.Parallel()

	source := `
fun fib(n) {
  if (n < 2) return n;
  return fib(n - 1) + fib(n - 2);
}
print fib(10);
fun noReturn() {}
print noReturn();
print fib;
print clock;`
	expectOutput(t, source, "55\nnil\n<fn fib>\n<native fn>\n")
}

func TestReturnUnwindsLoops(t *testing.T) {
	t.Parallel()

	source := `
fun find() {
  for (var i = 0; i < 10; i = i + 1) {
    while (true) {
      if (i == 3) return i;
      i = i + 1;
    }
  }
  return -1;
}
print find();`
	expectOutput(t, source, "3\n")
}

func TestClosureCounters(t *testing.T) {
	t.Parallel()

	source := `
fun makeCounter() {
  var count = 0;
  fun counter() {
    count = count + 1;
    print count;
  }
  return counter;
}
var c1 = makeCounter();
var c2 = makeCounter();
c1();
c1();
c2();
c1();`
	expectOutput(t, source, "1\n2\n1\n3\n")
}

func TestClosureCapturesDefiningScope(t *testing.T) {
	t.Parallel()

	source := `
var a = "global";
{
  fun show() { print a; }
  show();
  var a = "block";
  show();
}`
	expectOutput(t, source, "global\nglobal\n")
}

func TestClasses(t *testing.T) {
	t.Parallel()

	source := `
class A {
  init(name) { this.name = name; }
  greet() { print "hi " + this.name; }
  kind() { return "A"; }
}
class B < A {
  kind() { return "B/" + super.kind(); }
}
var b = B("bob");
b.greet();
print b.kind();
print b;
print B;`
	expectOutput(t, source, "hi bob\nB/A\nB instance.\nB\n")
}

func TestInitializers(t *testing.T) {
	t.Parallel()

	expectOutput(t, "class C { init() { this.x = 1; } } var c = C(); print c.x; print c.init();", "1\nC instance.\n")
	expectOutput(t, "class D { init() { return; } } print D();", "D instance.\n")
	expectOutput(t, "class E {} print E();", "E instance.\n")
	expectRuntimeError(t, "class P { init(a, b) {} } P(1);", "Expected 2 arguments, but got 1.\n[line 1]\n")
}

func TestFieldsAndMethods(t *testing.T) {
	t.Parallel()

	source := `
class Box {
  init(v) { this.v = v; }
  get() { return this.v; }
}
var box = Box(7);
var get = box.get;
box.v = 8;
print get();
box.get = "shadowed";
print box.get;
box.extra = true;
print box.extra;`
	expectOutput(t, source, "8\nshadowed\ntrue\n")
}

func TestInheritedLookup(t *testing.T) {
	t.Parallel()

	source := `
class Base { hello() { return "base"; } who() { return "base"; } }
class Mid < Base { who() { return "mid"; } }
class Leaf < Mid {}
var l = Leaf();
print l.hello();
print l.who();`
	expectOutput(t, source, "base\nmid\n")
}

func TestRuntimeErrors(t *testing.T) {
	t.Parallel()

	expectRuntimeError(t, "print x;", "Undefined variable 'x'.\n[line 1]\n")
	expectRuntimeError(t, "x = 1;", "Undefined variable 'x'.\n[line 1]\n")
	expectRuntimeError(t, "class E {}\nprint E().nope;", "Undefined property 'nope'.\n[line 2]\n")
	expectRuntimeError(t, "var n = 1; print n.x;", "Only instances have properties.\n[line 1]\n")
	expectRuntimeError(t, "var n = 1; n.x = 2;", "Only instances have fields.\n[line 1]\n")
	expectRuntimeError(t, `"a"();`, "Can only call functions and classes.\n[line 1]\n")
	expectRuntimeError(t, "var NotClass = 1; class F < NotClass {}", "Superclass must be a class.\n[line 1]\n")
	expectRuntimeError(t, "clock(1);", "Expected 0 arguments, but got 1.\n[line 1]\n")
}

func TestArityMismatchSkipsBody(t *testing.T) {
	t.Parallel()

	for _, call := range []string{"f(1);", "f(1, 2, 3);"} {
		stdout, stderr, status := run(t, `fun f(a, b) { print "body"; }`+"\n"+call)
		assert.Equal(t, StatusRuntimeError, status)
		assert.Empty(t, stdout)
		assert.Contains(t, stderr, "Expected 2 arguments, but got ")
	}
}

func TestRuntimeErrorAbortsUnit(t *testing.T) {
	t.Parallel()

	stdout, stderr, status := run(t, "print 1;\nprint x;\nprint 2;")
	assert.Equal(t, StatusRuntimeError, status)
	assert.Equal(t, "1\n", stdout)
	assert.Equal(t, "Undefined variable 'x'.\n[line 2]\n", stderr)
}

func TestStaticErrorSkipsEvaluation(t *testing.T) {
	t.Parallel()

	stdout, stderr, status := run(t, "print 1;\nprint ;")
	assert.Equal(t, StatusStaticError, status)
	assert.Empty(t, stdout)
	assert.Equal(t, "[line 2] Error at ';': Expect expression.\n", stderr)

	stdout, stderr, status = run(t, "print 1;\nreturn 2;")
	assert.Equal(t, StatusStaticError, status)
	assert.Empty(t, stdout)
	assert.Equal(t, "[line 2] Error at 'return': Cannot return from top-level code.\n", stderr)
}

func TestStatePersistsAcrossUnits(t *testing.T) {
	t.Parallel()

	ctx, stdout, stderr := newTestContext(nil)

	require.Equal(t, StatusOK, ctx.Run("var a = 1;"))
	require.Equal(t, StatusOK, ctx.Run("fun make() { var n = 5; fun get() { return n + a; } return get; }"))
	require.Equal(t, StatusRuntimeError, ctx.Run("print missing;"))
	require.Equal(t, StatusStaticError, ctx.Run("print ;"))
	require.Equal(t, StatusOK, ctx.Run("var g = make(); print g();"))
	require.Equal(t, StatusOK, ctx.Run("var a = 10; print g();"))

	assert.Equal(t, "6\n15\n", stdout.String())
	assert.Equal(t, 1, ctx.Reporter.Errors())
	assert.Equal(t, 1, ctx.Reporter.RuntimeErrors())
	assert.NotEmpty(t, stderr.String())
}

func TestRuntimeErrorRestoresEnvironment(t *testing.T) {
	t.Parallel()

	ctx, stdout, _ := newTestContext(nil)

	require.Equal(t, StatusRuntimeError, ctx.Run("var a = \"global\"; { var a = \"inner\"; fun f() { return nope; } f(); }"))
	require.Equal(t, StatusOK, ctx.Run("print a;"))
	assert.Equal(t, "global\n", stdout.String())
}

func TestOversizedNumberLiteral(t *testing.T) {
	t.Parallel()

	expectOutput(t, "print 1"+strings.Repeat("0", 400)+";", "+Inf\n")
}

func TestStackOverflow(t *testing.T) {
	t.Parallel()

	ctx, stdout, stderr := newTestContext(nil)

	require.Equal(t, StatusRuntimeError, ctx.Run("fun f(n) { return f(n + 1); } f(0);"))
	assert.Equal(t, "Stack overflow.\n[line 1]\n", stderr.String())
	assert.Equal(t, 0, ctx.depth)

	// the session survives and calls work again
	require.Equal(t, StatusOK, ctx.Run("fun g(n) { if (n > 0) return g(n - 1); return n; } print g(100);"))
	assert.Equal(t, "0\n", stdout.String())
}

func TestNatives(t *testing.T) {
	t.Parallel()

	expectOutput(t, "print clock() > 0;", "true\n")

	code := 0
	ctx, stdout, _ := newTestContext(&code)
	assert.Equal(t, StatusOK, ctx.Run(`exit(); print "after hook";`))
	assert.Equal(t, 1, code)
	assert.Equal(t, "after hook\n", stdout.String())
}

func TestConditionalIsNotEvaluated(t *testing.T) {
	t.Parallel()

	ctx, _, _ := newTestContext(nil)
	line := 4
	cond := &ConditionalExpr{
		condition: &LiteralExpr{value: BooleanValue(true), line: line},
		then:      &LiteralExpr{value: NumberValue(1), line: line},
		otherwise: &LiteralExpr{value: NumberValue(2), line: line},
	}

	_, err := cond.Eval(ctx)
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, line, rerr.Token.Line)
}
