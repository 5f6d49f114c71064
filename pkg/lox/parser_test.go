package lox

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, source string) ([]Stmt, error) {
	tokens, err := Tokenize(source, false)
	require.NoError(t, err)
	return Parse(tokens, nil, false)
}

func TestParsePrecedence(t *testing.T) {
	t.Parallel()

	stmts, err := parse(t, "print 1 + 2 * 3;")
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Equal(t,
		"Print (Binary (Literal 1) + (Binary (Literal 2) * (Literal 3)))",
		stmts[0].String())

	stmts, err = parse(t, "a = b or c and !d;")
	require.NoError(t, err)
	assert.Equal(t,
		"Expression (Assign a = (Logical (Variable 'b') or (Logical (Variable 'c') and (Prefix ! (Variable 'd')))))",
		stmts[0].String())
}

func TestParseCallChains(t *testing.T) {
	t.Parallel()

	stmts, err := parse(t, "a().b.c(1, 2);")
	require.NoError(t, err)
	assert.Equal(t,
		"Expression (Call (Get (Get (Call (Variable 'a') on ()).b).c) on (Literal 1, Literal 2))",
		stmts[0].String())

	stmts, err = parse(t, "x.y = i++;")
	require.NoError(t, err)
	assert.Equal(t,
		"Expression (Set (Variable 'x').y = (Postfix (Variable 'i') ++))",
		stmts[0].String())
}

func TestParseTwoSyntaxErrors(t *testing.T) {
	t.Parallel()

	stmts, err := parse(t, "print ;\nvar = 1;\nprint 3;")
	require.Error(t, err)

	diags := Diagnostics(err)
	require.Len(t, diags, 2)
	assert.Equal(t, "[line 1] Error at ';': Expect expression.", diags[0].Error())
	assert.Equal(t, "[line 2] Error at '=': Expect variable name.", diags[1].Error())

	// parsing resumed after each error
	require.Len(t, stmts, 1)
	assert.Equal(t, "Print (Literal 3)", stmts[0].String())
}

func TestParseInvalidAssignmentTarget(t *testing.T) {
	t.Parallel()

	stmts, err := parse(t, "1 = 2;")
	diags := Diagnostics(err)
	require.Len(t, diags, 1)
	assert.Equal(t, "[line 1] Error at '=': Invalid assignment target.", diags[0].Error())

	// the error does not abandon the statement
	assert.Len(t, stmts, 1)
}

func TestParseErrorAtEnd(t *testing.T) {
	t.Parallel()

	_, err := parse(t, "print 1")
	diags := Diagnostics(err)
	require.Len(t, diags, 1)
	assert.True(t, diags[0].AtEnd())
	assert.Equal(t, "[line 1] Error at end: Expect ';' after value.", diags[0].Error())
}

func TestParseForDesugaring(t *testing.T) {
	t.Parallel()

	stmts, err := parse(t, "for (var i = 0; i < 3; i = i + 1) print i;")
	require.NoError(t, err)
	require.Len(t, stmts, 1)

	outer, ok := stmts[0].(*BlockStmt)
	require.True(t, ok, "expected an initializer block, got %s", stmts[0])
	require.Len(t, outer.statements, 2)
	assert.IsType(t, &VarStmt{}, outer.statements[0])

	loop, ok := outer.statements[1].(*WhileStmt)
	require.True(t, ok)
	body, ok := loop.body.(*BlockStmt)
	require.True(t, ok)
	require.Len(t, body.statements, 2)
	assert.IsType(t, &PrintStmt{}, body.statements[0])
	assert.IsType(t, &ExpressionStmt{}, body.statements[1])

	stmts, err = parse(t, "for (;;) print 1;")
	require.NoError(t, err)
	loop, ok = stmts[0].(*WhileStmt)
	require.True(t, ok)
	assert.Equal(t, "Literal true", loop.condition.String())
	assert.IsType(t, &PrintStmt{}, loop.body)
}

func TestParseClass(t *testing.T) {
	t.Parallel()

	stmts, err := parse(t, "class B < A { init(x) { this.x = x; } get() { return super.get(); } }")
	require.NoError(t, err)

	class, ok := stmts[0].(*ClassStmt)
	require.True(t, ok)
	assert.Equal(t, "B", class.name.Lexeme)
	require.NotNil(t, class.superclass)
	assert.Equal(t, "A", class.superclass.name.Lexeme)
	require.Len(t, class.methods, 2)
	assert.Equal(t, "init", class.methods[0].name.Lexeme)
	assert.Len(t, class.methods[0].params, 1)
}

func TestParseArgumentLimit(t *testing.T) {
	t.Parallel()

	args := make([]string, 256)
	for i := range args {
		args[i] = "1"
	}
	stmts, err := parse(t, "f("+strings.Join(args, ", ")+");")

	diags := Diagnostics(err)
	require.Len(t, diags, 1)
	assert.Equal(t, "Cannot have more than 255 arguments.", diags[0].Message)
	assert.Len(t, stmts, 1)
}

func TestParseParameterLimit(t *testing.T) {
	t.Parallel()

	params := make([]string, 256)
	for i := range params {
		params[i] = fmt.Sprintf("p%d", i)
	}
	list := strings.Join(params, ", ")

	for _, source := range []string{
		"fun f(" + list + ") {}\nprint 1;",
		"class C { m(" + list + ") {} }\nprint 1;",
	} {
		stmts, err := parse(t, source)

		diags := Diagnostics(err)
		require.Len(t, diags, 1, source)
		assert.Equal(t, "[line 1] Error at 'p255': Cannot have more than 255 parameters.", diags[0].Error())
		// the oversized declaration still parses, as does what follows
		assert.Len(t, stmts, 2)
	}
}

func TestParseNodeIDsAreUnique(t *testing.T) {
	t.Parallel()

	ids := &IDSource{}
	seen := map[NodeID]bool{}
	for _, source := range []string{"print a;", "print a;"} {
		tokens, err := Tokenize(source, false)
		require.NoError(t, err)
		stmts, err := Parse(tokens, ids, false)
		require.NoError(t, err)

		id := stmts[0].(*PrintStmt).expression.ID()
		assert.False(t, seen[id], "node id %d handed out twice", id)
		seen[id] = true
	}
}

func TestIncomplete(t *testing.T) {
	t.Parallel()

	assert.True(t, Incomplete("fun f() {"))
	assert.True(t, Incomplete("print (1 +"))
	assert.False(t, Incomplete("print 1;"))
	assert.False(t, Incomplete("print ;"))
	assert.False(t, Incomplete("   "))
}
