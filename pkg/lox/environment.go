package lox

import (
	"fmt"
	"sort"
	"strings"
)

const maxPrintLen = 120

// ValueTable is used anytime a map of names to Lox Values is needed,
// and is notably used to represent environments and instance fields.
type ValueTable map[string]Value

// Environment represents the variables local to one block or call,
// and recursively references its enclosing Environment. Closures and
// bound methods keep their defining Environment alive by holding it.
type Environment struct {
	parent *Environment
	vt     ValueTable
}

// NewEnvironment returns an empty Environment nested inside parent.
// A nil parent creates a global Environment.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		parent: parent,
		vt:     ValueTable{},
	}
}

// Define binds name in this Environment, shadowing or overwriting any
// previous binding of the same name here.
func (env *Environment) Define(name string, val Value) {
	env.vt[name] = val
}

// Get a value from the environment chain
func (env *Environment) Get(name Tok) (Value, error) {
	for e := env; e != nil; e = e.parent {
		if val, ok := e.vt[name.Lexeme]; ok {
			return val, nil
		}
	}

	return nil, runtimeErrorf(name, "Undefined variable '%s'.", name.Lexeme)
}

// Assign updates the nearest existing binding of name in the chain.
// Assignment never creates a binding.
func (env *Environment) Assign(name Tok, val Value) error {
	for e := env; e != nil; e = e.parent {
		if _, ok := e.vt[name.Lexeme]; ok {
			e.vt[name.Lexeme] = val
			return nil
		}
	}

	return runtimeErrorf(name, "Undefined variable '%s'.", name.Lexeme)
}

// GetAt reads name from the Environment exactly distance hops up the
// chain, as computed by the resolver.
func (env *Environment) GetAt(distance int, name string) Value {
	val, ok := env.ancestor(distance).vt[name]
	if !ok {
		LogErrf(
			ErrAssert,
			"Environment.GetAt expected to find variable '%s' at distance %d but did not",
			name, distance,
		)
	}
	return val
}

// AssignAt writes name in the Environment exactly distance hops up.
func (env *Environment) AssignAt(distance int, name string, val Value) {
	env.ancestor(distance).vt[name] = val
}

func (env *Environment) ancestor(distance int) *Environment {
	e := env
	for i := 0; i < distance; i++ {
		if e.parent == nil {
			LogErrf(ErrAssert, "Environment.ancestor ran out of parents at hop %d of %d", i, distance)
		}
		e = e.parent
	}
	return e
}

func (env *Environment) String() string {
	names := make([]string, 0, len(env.vt))
	for k := range env.vt {
		names = append(names, k)
	}
	sort.Strings(names)

	entries := make([]string, 0, len(names))
	for _, k := range names {
		v := env.vt[k]
		vstr := v.String()
		if len(vstr) > maxPrintLen {
			vstr = vstr[:maxPrintLen] + ".."
		}
		entries = append(entries, fmt.Sprintf("%s -> %s (%s)", k, vstr, typeName(v)))
	}

	if env.parent == nil {
		return fmt.Sprintf("{\n\t%s\n}", strings.Join(entries, "\n\t"))
	}
	return fmt.Sprintf("{\n\t%s\n} -prnt-> %s", strings.Join(entries, "\n\t"), env.parent)
}
