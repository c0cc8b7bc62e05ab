package interpreter

import (
	"fmt"
	"strings"

	"github.com/wisplang/wisp/internal/token"
	"github.com/wisplang/wisp/internal/wisperrors"
)

// Environment is one lexical scope's variable frame, chained to its
// enclosing scope. Global scope has a nil enclosing environment.
type Environment struct {
	enclosing *Environment
	values    map[string]any
}

// NewEnvironment creates a top-level (global) environment.
func NewEnvironment() *Environment {
	return &Environment{values: make(map[string]any)}
}

// Nest creates a new environment enclosed by e, the shape every block,
// function call, and class body pushes when it opens a new scope.
func (e *Environment) Nest() *Environment {
	return &Environment{enclosing: e, values: make(map[string]any)}
}

// Enclosing returns e's parent environment, or nil at global scope.
func (e *Environment) Enclosing() *Environment {
	return e.enclosing
}

// Define binds name to value in this environment, shadowing any
// binding of the same name in an enclosing environment. Redefining an
// existing name in the same environment is allowed.
func (e *Environment) Define(name string, value any) {
	e.values[name] = value
}

// Get looks up name in this frame only. It does not walk enclosing
// scopes; chain walking is GetAt's job, once the resolver has proven a
// distance, or Assign's for the no-distance global path.
func (e *Environment) Get(name token.Token) (any, error) {
	if value, ok := e.values[name.Lexeme]; ok {
		return value, nil
	}
	return nil, wisperrors.NewRuntimeError(&name, wisperrors.ErrUndefinedVariableNamed(name.Lexeme))
}

// GetAt looks up name exactly distance scopes up from this
// environment, the resolver having already proven the binding exists
// there.
func (e *Environment) GetAt(distance int, name string) any {
	return e.ancestor(distance).values[name]
}

// Assign rebinds an already-declared name, walking upward through
// enclosing scopes, and errors if name was never declared.
func (e *Environment) Assign(name token.Token, value any) error {
	if _, ok := e.values[name.Lexeme]; ok {
		e.values[name.Lexeme] = value
		return nil
	}
	if e.enclosing != nil {
		return e.enclosing.Assign(name, value)
	}
	return wisperrors.NewRuntimeError(&name, wisperrors.ErrUndefinedVariableNamed(name.Lexeme))
}

// AssignAt rebinds name exactly distance scopes up from this
// environment.
func (e *Environment) AssignAt(distance int, name token.Token, value any) {
	e.ancestor(distance).values[name.Lexeme] = value
}

func (e *Environment) ancestor(distance int) *Environment {
	env := e
	for i := 0; i < distance; i++ {
		env = env.enclosing
	}
	return env
}

// String implements fmt.Stringer, mainly useful when debugging scope
// chains interactively.
func (e *Environment) String() string {
	var b strings.Builder
	keys := make([]string, 0, len(e.values))
	for k := range e.values {
		keys = append(keys, k)
	}
	fmt.Fprintf(&b, "{%s}", strings.Join(keys, ", "))
	if e.enclosing != nil {
		b.WriteString(" -> ")
		b.WriteString(e.enclosing.String())
	}
	return b.String()
}
