package interpreter

import (
	"errors"

	"github.com/wisplang/wisp/internal/ast"
)

// Function is a user-defined function, method, or getter value: an
// AST body closed over the environment it was declared in.
type Function struct {
	name          string
	declaration   *ast.Function
	closure       *Environment
	isInitializer bool
}

// NewFunction wraps a function/method/getter declaration with the
// environment it closes over.
func NewFunction(declaration *ast.Function, closure *Environment, isInitializer bool) *Function {
	name := declaration.Name.Lexeme
	return &Function{name: name, declaration: declaration, closure: closure, isInitializer: isInitializer}
}

// NewAnonymousFunction wraps an anonymous `fun(...) {...}` expression.
func NewAnonymousFunction(expr *ast.FunctionExpr, closure *Environment) *Function {
	return &Function{
		declaration: &ast.Function{Params: expr.Params, Body: expr.Body},
		closure:     closure,
	}
}

// Bind returns a copy of f whose closure additionally binds `this` to
// receiver (an *Instance for ordinary methods, or a *Class for static
// methods and getters), the mechanism that turns an unbound method
// lookup into a callable bound method.
func (f *Function) Bind(receiver any) *Function {
	env := f.closure.Nest()
	env.Define("this", receiver)
	return &Function{
		name:          f.name,
		declaration:   f.declaration,
		closure:       env,
		isInitializer: f.isInitializer,
	}
}

// Arity implements Callable.
func (f *Function) Arity() Arity {
	return Arity(len(f.declaration.Params))
}

// Call implements Callable: it executes the function body in a fresh
// environment nested off its closure, with each parameter bound to
// the matching argument.
func (f *Function) Call(interp *Interpreter, args []any) (any, error) {
	env := f.closure.Nest()
	for i, param := range f.declaration.Params {
		env.Define(param.Lexeme, args[i])
	}

	err := interp.executeBlock(f.declaration.Body, env)

	var ret *returnSignal
	if errors.As(err, &ret) {
		if f.isInitializer {
			return f.closure.GetAt(0, "this"), nil
		}
		return ret.Value, nil
	}
	if err != nil {
		return nil, err
	}

	if f.isInitializer {
		return f.closure.GetAt(0, "this"), nil
	}
	return nil, nil
}

// String implements Callable.
func (f *Function) String() string {
	if f.name == "" {
		return "<fn>"
	}
	return "<fn " + f.name + ">"
}

var _ Callable = (*Function)(nil)
