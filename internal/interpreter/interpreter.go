// Package interpreter walks a resolved AST and executes it: variable
// binding and lookup, expression evaluation, control flow, function
// calls, and the class/instance object model.
package interpreter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/wisplang/wisp/internal/ast"
	"github.com/wisplang/wisp/internal/token"
	"github.com/wisplang/wisp/internal/wisperrors"
)

// Interpreter walks a resolved AST, evaluating expressions and
// executing statements against a chain of Environments.
type Interpreter struct {
	globals     *Environment
	environment *Environment
	locals      map[ast.Expr]int

	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader
}

// New builds an Interpreter with its global scope pre-populated with
// the standard library, applying any options.
func New(opts ...Option) *Interpreter {
	globals := NewEnvironment()
	interp := &Interpreter{
		globals:     globals,
		environment: globals,
		locals:      make(map[ast.Expr]int),
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		stdin:       os.Stdin,
	}
	for _, opt := range opts {
		opt(interp)
	}
	registerStdlib(interp.globals)
	return interp
}

// Globals returns the top-level environment, exposed so the REPL can
// persist bindings across lines.
func (in *Interpreter) Globals() *Environment {
	return in.globals
}

// resolve records the lexical distance the resolver computed for expr.
func (in *Interpreter) resolve(expr ast.Expr, distance int) {
	in.locals[expr] = distance
}

// Interpret executes stmts against the interpreter's current
// environment, returning the first runtime error encountered.
func (in *Interpreter) Interpret(stmts []ast.Stmt) error {
	return in.InterpretCtx(context.Background(), stmts)
}

// InterpretCtx is the context-aware entry point the driver pipeline uses.
func (in *Interpreter) InterpretCtx(ctx context.Context, stmts []ast.Stmt) error {
	for _, stmt := range stmts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := in.execute(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (in *Interpreter) execute(stmt ast.Stmt) error {
	return stmt.Accept(in)
}

func (in *Interpreter) executeBlock(stmts []ast.Stmt, env *Environment) error {
	previous := in.environment
	in.environment = env
	defer func() { in.environment = previous }()

	for _, stmt := range stmts {
		if err := in.execute(stmt); err != nil {
			return err
		}
	}
	return nil
}

// --- statements ---

func (in *Interpreter) VisitBlockStmt(stmt *ast.Block) error {
	return in.executeBlock(stmt.Statements, in.environment.Nest())
}

func (in *Interpreter) VisitBreakStmt(stmt *ast.Break) error {
	return &breakSignal{}
}

func (in *Interpreter) VisitContinueStmt(stmt *ast.Continue) error {
	return &continueSignal{}
}

func (in *Interpreter) VisitClassStmt(stmt *ast.Class) error {
	var superclass *Class
	if stmt.Superclass != nil {
		value, err := in.evaluate(stmt.Superclass)
		if err != nil {
			return err
		}
		sc, ok := value.(*Class)
		if !ok {
			return wisperrors.NewRuntimeError(&stmt.Superclass.Name, wisperrors.ErrSuperclassMustBeClass)
		}
		superclass = sc
	}

	in.environment.Define(stmt.Name.Lexeme, nil)

	env := in.environment
	if stmt.Superclass != nil {
		env = env.Nest()
		env.Define("super", superclass)
	}

	methods := make(map[string]*Function, len(stmt.Methods))
	for _, m := range stmt.Methods {
		methods[m.Name.Lexeme] = NewFunction(m, env, m.Name.Lexeme == "init")
	}

	getters := make(map[string]*Function, len(stmt.Getters))
	for _, g := range stmt.Getters {
		getters[g.Name.Lexeme] = NewFunction(g, env, false)
	}

	staticMethods := make(map[string]*Function, len(stmt.StaticMethods))
	for _, m := range stmt.StaticMethods {
		staticMethods[m.Name.Lexeme] = NewFunction(m, env, false)
	}

	staticGetters := make(map[string]*Function, len(stmt.StaticGetters))
	for _, g := range stmt.StaticGetters {
		staticGetters[g.Name.Lexeme] = NewFunction(g, env, false)
	}

	class := NewClass(stmt.Name.Lexeme, superclass, methods, getters, staticMethods, staticGetters)

	if init, ok := staticGetters["init"]; ok {
		if _, err := init.Bind(class).Call(in, nil); err != nil {
			return err
		}
	}

	return in.environment.Assign(stmt.Name, class)
}

func (in *Interpreter) VisitExpressionStmt(stmt *ast.Expression) error {
	_, err := in.evaluate(stmt.Expression)
	return err
}

func (in *Interpreter) VisitFunctionStmt(stmt *ast.Function) error {
	fn := NewFunction(stmt, in.environment, false)
	in.environment.Define(stmt.Name.Lexeme, fn)
	return nil
}

func (in *Interpreter) VisitIfStmt(stmt *ast.If) error {
	cond, err := in.evaluate(stmt.Condition)
	if err != nil {
		return err
	}
	switch {
	case isTruthy(cond):
		return in.execute(stmt.ThenBranch)
	case stmt.ElseBranch != nil:
		return in.execute(stmt.ElseBranch)
	}
	return nil
}

func (in *Interpreter) VisitPrintStmt(stmt *ast.Print) error {
	value, err := in.evaluate(stmt.Expression)
	if err != nil {
		return err
	}
	fmt.Fprintln(in.stdout, stringify(value))
	return nil
}

func (in *Interpreter) VisitReturnStmt(stmt *ast.Return) error {
	var value any
	if stmt.Value != nil {
		v, err := in.evaluate(stmt.Value)
		if err != nil {
			return err
		}
		value = v
	}
	return &returnSignal{Value: value}
}

func (in *Interpreter) VisitVarStmt(stmt *ast.Var) error {
	var value any
	if stmt.Initializer != nil {
		v, err := in.evaluate(stmt.Initializer)
		if err != nil {
			return err
		}
		value = v
	}
	in.environment.Define(stmt.Name.Lexeme, value)
	return nil
}

func (in *Interpreter) VisitWhileStmt(stmt *ast.While) error {
	for {
		cond, err := in.evaluate(stmt.Condition)
		if err != nil {
			return err
		}
		if !isTruthy(cond) {
			return nil
		}

		if err := in.execute(stmt.Body); err != nil {
			var brk *breakSignal
			if errors.As(err, &brk) {
				return nil
			}
			var cnt *continueSignal
			if !errors.As(err, &cnt) {
				return err
			}
			// continueSignal: fall through to run the increment (if
			// any) before re-checking the condition.
		}

		if stmt.Increment != nil {
			if _, err := in.evaluate(stmt.Increment); err != nil {
				return err
			}
		}
	}
}

// --- expressions ---

func (in *Interpreter) evaluate(expr ast.Expr) (any, error) {
	return expr.Accept(in)
}

func (in *Interpreter) VisitAssignExpr(expr *ast.Assign) (any, error) {
	value, err := in.evaluate(expr.Value)
	if err != nil {
		return nil, err
	}

	if distance, ok := in.locals[expr]; ok {
		in.environment.AssignAt(distance, expr.Name, value)
	} else if err := in.globals.Assign(expr.Name, value); err != nil {
		return nil, err
	}
	return value, nil
}

func (in *Interpreter) VisitBinaryExpr(expr *ast.Binary) (any, error) {
	left, err := in.evaluate(expr.Left)
	if err != nil {
		return nil, err
	}
	right, err := in.evaluate(expr.Right)
	if err != nil {
		return nil, err
	}

	switch expr.Operator.Type {
	case token.MINUS:
		l, r, err := in.checkNumberOperands(expr.Operator, left, right)
		if err != nil {
			return nil, err
		}
		return l - r, nil
	case token.SLASH:
		l, r, err := in.checkNumberOperands(expr.Operator, left, right)
		if err != nil {
			return nil, err
		}
		if r == 0 {
			return nil, wisperrors.NewRuntimeError(&expr.Operator, wisperrors.ErrDivideByZero)
		}
		return l / r, nil
	case token.STAR:
		l, r, err := in.checkNumberOperands(expr.Operator, left, right)
		if err != nil {
			return nil, err
		}
		return l * r, nil
	case token.PLUS:
		return in.evalPlus(expr.Operator, left, right)
	case token.GREATER:
		l, r, err := in.checkNumberOperands(expr.Operator, left, right)
		if err != nil {
			return nil, err
		}
		return l > r, nil
	case token.GREATER_EQUAL:
		l, r, err := in.checkNumberOperands(expr.Operator, left, right)
		if err != nil {
			return nil, err
		}
		return l >= r, nil
	case token.LESS:
		l, r, err := in.checkNumberOperands(expr.Operator, left, right)
		if err != nil {
			return nil, err
		}
		return l < r, nil
	case token.LESS_EQUAL:
		l, r, err := in.checkNumberOperands(expr.Operator, left, right)
		if err != nil {
			return nil, err
		}
		return l <= r, nil
	case token.BANG_EQUAL:
		return !isEqual(left, right), nil
	case token.EQUAL_EQUAL:
		return isEqual(left, right), nil
	}

	return nil, wisperrors.NewRuntimeError(&expr.Operator, wisperrors.ErrOperandsMustBeNumbers)
}

func (in *Interpreter) evalPlus(op token.Token, left, right any) (any, error) {
	if l, ok := left.(float64); ok {
		if r, ok := right.(float64); ok {
			return l + r, nil
		}
	}
	_, leftIsString := left.(string)
	_, rightIsString := right.(string)
	if leftIsString || rightIsString {
		return stringify(left) + stringify(right), nil
	}
	return nil, wisperrors.NewRuntimeError(&op, wisperrors.ErrOperandsMustBeNumOrString)
}

func (in *Interpreter) VisitCallExpr(expr *ast.Call) (any, error) {
	callee, err := in.evaluate(expr.Callee)
	if err != nil {
		return nil, err
	}

	args := make([]any, 0, len(expr.Arguments))
	for _, a := range expr.Arguments {
		v, err := in.evaluate(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	callable, ok := callee.(Callable)
	if !ok {
		return nil, wisperrors.NewRuntimeError(&expr.Paren, wisperrors.ErrNotCallable)
	}

	if arity := callable.Arity(); arity != ArityVarArgs && int(arity) != len(args) {
		return nil, wisperrors.NewRuntimeError(&expr.Paren, wisperrors.ErrArity(int(arity), len(args)))
	}

	return callable.Call(in, args)
}

func (in *Interpreter) VisitFunctionExpr(expr *ast.FunctionExpr) (any, error) {
	return NewAnonymousFunction(expr, in.environment), nil
}

func (in *Interpreter) VisitGetExpr(expr *ast.Get) (any, error) {
	object, err := in.evaluate(expr.Object)
	if err != nil {
		return nil, err
	}

	switch obj := object.(type) {
	case *Instance:
		return obj.Get(in, expr.Name)
	case *Class:
		return obj.Get(in, expr.Name)
	default:
		return nil, wisperrors.NewRuntimeError(&expr.Name, wisperrors.ErrOnlyInstancesHaveProps)
	}
}

func (in *Interpreter) VisitGroupingExpr(expr *ast.Grouping) (any, error) {
	return in.evaluate(expr.Expression)
}

func (in *Interpreter) VisitLiteralExpr(expr *ast.Literal) (any, error) {
	return expr.Value, nil
}

func (in *Interpreter) VisitLogicalExpr(expr *ast.Logical) (any, error) {
	left, err := in.evaluate(expr.Left)
	if err != nil {
		return nil, err
	}

	if expr.Operator.Type == token.OR {
		if isTruthy(left) {
			return left, nil
		}
	} else if !isTruthy(left) {
		return left, nil
	}

	return in.evaluate(expr.Right)
}

func (in *Interpreter) VisitSetExpr(expr *ast.Set) (any, error) {
	object, err := in.evaluate(expr.Object)
	if err != nil {
		return nil, err
	}

	value, err := in.evaluate(expr.Value)
	if err != nil {
		return nil, err
	}

	switch obj := object.(type) {
	case *Instance:
		obj.Set(expr.Name, value)
	case *Class:
		obj.Set(expr.Name, value)
	default:
		return nil, wisperrors.NewRuntimeError(&expr.Name, wisperrors.ErrOnlyInstancesHaveFields)
	}
	return value, nil
}

func (in *Interpreter) VisitSuperExpr(expr *ast.Super) (any, error) {
	distance := in.locals[expr]
	superclass := in.environment.GetAt(distance, "super").(*Class)
	instance := in.environment.GetAt(distance-1, "this")

	var method *Function
	if _, isStatic := instance.(*Class); isStatic {
		// Inside a static member `this` is the class itself, so the
		// superclass chain's static tables are searched instead.
		for k := superclass; k != nil && method == nil; k = k.superclass {
			if method = k.staticGetters[expr.Method.Lexeme]; method == nil {
				method = k.staticMethods[expr.Method.Lexeme]
			}
		}
	} else {
		method = superclass.FindGetter(expr.Method.Lexeme)
		if method == nil {
			method = superclass.FindMethod(expr.Method.Lexeme)
		}
	}
	if method == nil {
		return nil, wisperrors.NewRuntimeError(&expr.Method, wisperrors.ErrUndefinedProperty(expr.Method.Lexeme))
	}

	bound := method.Bind(instance)
	if kind := method.declaration.Kind; kind == ast.KindGetter || kind == ast.KindStaticGetter {
		return bound.Call(in, nil)
	}
	return bound, nil
}

func (in *Interpreter) VisitSuperCallExpr(expr *ast.SuperCall) (any, error) {
	distance := in.locals[expr]
	superclass := in.environment.GetAt(distance, "super").(*Class)
	instance := in.environment.GetAt(distance-1, "this")

	init := superclass.FindInit()
	if init == nil {
		return nil, nil
	}

	args := make([]any, 0, len(expr.Arguments))
	for _, a := range expr.Arguments {
		v, err := in.evaluate(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	if arity := init.Arity(); int(arity) != len(args) {
		return nil, wisperrors.NewRuntimeError(&expr.Paren, wisperrors.ErrArity(int(arity), len(args)))
	}

	return init.Bind(instance).Call(in, args)
}

func (in *Interpreter) VisitThisExpr(expr *ast.This) (any, error) {
	return in.lookUpVariable(expr.Keyword, expr)
}

func (in *Interpreter) VisitUnaryExpr(expr *ast.Unary) (any, error) {
	right, err := in.evaluate(expr.Right)
	if err != nil {
		return nil, err
	}

	switch expr.Operator.Type {
	case token.MINUS:
		n, err := in.checkNumberOperand(expr.Operator, right)
		if err != nil {
			return nil, err
		}
		return -n, nil
	case token.BANG:
		return !isTruthy(right), nil
	}
	return nil, wisperrors.NewRuntimeError(&expr.Operator, wisperrors.ErrOperandMustBeNumber)
}

func (in *Interpreter) VisitVariableExpr(expr *ast.Variable) (any, error) {
	return in.lookUpVariable(expr.Name, expr)
}

func (in *Interpreter) lookUpVariable(name token.Token, expr ast.Expr) (any, error) {
	if distance, ok := in.locals[expr]; ok {
		return in.environment.GetAt(distance, name.Lexeme), nil
	}
	return in.globals.Get(name)
}

// --- helpers ---

func (in *Interpreter) checkNumberOperand(op token.Token, operand any) (float64, error) {
	if n, ok := operand.(float64); ok {
		return n, nil
	}
	return 0, wisperrors.NewRuntimeError(&op, wisperrors.ErrOperandMustBeNumber)
}

func (in *Interpreter) checkNumberOperands(op token.Token, left, right any) (float64, float64, error) {
	l, ok1 := left.(float64)
	r, ok2 := right.(float64)
	if !ok1 || !ok2 {
		return 0, 0, wisperrors.NewRuntimeError(&op, wisperrors.ErrOperandsMustBeNumbers)
	}
	return l, r, nil
}

func isTruthy(value any) bool {
	if value == nil {
		return false
	}
	if b, ok := value.(bool); ok {
		return b
	}
	return true
}

func isEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a == b
}

func stringify(value any) string {
	if value == nil {
		return "nil"
	}
	switch v := value.(type) {
	case float64:
		text := strconv.FormatFloat(v, 'f', -1, 64)
		return text
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// dumpLocals is a debugging helper occasionally useful when chasing
// down a resolver/interpreter mismatch; not wired into normal output.
func (in *Interpreter) dumpLocals() string {
	var b strings.Builder
	for expr, distance := range in.locals {
		fmt.Fprintf(&b, "%T@%p -> %d\n", expr, expr, distance)
	}
	return b.String()
}

var (
	_ ast.StmtVisitor = (*Interpreter)(nil)
	_ ast.ExprVisitor = (*Interpreter)(nil)
)
