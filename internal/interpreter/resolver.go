package interpreter

import (
	"container/list"
	"context"

	"github.com/wisplang/wisp/internal/ast"
	"github.com/wisplang/wisp/internal/token"
	"github.com/wisplang/wisp/internal/wisperrors"
)

// VarState tracks a local variable's lifecycle within a scope so the
// resolver can flag self-referential initializers and unused locals.
type VarState int

const (
	// StateDeclared means the name has been introduced but its
	// initializer, if any, has not finished evaluating yet.
	StateDeclared VarState = iota
	// StateDefined means the variable is fully initialized.
	StateDefined
	// StateUsed means the variable has been read at least once.
	StateUsed
)

type varInfo struct {
	tok   token.Token
	state VarState
}

// FunctionType records what kind of function body the resolver is
// currently inside, driving the return/this/super validity rules.
type FunctionType int

const (
	// FuncNone means top-level code, outside any function.
	FuncNone FunctionType = iota
	FuncFunction
	FuncMethod
	FuncGetter
	FuncInitializer
	FuncStaticInitializer
)

// ClassType records what kind of class body the resolver is currently
// inside, driving the this/super validity rules.
type ClassType int

const (
	// ClassNone means outside any class body.
	ClassNone ClassType = iota
	ClassClass
	ClassDerived
)

// LoopType records whether the resolver is currently inside a loop
// body, driving break/continue validity.
type LoopType int

const (
	// LoopNone means outside any loop.
	LoopNone LoopType = iota
	LoopWhile
)

// ErrorFunc is invoked for each static error the resolver discovers.
type ErrorFunc func(err error)

// Resolver performs a single static pass over the parsed program,
// recording, for every variable reference, how many enclosing scopes
// separate it from its declaration so the interpreter never has to
// walk the environment chain dynamically.
type Resolver struct {
	interp  *Interpreter
	scopes  *list.List // list of map[string]*varInfo, innermost at Back
	onError ErrorFunc

	currentFunction    FunctionType
	currentClass       ClassType
	currentLoop        LoopType
	currentSuperCall   bool
	sawSuperCall       bool
	inNestedFunction   int
}

// NewResolver builds a Resolver that annotates interp's resolution map.
func NewResolver(interp *Interpreter, onError ErrorFunc) *Resolver {
	return &Resolver{
		interp:  interp,
		scopes:  list.New(),
		onError: onError,
	}
}

// Resolve statically analyzes stmts.
func (r *Resolver) Resolve(stmts []ast.Stmt) {
	r.resolve(context.Background(), stmts)
}

// ResolveCtx is the context-aware entry point the driver pipeline uses.
func ResolveCtx(ctx context.Context, interp *Interpreter, stmts []ast.Stmt, onError ErrorFunc) {
	NewResolver(interp, onError).resolve(ctx, stmts)
}

func (r *Resolver) resolve(ctx context.Context, stmts []ast.Stmt) {
	for _, s := range stmts {
		if err := ctx.Err(); err != nil {
			return
		}
		r.resolveStmt(s)
	}
}

func (r *Resolver) reportError(tok token.Token, cause error) {
	if r.onError != nil {
		r.onError(wisperrors.NewStaticError(&tok, cause))
	}
}

func (r *Resolver) beginScope() {
	r.scopes.PushBack(make(map[string]*varInfo))
}

func (r *Resolver) endScope() {
	back := r.scopes.Back()
	scope := back.Value.(map[string]*varInfo)
	for name, info := range scope {
		if info.state != StateUsed && name != "this" && name != "super" {
			r.reportError(info.tok, wisperrors.ErrLocalVariableNotUsed)
		}
	}
	r.scopes.Remove(back)
}

func (r *Resolver) scopeAt(back *list.Element) map[string]*varInfo {
	return back.Value.(map[string]*varInfo)
}

func (r *Resolver) declare(name token.Token) {
	if r.scopes.Len() == 0 {
		return
	}
	scope := r.scopeAt(r.scopes.Back())
	if _, ok := scope[name.Lexeme]; ok {
		r.reportError(name, wisperrors.ErrDuplicateVariableInScope)
	}
	scope[name.Lexeme] = &varInfo{tok: name, state: StateDeclared}
}

func (r *Resolver) define(name token.Token) {
	if r.scopes.Len() == 0 {
		return
	}
	scope := r.scopeAt(r.scopes.Back())
	if info, ok := scope[name.Lexeme]; ok && info.state == StateDeclared {
		info.state = StateDefined
	}
}

func (r *Resolver) resolveLocal(expr ast.Expr, name token.Token) {
	distance := 0
	for e := r.scopes.Back(); e != nil; e = e.Prev() {
		scope := r.scopeAt(e)
		if info, ok := scope[name.Lexeme]; ok {
			info.state = StateUsed
			r.interp.resolve(expr, distance)
			return
		}
		distance++
	}
	// Not found in any local scope: treated as global, resolved dynamically.
}

// resolveFunction resolves fn's parameters and body under kind, and
// reports whether a super(...) call occurred directly in that body
// (before the enclosing sawSuperCall state is restored), so callers
// resolving a derived class's init can check it.
func (r *Resolver) resolveFunction(fn *ast.Function, kind FunctionType) bool {
	enclosingFunction := r.currentFunction
	enclosingSuperCall := r.sawSuperCall
	enclosingLoop := r.currentLoop
	enclosingNested := r.inNestedFunction
	// inNestedFunction counts the function levels nested inside the
	// nearest enclosing initializer; any other body starts from zero.
	if kind == FuncFunction && (enclosingFunction == FuncInitializer || enclosingNested > 0) {
		r.inNestedFunction++
	} else {
		r.inNestedFunction = 0
	}
	r.currentFunction = kind
	r.sawSuperCall = false
	r.currentLoop = LoopNone

	r.beginScope()
	for _, param := range fn.Params {
		r.declare(param)
		r.define(param)
	}
	r.resolve(context.Background(), fn.Body)
	r.endScope()

	r.inNestedFunction = enclosingNested
	sawSuperCall := r.sawSuperCall
	r.currentFunction = enclosingFunction
	r.sawSuperCall = enclosingSuperCall
	r.currentLoop = enclosingLoop
	return sawSuperCall
}

// --- statements ---

func (r *Resolver) resolveStmt(stmt ast.Stmt) {
	_ = stmt.Accept(r)
}

func (r *Resolver) VisitBlockStmt(stmt *ast.Block) error {
	r.beginScope()
	r.resolve(context.Background(), stmt.Statements)
	r.endScope()
	return nil
}

func (r *Resolver) VisitBreakStmt(stmt *ast.Break) error {
	if r.currentLoop == LoopNone {
		r.reportError(stmt.Keyword, wisperrors.ErrBreakOutsideLoop)
	}
	return nil
}

func (r *Resolver) VisitContinueStmt(stmt *ast.Continue) error {
	if r.currentLoop == LoopNone {
		r.reportError(stmt.Keyword, wisperrors.ErrContinueOutsideLoop)
	}
	return nil
}

func (r *Resolver) VisitClassStmt(stmt *ast.Class) error {
	enclosingClass := r.currentClass
	r.currentClass = ClassClass

	r.declare(stmt.Name)
	r.define(stmt.Name)

	if stmt.Superclass != nil {
		if stmt.Superclass.Name.Lexeme == stmt.Name.Lexeme {
			r.reportError(stmt.Superclass.Name, wisperrors.ErrClassCantInheritFromItself)
		}
		r.currentClass = ClassDerived
		r.resolveExprNode(stmt.Superclass)

		r.beginScope()
		superScope := r.scopeAt(r.scopes.Back())
		superScope["super"] = &varInfo{state: StateUsed}
	}

	r.beginScope()
	thisScope := r.scopeAt(r.scopes.Back())
	thisScope["this"] = &varInfo{state: StateUsed}

	isDerived := stmt.Superclass != nil

	for _, m := range stmt.Methods {
		kind := FuncMethod
		if m.Name.Lexeme == "init" {
			kind = FuncInitializer
		}
		sawSuperCall := r.resolveFunction(m, kind)
		if kind == FuncInitializer && isDerived && !sawSuperCall {
			r.reportError(m.Name, wisperrors.ErrSuperclassNotInitialized)
		}
	}
	for _, g := range stmt.Getters {
		r.resolveFunction(g, FuncGetter)
	}
	for _, m := range stmt.StaticMethods {
		r.resolveFunction(m, FuncFunction)
	}
	for _, g := range stmt.StaticGetters {
		kind := FuncGetter
		if g.Name.Lexeme == "init" {
			if len(g.Params) > 0 {
				r.reportError(g.Name, wisperrors.ErrStaticInitializerParams)
			}
			kind = FuncStaticInitializer
		}
		r.resolveFunction(g, kind)
	}

	r.checkDuplicateMethodAndGetter(stmt.Methods, stmt.Getters)
	r.checkDuplicateMethodAndGetter(stmt.StaticMethods, stmt.StaticGetters)

	r.endScope()

	if stmt.Superclass != nil {
		r.endScope()
	}

	r.currentClass = enclosingClass
	return nil
}

// checkDuplicateMethodAndGetter reports a name that appears in both a
// method table and a getter table of the same class, which would make
// the getter's zero-arg call syntax ambiguous with the method.
func (r *Resolver) checkDuplicateMethodAndGetter(methods, getters []*ast.Function) {
	getterNames := make(map[string]struct{}, len(getters))
	for _, g := range getters {
		getterNames[g.Name.Lexeme] = struct{}{}
	}
	for _, m := range methods {
		if _, ok := getterNames[m.Name.Lexeme]; ok {
			r.reportError(m.Name, wisperrors.ErrDuplicateMethodAndGetter)
		}
	}
}

func (r *Resolver) VisitExpressionStmt(stmt *ast.Expression) error {
	r.resolveExprNode(stmt.Expression)
	return nil
}

func (r *Resolver) VisitFunctionStmt(stmt *ast.Function) error {
	r.declare(stmt.Name)
	r.define(stmt.Name)
	r.resolveFunction(stmt, FuncFunction)
	return nil
}

func (r *Resolver) VisitIfStmt(stmt *ast.If) error {
	r.resolveExprNode(stmt.Condition)
	r.resolveStmt(stmt.ThenBranch)
	if stmt.ElseBranch != nil {
		r.resolveStmt(stmt.ElseBranch)
	}
	return nil
}

func (r *Resolver) VisitPrintStmt(stmt *ast.Print) error {
	r.resolveExprNode(stmt.Expression)
	return nil
}

func (r *Resolver) VisitReturnStmt(stmt *ast.Return) error {
	if r.currentFunction == FuncNone {
		r.reportError(stmt.Keyword, wisperrors.ErrReturnOutsideFunction)
	}
	if stmt.Value != nil {
		if r.currentFunction == FuncInitializer || r.currentFunction == FuncStaticInitializer {
			r.reportError(stmt.Keyword, wisperrors.ErrReturnValueFromInitializer)
		}
		r.resolveExprNode(stmt.Value)
	}
	return nil
}

func (r *Resolver) VisitVarStmt(stmt *ast.Var) error {
	r.declare(stmt.Name)
	if stmt.Initializer != nil {
		r.resolveExprNode(stmt.Initializer)
	}
	r.define(stmt.Name)
	return nil
}

func (r *Resolver) VisitWhileStmt(stmt *ast.While) error {
	enclosingLoop := r.currentLoop
	r.currentLoop = LoopWhile
	r.resolveExprNode(stmt.Condition)
	r.resolveStmt(stmt.Body)
	if stmt.Increment != nil {
		r.resolveExprNode(stmt.Increment)
	}
	r.currentLoop = enclosingLoop
	return nil
}

// --- expressions ---

func (r *Resolver) resolveExprNode(expr ast.Expr) {
	_, _ = expr.Accept(r)
}

func (r *Resolver) VisitAssignExpr(expr *ast.Assign) (any, error) {
	r.resolveExprNode(expr.Value)
	r.resolveLocal(expr, expr.Name)
	return nil, nil
}

func (r *Resolver) VisitBinaryExpr(expr *ast.Binary) (any, error) {
	r.resolveExprNode(expr.Left)
	r.resolveExprNode(expr.Right)
	return nil, nil
}

func (r *Resolver) VisitCallExpr(expr *ast.Call) (any, error) {
	r.resolveExprNode(expr.Callee)
	if len(expr.Arguments) > 255 {
		r.reportError(expr.Paren, wisperrors.ErrTooManyArguments)
	}
	for _, a := range expr.Arguments {
		r.resolveExprNode(a)
	}
	return nil, nil
}

func (r *Resolver) VisitFunctionExpr(expr *ast.FunctionExpr) (any, error) {
	r.resolveFunction(&ast.Function{Params: expr.Params, Body: expr.Body}, FuncFunction)
	return nil, nil
}

func (r *Resolver) VisitGetExpr(expr *ast.Get) (any, error) {
	r.resolveExprNode(expr.Object)
	return nil, nil
}

func (r *Resolver) VisitGroupingExpr(expr *ast.Grouping) (any, error) {
	r.resolveExprNode(expr.Expression)
	return nil, nil
}

func (r *Resolver) VisitLiteralExpr(expr *ast.Literal) (any, error) {
	return nil, nil
}

func (r *Resolver) VisitLogicalExpr(expr *ast.Logical) (any, error) {
	r.resolveExprNode(expr.Left)
	r.resolveExprNode(expr.Right)
	return nil, nil
}

func (r *Resolver) VisitSetExpr(expr *ast.Set) (any, error) {
	r.resolveExprNode(expr.Value)
	r.resolveExprNode(expr.Object)
	return nil, nil
}

func (r *Resolver) VisitSuperExpr(expr *ast.Super) (any, error) {
	switch {
	case r.currentClass == ClassNone:
		r.reportError(expr.Keyword, wisperrors.ErrSuperOutsideDerivedClass)
	case r.currentClass != ClassDerived:
		r.reportError(expr.Keyword, wisperrors.ErrSuperOutsideDerivedClass)
	case r.currentFunction == FuncInitializer && !r.sawSuperCall:
		r.reportError(expr.Keyword, wisperrors.ErrSuperPropertyBeforeSuperCall)
	}
	r.resolveLocal(expr, expr.Keyword)
	return nil, nil
}

func (r *Resolver) VisitSuperCallExpr(expr *ast.SuperCall) (any, error) {
	switch {
	case r.currentClass != ClassDerived:
		r.reportError(expr.Keyword, wisperrors.ErrSuperOutsideDerivedClass)
	case r.currentFunction == FuncStaticInitializer:
		r.reportError(expr.Keyword, wisperrors.ErrSuperCallInStaticInit)
	case r.inNestedFunction > 0:
		r.reportError(expr.Keyword, wisperrors.ErrSuperCallInNestedFunction)
	case r.currentFunction != FuncInitializer:
		r.reportError(expr.Keyword, wisperrors.ErrSuperCallOutsideInitializer)
	case r.sawSuperCall:
		r.reportError(expr.Keyword, wisperrors.ErrSuperCallTwice)
	}
	r.sawSuperCall = true
	for _, a := range expr.Arguments {
		r.resolveExprNode(a)
	}
	r.resolveLocal(expr, expr.Keyword)
	return nil, nil
}

func (r *Resolver) VisitThisExpr(expr *ast.This) (any, error) {
	if r.currentClass == ClassNone {
		r.reportError(expr.Keyword, wisperrors.ErrThisOutsideClass)
		return nil, nil
	}
	r.resolveLocal(expr, expr.Keyword)
	return nil, nil
}

func (r *Resolver) VisitUnaryExpr(expr *ast.Unary) (any, error) {
	r.resolveExprNode(expr.Right)
	return nil, nil
}

func (r *Resolver) VisitVariableExpr(expr *ast.Variable) (any, error) {
	if r.scopes.Len() > 0 {
		scope := r.scopeAt(r.scopes.Back())
		if info, ok := scope[expr.Name.Lexeme]; ok && info.state == StateDeclared {
			r.reportError(expr.Name, wisperrors.ErrReadLocalInOwnInitializer)
		}
	}
	r.resolveLocal(expr, expr.Name)
	return nil, nil
}

var (
	_ ast.StmtVisitor = (*Resolver)(nil)
	_ ast.ExprVisitor = (*Resolver)(nil)
)
