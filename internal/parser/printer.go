package parser

import (
	"fmt"
	"strings"

	"github.com/wisplang/wisp/internal/ast"
)

// AstPrinter renders an expression tree as a fully parenthesized
// Lisp-like string, useful for debugging the parser without running
// the interpreter.
type AstPrinter struct{}

// Print renders expr.
func (p *AstPrinter) Print(expr ast.Expr) string {
	result, _ := expr.Accept(p)
	s, _ := result.(string)
	return s
}

func (p *AstPrinter) VisitAssignExpr(expr *ast.Assign) (any, error) {
	return p.parenthesize("= "+expr.Name.Lexeme, expr.Value), nil
}

func (p *AstPrinter) VisitBinaryExpr(expr *ast.Binary) (any, error) {
	return p.parenthesize(expr.Operator.Lexeme, expr.Left, expr.Right), nil
}

func (p *AstPrinter) VisitCallExpr(expr *ast.Call) (any, error) {
	return p.parenthesize("call", append([]ast.Expr{expr.Callee}, expr.Arguments...)...), nil
}

func (p *AstPrinter) VisitFunctionExpr(expr *ast.FunctionExpr) (any, error) {
	return "(fun)", nil
}

func (p *AstPrinter) VisitGetExpr(expr *ast.Get) (any, error) {
	return p.parenthesize("get "+expr.Name.Lexeme, expr.Object), nil
}

func (p *AstPrinter) VisitGroupingExpr(expr *ast.Grouping) (any, error) {
	return p.parenthesize("group", expr.Expression), nil
}

func (p *AstPrinter) VisitLiteralExpr(expr *ast.Literal) (any, error) {
	if expr.Value == nil {
		return "nil", nil
	}
	return fmt.Sprintf("%v", expr.Value), nil
}

func (p *AstPrinter) VisitLogicalExpr(expr *ast.Logical) (any, error) {
	return p.parenthesize(expr.Operator.Lexeme, expr.Left, expr.Right), nil
}

func (p *AstPrinter) VisitSetExpr(expr *ast.Set) (any, error) {
	return p.parenthesize("set "+expr.Name.Lexeme, expr.Object, expr.Value), nil
}

func (p *AstPrinter) VisitSuperExpr(expr *ast.Super) (any, error) {
	return "(super " + expr.Method.Lexeme + ")", nil
}

func (p *AstPrinter) VisitSuperCallExpr(expr *ast.SuperCall) (any, error) {
	return p.parenthesize("super-call", expr.Arguments...), nil
}

func (p *AstPrinter) VisitThisExpr(expr *ast.This) (any, error) {
	return "this", nil
}

func (p *AstPrinter) VisitUnaryExpr(expr *ast.Unary) (any, error) {
	return p.parenthesize(expr.Operator.Lexeme, expr.Right), nil
}

func (p *AstPrinter) VisitVariableExpr(expr *ast.Variable) (any, error) {
	return expr.Name.Lexeme, nil
}

func (p *AstPrinter) parenthesize(name string, exprs ...ast.Expr) string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(name)
	for _, e := range exprs {
		b.WriteString(" ")
		s, _ := e.Accept(p)
		str, _ := s.(string)
		b.WriteString(str)
	}
	b.WriteString(")")
	return b.String()
}

var _ ast.ExprVisitor = (*AstPrinter)(nil)
