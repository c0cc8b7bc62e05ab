package parser

import (
	"fmt"
	"strings"

	"github.com/wisplang/wisp/internal/ast"
)

// RPNPrinter renders an expression tree in reverse Polish notation,
// another debugging aid alongside AstPrinter.
type RPNPrinter struct{}

// Print renders expr.
func (p *RPNPrinter) Print(expr ast.Expr) string {
	result, _ := expr.Accept(p)
	s, _ := result.(string)
	return s
}

func (p *RPNPrinter) VisitAssignExpr(expr *ast.Assign) (any, error) {
	return p.join(p.render(expr.Value), expr.Name.Lexeme, "="), nil
}

func (p *RPNPrinter) VisitBinaryExpr(expr *ast.Binary) (any, error) {
	return p.join(p.render(expr.Left), p.render(expr.Right), expr.Operator.Lexeme), nil
}

func (p *RPNPrinter) VisitCallExpr(expr *ast.Call) (any, error) {
	parts := []string{p.render(expr.Callee)}
	for _, a := range expr.Arguments {
		parts = append(parts, p.render(a))
	}
	parts = append(parts, "call")
	return p.join(parts...), nil
}

func (p *RPNPrinter) VisitFunctionExpr(expr *ast.FunctionExpr) (any, error) {
	return "fun", nil
}

func (p *RPNPrinter) VisitGetExpr(expr *ast.Get) (any, error) {
	return p.join(p.render(expr.Object), expr.Name.Lexeme, "get"), nil
}

func (p *RPNPrinter) VisitGroupingExpr(expr *ast.Grouping) (any, error) {
	return p.render(expr.Expression), nil
}

func (p *RPNPrinter) VisitLiteralExpr(expr *ast.Literal) (any, error) {
	if expr.Value == nil {
		return "nil", nil
	}
	return fmt.Sprintf("%v", expr.Value), nil
}

func (p *RPNPrinter) VisitLogicalExpr(expr *ast.Logical) (any, error) {
	return p.join(p.render(expr.Left), p.render(expr.Right), expr.Operator.Lexeme), nil
}

func (p *RPNPrinter) VisitSetExpr(expr *ast.Set) (any, error) {
	return p.join(p.render(expr.Object), p.render(expr.Value), expr.Name.Lexeme, "set"), nil
}

func (p *RPNPrinter) VisitSuperExpr(expr *ast.Super) (any, error) {
	return p.join("super", expr.Method.Lexeme), nil
}

func (p *RPNPrinter) VisitSuperCallExpr(expr *ast.SuperCall) (any, error) {
	parts := make([]string, 0, len(expr.Arguments)+1)
	for _, a := range expr.Arguments {
		parts = append(parts, p.render(a))
	}
	parts = append(parts, "super-call")
	return p.join(parts...), nil
}

func (p *RPNPrinter) VisitThisExpr(expr *ast.This) (any, error) {
	return "this", nil
}

func (p *RPNPrinter) VisitUnaryExpr(expr *ast.Unary) (any, error) {
	op := expr.Operator.Lexeme
	if op == "-" {
		op = "~" // distinguish unary negate from binary minus in RPN
	}
	return p.join(p.render(expr.Right), op), nil
}

func (p *RPNPrinter) VisitVariableExpr(expr *ast.Variable) (any, error) {
	return expr.Name.Lexeme, nil
}

func (p *RPNPrinter) render(e ast.Expr) string {
	result, _ := e.Accept(p)
	s, _ := result.(string)
	return s
}

func (p *RPNPrinter) join(parts ...string) string {
	return strings.Join(parts, " ")
}

var _ ast.ExprVisitor = (*RPNPrinter)(nil)
