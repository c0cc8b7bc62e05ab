package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wisplang/wisp/internal/ast"
	"github.com/wisplang/wisp/internal/parser"
	"github.com/wisplang/wisp/internal/token"
)

func TestAstPrinterParenthesizesNestedExpression(t *testing.T) {
	// -123 * (45.67)
	expr := &ast.Binary{
		Left: &ast.Unary{
			Operator: token.NewToken(token.MINUS, "-", nil, 1),
			Right:    &ast.Literal{Value: 123.0},
		},
		Operator: token.NewToken(token.STAR, "*", nil, 1),
		Right: &ast.Grouping{
			Expression: &ast.Literal{Value: 45.67},
		},
	}

	p := &parser.AstPrinter{}
	assert.Equal(t, "(* (- 123) (group 45.67))", p.Print(expr))
}

func TestAstPrinterNilLiteral(t *testing.T) {
	p := &parser.AstPrinter{}
	assert.Equal(t, "nil", p.Print(&ast.Literal{Value: nil}))
}
