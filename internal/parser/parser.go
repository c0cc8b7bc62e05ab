// Package parser builds an AST from a token stream via recursive
// descent, recovering from syntax errors at statement boundaries so a
// single pass can report more than one error.
package parser

import (
	"context"

	"github.com/wisplang/wisp/internal/ast"
	"github.com/wisplang/wisp/internal/token"
	"github.com/wisplang/wisp/internal/wisperrors"
)

const maxArgs = 255

// ErrorFunc is invoked for each error the parser discovers.
type ErrorFunc func(err error)

// Parser is a single-use recursive-descent parser over a fixed token slice.
type Parser struct {
	tokens  []token.Token
	current int
	onError ErrorFunc
}

// New constructs a Parser over tokens, reporting syntax errors via onError.
func New(tokens []token.Token, onError ErrorFunc) *Parser {
	return &Parser{tokens: tokens, onError: onError}
}

// Parse parses the whole token stream as a program: zero or more
// declarations. Statements that fail to parse are skipped after
// resynchronizing at the next statement boundary.
func (p *Parser) Parse() []ast.Stmt {
	return p.parse(context.Background())
}

func (p *Parser) parse(ctx context.Context) []ast.Stmt {
	var stmts []ast.Stmt
	for !p.isAtEnd() {
		if err := ctx.Err(); err != nil {
			break
		}
		if s := p.declaration(); s != nil {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

// Parse is the context-aware entry point the driver pipeline uses.
func Parse(ctx context.Context, tokens []token.Token, onError ErrorFunc) []ast.Stmt {
	return New(tokens, onError).parse(ctx)
}

// --- token stream helpers ---

func (p *Parser) match(types ...token.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) check(t token.TokenType) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Type == t
}

func (p *Parser) advance() token.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == token.EOF
}

func (p *Parser) peek() token.Token {
	return p.tokens[p.current]
}

func (p *Parser) previous() token.Token {
	return p.tokens[p.current-1]
}

func (p *Parser) consume(t token.TokenType, cause error) (token.Token, error) {
	if p.check(t) {
		return p.advance(), nil
	}
	return token.Token{}, wisperrors.NewStaticError(&p.tokens[p.current], cause)
}

func (p *Parser) reportError(err error) {
	if p.onError != nil {
		p.onError(err)
	}
}

// synchronize discards tokens until it reaches a plausible statement
// boundary, so parsing can resume after a syntax error.
func (p *Parser) synchronize() {
	p.advance()
	for !p.isAtEnd() {
		if p.previous().Type == token.SEMICOLON {
			return
		}
		switch p.peek().Type {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		p.advance()
	}
}

// --- declarations ---

func (p *Parser) declaration() ast.Stmt {
	var stmt ast.Stmt
	var err error

	switch {
	case p.match(token.CLASS):
		stmt, err = p.classDeclaration()
	case p.match(token.FUN):
		stmt, err = p.function(ast.KindFunction)
	case p.match(token.VAR):
		stmt, err = p.varDeclaration()
	default:
		stmt, err = p.statement()
	}

	if err != nil {
		p.reportError(err)
		p.synchronize()
		return nil
	}
	return stmt
}

func (p *Parser) classDeclaration() (ast.Stmt, error) {
	name, err := p.consume(token.IDENTIFIER, wisperrors.ErrExpectedVariableName)
	if err != nil {
		return nil, err
	}

	var superclass *ast.Variable
	if p.match(token.LESS) {
		superName, err := p.consume(token.IDENTIFIER, wisperrors.ErrExpectedSuperclassName)
		if err != nil {
			return nil, err
		}
		superclass = &ast.Variable{Name: superName}
	}

	if _, err := p.consume(token.LEFT_BRACE, wisperrors.ErrExpectedLeftBraceClassBody); err != nil {
		return nil, err
	}

	class := &ast.Class{Name: name, Superclass: superclass}

	for !p.check(token.RIGHT_BRACE) && !p.isAtEnd() {
		isStatic := p.match(token.CLASS)
		if isStatic && p.match(token.FUN) {
			m, err := p.function(ast.KindStaticMethod)
			if err != nil {
				return nil, err
			}
			class.StaticMethods = append(class.StaticMethods, m.(*ast.Function))
			continue
		}

		kind := ast.KindMethod
		if isStatic {
			kind = ast.KindStaticGetter
		}

		member, err := p.functionOrGetter(kind)
		if err != nil {
			return nil, err
		}
		fn := member.(*ast.Function)

		switch fn.Kind {
		case ast.KindMethod:
			class.Methods = append(class.Methods, fn)
		case ast.KindGetter:
			class.Getters = append(class.Getters, fn)
		case ast.KindStaticGetter:
			class.StaticGetters = append(class.StaticGetters, fn)
		}
	}

	if _, err := p.consume(token.RIGHT_BRACE, wisperrors.ErrExpectedRightBraceClassBody); err != nil {
		return nil, err
	}

	return class, nil
}

// functionOrGetter parses `name(params) { body }` as a method, or
// `name { body }` as a getter, promoting kind from KindMethod to
// KindGetter (or KindStaticGetter, passed in already) when no
// parameter list follows the name.
func (p *Parser) functionOrGetter(kind ast.FunctionKind) (ast.Stmt, error) {
	name, err := p.consume(token.IDENTIFIER, wisperrors.ErrExpectedVariableName)
	if err != nil {
		return nil, err
	}

	if !p.check(token.LEFT_PAREN) {
		if kind == ast.KindMethod {
			kind = ast.KindGetter
		}
		if _, err := p.consume(token.LEFT_BRACE, wisperrors.ErrExpectedLeftBraceBody); err != nil {
			return nil, err
		}
		body, err := p.block()
		if err != nil {
			return nil, err
		}
		return &ast.Function{Name: name, Body: body, Kind: kind}, nil
	}

	params, err := p.parameterList()
	if err != nil {
		return nil, err
	}

	if _, err := p.consume(token.LEFT_BRACE, wisperrors.ErrExpectedLeftBraceBody); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}

	return &ast.Function{Name: name, Params: params, Body: body, Kind: kind}, nil
}

func (p *Parser) function(kind ast.FunctionKind) (ast.Stmt, error) {
	name, err := p.consume(token.IDENTIFIER, wisperrors.ErrExpectedVariableName)
	if err != nil {
		return nil, err
	}

	params, err := p.parameterList()
	if err != nil {
		return nil, err
	}

	if _, err := p.consume(token.LEFT_BRACE, wisperrors.ErrExpectedLeftBraceBody); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}

	return &ast.Function{Name: name, Params: params, Body: body, Kind: kind}, nil
}

func (p *Parser) parameterList() ([]token.Token, error) {
	if _, err := p.consume(token.LEFT_PAREN, wisperrors.ErrExpectedLeftParenParams); err != nil {
		return nil, err
	}

	var params []token.Token
	if !p.check(token.RIGHT_PAREN) {
		for {
			if len(params) >= maxArgs {
				p.reportError(wisperrors.NewStaticError(&p.tokens[p.current], wisperrors.ErrTooManyParameters))
			}
			name, err := p.consume(token.IDENTIFIER, wisperrors.ErrExpectedParameterName)
			if err != nil {
				return nil, err
			}
			params = append(params, name)
			if !p.match(token.COMMA) {
				break
			}
		}
	}

	if _, err := p.consume(token.RIGHT_PAREN, wisperrors.ErrExpectedRightParenParams); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) varDeclaration() (ast.Stmt, error) {
	name, err := p.consume(token.IDENTIFIER, wisperrors.ErrExpectedVariableName)
	if err != nil {
		return nil, err
	}

	var initializer ast.Expr
	if p.match(token.EQUAL) {
		initializer, err = p.expression()
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.consume(token.SEMICOLON, wisperrors.ErrExpectedSemicolonVar); err != nil {
		return nil, err
	}
	return &ast.Var{Name: name, Initializer: initializer}, nil
}

// --- statements ---

func (p *Parser) statement() (ast.Stmt, error) {
	switch {
	case p.match(token.FOR):
		return p.forStatement()
	case p.match(token.IF):
		return p.ifStatement()
	case p.match(token.PRINT):
		return p.printStatement()
	case p.match(token.RETURN):
		return p.returnStatement()
	case p.match(token.BREAK):
		return p.breakStatement()
	case p.match(token.CONTINUE):
		return p.continueStatement()
	case p.match(token.WHILE):
		return p.whileStatement()
	case p.match(token.LEFT_BRACE):
		stmts, err := p.block()
		if err != nil {
			return nil, err
		}
		return &ast.Block{Statements: stmts}, nil
	default:
		return p.expressionStatement()
	}
}

func (p *Parser) forStatement() (ast.Stmt, error) {
	if _, err := p.consume(token.LEFT_PAREN, wisperrors.ErrExpectedLeftParenFor); err != nil {
		return nil, err
	}

	var initializer ast.Stmt
	var err error
	switch {
	case p.match(token.SEMICOLON):
		initializer = nil
	case p.match(token.VAR):
		initializer, err = p.varDeclaration()
	default:
		initializer, err = p.expressionStatement()
	}
	if err != nil {
		return nil, err
	}

	var condition ast.Expr
	if !p.check(token.SEMICOLON) {
		condition, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(token.SEMICOLON, wisperrors.ErrExpectedSemicolonForCond); err != nil {
		return nil, err
	}

	var increment ast.Expr
	if !p.check(token.RIGHT_PAREN) {
		increment, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(token.RIGHT_PAREN, wisperrors.ErrExpectedRightParenFor); err != nil {
		return nil, err
	}

	body, err := p.statement()
	if err != nil {
		return nil, err
	}

	if condition == nil {
		condition = &ast.Literal{Value: true}
	}
	loop := &ast.While{Condition: condition, Body: body, Increment: increment, IsFor: true}

	var result ast.Stmt = loop
	if initializer != nil {
		result = &ast.Block{Statements: []ast.Stmt{initializer, loop}}
	}
	return result, nil
}

func (p *Parser) ifStatement() (ast.Stmt, error) {
	if _, err := p.consume(token.LEFT_PAREN, wisperrors.ErrExpectedLeftParenIf); err != nil {
		return nil, err
	}
	condition, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RIGHT_PAREN, wisperrors.ErrExpectedRightParenIf); err != nil {
		return nil, err
	}

	thenBranch, err := p.statement()
	if err != nil {
		return nil, err
	}

	var elseBranch ast.Stmt
	if p.match(token.ELSE) {
		elseBranch, err = p.statement()
		if err != nil {
			return nil, err
		}
	}

	return &ast.If{Condition: condition, ThenBranch: thenBranch, ElseBranch: elseBranch}, nil
}

func (p *Parser) printStatement() (ast.Stmt, error) {
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.SEMICOLON, wisperrors.ErrExpectedSemicolonPrint); err != nil {
		return nil, err
	}
	return &ast.Print{Expression: value}, nil
}

func (p *Parser) returnStatement() (ast.Stmt, error) {
	keyword := p.previous()
	var value ast.Expr
	var err error
	if !p.check(token.SEMICOLON) {
		value, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(token.SEMICOLON, wisperrors.ErrExpectedSemicolonReturn); err != nil {
		return nil, err
	}
	return &ast.Return{Keyword: keyword, Value: value}, nil
}

func (p *Parser) breakStatement() (ast.Stmt, error) {
	keyword := p.previous()
	if _, err := p.consume(token.SEMICOLON, wisperrors.ErrExpectedSemicolonBreak); err != nil {
		return nil, err
	}
	return &ast.Break{Keyword: keyword}, nil
}

func (p *Parser) continueStatement() (ast.Stmt, error) {
	keyword := p.previous()
	if _, err := p.consume(token.SEMICOLON, wisperrors.ErrExpectedSemicolonContinue); err != nil {
		return nil, err
	}
	return &ast.Continue{Keyword: keyword}, nil
}

func (p *Parser) whileStatement() (ast.Stmt, error) {
	if _, err := p.consume(token.LEFT_PAREN, wisperrors.ErrExpectedLeftParenWhile); err != nil {
		return nil, err
	}
	condition, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RIGHT_PAREN, wisperrors.ErrExpectedRightParenWhile); err != nil {
		return nil, err
	}
	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	return &ast.While{Condition: condition, Body: body}, nil
}

func (p *Parser) block() ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	for !p.check(token.RIGHT_BRACE) && !p.isAtEnd() {
		if s := p.declaration(); s != nil {
			stmts = append(stmts, s)
		}
	}
	if _, err := p.consume(token.RIGHT_BRACE, wisperrors.ErrExpectedRightBrace); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *Parser) expressionStatement() (ast.Stmt, error) {
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.SEMICOLON, wisperrors.ErrExpectedSemicolonExpr); err != nil {
		return nil, err
	}
	return &ast.Expression{Expression: expr}, nil
}

// --- expressions ---

func (p *Parser) expression() (ast.Expr, error) {
	return p.assignment()
}

func (p *Parser) assignment() (ast.Expr, error) {
	expr, err := p.or()
	if err != nil {
		return nil, err
	}

	if p.match(token.EQUAL) {
		equals := p.previous()
		value, err := p.assignment()
		if err != nil {
			return nil, err
		}

		switch target := expr.(type) {
		case *ast.Variable:
			return &ast.Assign{Name: target.Name, Value: value}, nil
		case *ast.Get:
			return &ast.Set{Object: target.Object, Name: target.Name, Value: value}, nil
		default:
			return nil, wisperrors.NewStaticError(&equals, wisperrors.ErrInvalidAssignmentTarget)
		}
	}

	return expr, nil
}

func (p *Parser) or() (ast.Expr, error) {
	expr, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.match(token.OR) {
		op := p.previous()
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		expr = &ast.Logical{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (p *Parser) and() (ast.Expr, error) {
	expr, err := p.equality()
	if err != nil {
		return nil, err
	}
	for p.match(token.AND) {
		op := p.previous()
		right, err := p.equality()
		if err != nil {
			return nil, err
		}
		expr = &ast.Logical{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (p *Parser) equality() (ast.Expr, error) {
	expr, err := p.comparison()
	if err != nil {
		return nil, err
	}
	for p.match(token.BANG_EQUAL, token.EQUAL_EQUAL) {
		op := p.previous()
		right, err := p.comparison()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (p *Parser) comparison() (ast.Expr, error) {
	expr, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.match(token.GREATER, token.GREATER_EQUAL, token.LESS, token.LESS_EQUAL) {
		op := p.previous()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (p *Parser) term() (ast.Expr, error) {
	expr, err := p.factor()
	if err != nil {
		return nil, err
	}
	for p.match(token.MINUS, token.PLUS) {
		op := p.previous()
		right, err := p.factor()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (p *Parser) factor() (ast.Expr, error) {
	expr, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.match(token.SLASH, token.STAR) {
		op := p.previous()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Left: expr, Operator: op, Right: right}
	}
	return expr, nil
}

func (p *Parser) unary() (ast.Expr, error) {
	if p.match(token.BANG, token.MINUS) {
		op := p.previous()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Operator: op, Right: right}, nil
	}
	return p.call()
}

func (p *Parser) call() (ast.Expr, error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.match(token.LEFT_PAREN):
			expr, err = p.finishCall(expr)
			if err != nil {
				return nil, err
			}
		case p.match(token.DOT):
			name, err := p.consume(token.IDENTIFIER, wisperrors.ErrExpectedPropertyName)
			if err != nil {
				return nil, err
			}
			expr = &ast.Get{Object: expr, Name: name}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) finishCall(callee ast.Expr) (ast.Expr, error) {
	var args []ast.Expr
	if !p.check(token.RIGHT_PAREN) {
		for {
			if len(args) >= maxArgs {
				p.reportError(wisperrors.NewStaticError(&p.tokens[p.current], wisperrors.ErrTooManyArguments))
			}
			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.match(token.COMMA) {
				break
			}
		}
	}

	paren, err := p.consume(token.RIGHT_PAREN, wisperrors.ErrExpectedRightParen)
	if err != nil {
		return nil, err
	}

	return &ast.Call{Callee: callee, Paren: paren, Arguments: args}, nil
}

func (p *Parser) primary() (ast.Expr, error) {
	switch {
	case p.match(token.FALSE):
		return &ast.Literal{Value: false}, nil
	case p.match(token.TRUE):
		return &ast.Literal{Value: true}, nil
	case p.match(token.NIL):
		return &ast.Literal{Value: nil}, nil
	case p.match(token.NUMBER, token.STRING):
		return &ast.Literal{Value: p.previous().Literal}, nil
	case p.match(token.SUPER):
		return p.superExpr()
	case p.match(token.THIS):
		return &ast.This{Keyword: p.previous()}, nil
	case p.match(token.IDENTIFIER):
		return &ast.Variable{Name: p.previous()}, nil
	case p.match(token.FUN):
		return p.functionExpr()
	case p.match(token.LEFT_PAREN):
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.RIGHT_PAREN, wisperrors.ErrExpectedRightParen); err != nil {
			return nil, err
		}
		return &ast.Grouping{Expression: expr}, nil
	default:
		return nil, wisperrors.NewStaticError(&p.tokens[p.current], wisperrors.ErrExpectedExpression)
	}
}

func (p *Parser) superExpr() (ast.Expr, error) {
	keyword := p.previous()

	if p.match(token.LEFT_PAREN) {
		var args []ast.Expr
		if !p.check(token.RIGHT_PAREN) {
			for {
				arg, err := p.expression()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if !p.match(token.COMMA) {
					break
				}
			}
		}
		paren, err := p.consume(token.RIGHT_PAREN, wisperrors.ErrExpectedRightParen)
		if err != nil {
			return nil, err
		}
		return &ast.SuperCall{Keyword: keyword, Paren: paren, Arguments: args}, nil
	}

	if _, err := p.consume(token.DOT, wisperrors.ErrExpectedDot); err != nil {
		return nil, err
	}
	method, err := p.consume(token.IDENTIFIER, wisperrors.ErrExpectedSuperMethodName)
	if err != nil {
		return nil, err
	}
	return &ast.Super{Keyword: keyword, Method: method}, nil
}

func (p *Parser) functionExpr() (ast.Expr, error) {
	params, err := p.parameterList()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LEFT_BRACE, wisperrors.ErrExpectedLeftBraceBody); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionExpr{Params: params, Body: body}, nil
}
