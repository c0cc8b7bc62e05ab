package scanner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wisplang/wisp/internal/scanner"
	"github.com/wisplang/wisp/internal/token"
)

func scanNoErrors(t *testing.T, source string) []token.Token {
	t.Helper()
	var errs []error
	toks := scanner.New(source, func(err error) { errs = append(errs, err) }).ScanTokens()
	assert.Empty(t, errs, "unexpected scan errors: %v", errs)
	return toks
}

func TestScanTokensPunctuationAndOperators(t *testing.T) {
	toks := scanNoErrors(t, "(){},.-+;*!!====<<=>>=/")
	want := []token.TokenType{
		token.LEFT_PAREN, token.RIGHT_PAREN, token.LEFT_BRACE, token.RIGHT_BRACE,
		token.COMMA, token.DOT, token.MINUS, token.PLUS, token.SEMICOLON, token.STAR,
		token.BANG, token.BANG_EQUAL, token.EQUAL_EQUAL, token.EQUAL, token.LESS, token.LESS_EQUAL,
		token.GREATER, token.GREATER_EQUAL, token.SLASH, token.EOF,
	}
	assert.Len(t, toks, len(want))
	for i, tt := range want {
		assert.Equalf(t, tt, toks[i].Type, "token %d", i)
	}
}

func TestScanLineComment(t *testing.T) {
	toks := scanNoErrors(t, "1 // comment\n2")
	assert.Equal(t, []token.TokenType{token.NUMBER, token.NUMBER, token.EOF}, tokenTypes(toks))
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, 2, toks[1].Line)
}

func TestScanNestedBlockComment(t *testing.T) {
	toks := scanNoErrors(t, "1 /* outer /* inner */ still-outer */ 2")
	assert.Equal(t, []token.TokenType{token.NUMBER, token.NUMBER, token.EOF}, tokenTypes(toks))
}

func TestScanUnterminatedBlockCommentReportsError(t *testing.T) {
	var errs []error
	scanner.New("/* never closes", func(err error) { errs = append(errs, err) }).ScanTokens()
	assert.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "Unterminated comment")
}

func TestScanStringLiteral(t *testing.T) {
	toks := scanNoErrors(t, `"hello world"`)
	assert.Equal(t, token.STRING, toks[0].Type)
	assert.Equal(t, "hello world", toks[0].Literal)
}

func TestScanMultilineStringTracksLine(t *testing.T) {
	toks := scanNoErrors(t, "\"a\nb\" 1")
	assert.Equal(t, "a\nb", toks[0].Literal)
	assert.Equal(t, 2, toks[1].Line)
}

func TestScanUnterminatedStringReportsError(t *testing.T) {
	var errs []error
	scanner.New(`"never closes`, func(err error) { errs = append(errs, err) }).ScanTokens()
	assert.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "Unterminated string")
}

func TestScanNumberLiteral(t *testing.T) {
	toks := scanNoErrors(t, "123 45.67")
	assert.Equal(t, token.NUMBER, toks[0].Type)
	assert.Equal(t, 123.0, toks[0].Literal)
	assert.Equal(t, token.NUMBER, toks[1].Type)
	assert.Equal(t, 45.67, toks[1].Literal)
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	toks := scanNoErrors(t, "and break class continue else false for fun if nil or print return super this true var while myVar _underscore")
	want := []token.TokenType{
		token.AND, token.BREAK, token.CLASS, token.CONTINUE, token.ELSE, token.FALSE,
		token.FOR, token.FUN, token.IF, token.NIL, token.OR, token.PRINT, token.RETURN,
		token.SUPER, token.THIS, token.TRUE, token.VAR, token.WHILE,
		token.IDENTIFIER, token.IDENTIFIER, token.EOF,
	}
	assert.Equal(t, want, tokenTypes(toks))
}

func TestScanUnexpectedCharacterReportsErrorAndContinues(t *testing.T) {
	var errs []error
	toks := scanner.New("1 @ 2", func(err error) { errs = append(errs, err) }).ScanTokens()
	assert.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "Unexpected character")
	assert.Equal(t, []token.TokenType{token.NUMBER, token.NUMBER, token.EOF}, tokenTypes(toks))
}

func tokenTypes(toks []token.Token) []token.TokenType {
	out := make([]token.TokenType, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}
