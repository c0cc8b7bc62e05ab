package interpreter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wisplang/wisp/internal/interpreter"
	"github.com/wisplang/wisp/internal/parser"
	"github.com/wisplang/wisp/internal/scanner"
)

func resolveErrors(t *testing.T, source string) []error {
	t.Helper()
	var errs []error
	report := func(err error) { errs = append(errs, err) }

	tokens := scanner.New(source, report).ScanTokens()
	stmts := parser.New(tokens, report).Parse()
	interpreter.NewResolver(interpreter.New(), report).Resolve(stmts)
	return errs
}

func TestResolverRejectsReadInOwnInitializer(t *testing.T) {
	errs := resolveErrors(t, `var a = "outer"; { var a = a; }`)
	assert.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "own initializer")
}

func TestResolverRejectsDuplicateLocalDeclaration(t *testing.T) {
	errs := resolveErrors(t, `{ var a = 1; var a = 2; print a; }`)
	assert.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "Already a variable")
}

func TestResolverFlagsUnusedLocal(t *testing.T) {
	errs := resolveErrors(t, `{ var unused = 1; }`)
	assert.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "Unused local variable")
}

func TestResolverAllowsUsedLocal(t *testing.T) {
	errs := resolveErrors(t, `{ var x = 1; print x; }`)
	assert.Empty(t, errs)
}

func TestResolverRejectsReturnOutsideFunction(t *testing.T) {
	errs := resolveErrors(t, `return 1;`)
	assert.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "Can't return from top-level code")
}

func TestResolverRejectsReturnValueFromInitializer(t *testing.T) {
	errs := resolveErrors(t, `class A { init() { return 1; } }`)
	assert.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "Can't return a value from an initializer")
}

func TestResolverRejectsThisOutsideClass(t *testing.T) {
	errs := resolveErrors(t, `print this;`)
	assert.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "Can't use 'this' outside of a class")
}

func TestResolverRejectsSuperOutsideDerivedClass(t *testing.T) {
	errs := resolveErrors(t, `class A { m() { super.m(); } }`)
	assert.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "'super' outside of a derived class")
}

func TestResolverRejectsClassInheritingFromItself(t *testing.T) {
	errs := resolveErrors(t, `class A < A {}`)
	assert.NotEmpty(t, errs)
	assert.ErrorContains(t, errs[0], "can't inherit from itself")
}

func TestResolverRejectsBreakOutsideLoop(t *testing.T) {
	errs := resolveErrors(t, `break;`)
	assert.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "Illegal continue statement")
}

func TestResolverAllowsBreakInsideWhile(t *testing.T) {
	errs := resolveErrors(t, `while (true) { break; }`)
	assert.Empty(t, errs)
}

func TestResolverRejectsBreakInsideFunctionNestedInLoop(t *testing.T) {
	errs := resolveErrors(t, `while (true) { fun f() { break; } f(); }`)
	assert.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "Illegal continue statement")
}

func TestResolverRejectsSuperCallOutsideInitializer(t *testing.T) {
	errs := resolveErrors(t, `
		class A { init() {} }
		class B < A { m() { super(); } }
	`)
	assert.NotEmpty(t, errs)
}

func TestResolverAllowsSuperCallInsideInitializer(t *testing.T) {
	errs := resolveErrors(t, `
		class A { init(x) { this.x = x; } }
		class B < A { init(x) { super(x); } }
	`)
	assert.Empty(t, errs)
}

func TestResolverRejectsSuperCallTwice(t *testing.T) {
	errs := resolveErrors(t, `
		class A { init() {} }
		class B < A { init() { super(); super(); } }
	`)
	assert.NotEmpty(t, errs)
}

func TestResolverRejectsDerivedInitializerMissingSuperCall(t *testing.T) {
	errs := resolveErrors(t, `
		class A { init() {} }
		class B < A { init() {} }
	`)
	assert.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "Superclass was not initialized")
}

func TestResolverRejectsDuplicateMethodAndGetter(t *testing.T) {
	errs := resolveErrors(t, `
		class A {
			m { return 1; }
			m() { return 2; }
		}
	`)
	assert.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "Duplicate method and getter")
}
