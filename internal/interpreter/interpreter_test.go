package interpreter_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisplang/wisp/internal/interpreter"
	"github.com/wisplang/wisp/internal/parser"
	"github.com/wisplang/wisp/internal/scanner"
)

// run scans, parses, resolves and interprets source in one shot,
// failing the test on any static error and returning stdout plus the
// runtime error (if any).
func run(t *testing.T, source string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	var staticErrs []error
	report := func(err error) { staticErrs = append(staticErrs, err) }

	tokens := scanner.New(source, report).ScanTokens()
	require.Empty(t, staticErrs, "scan errors: %v", staticErrs)

	stmts := parser.New(tokens, report).Parse()
	require.Empty(t, staticErrs, "parse errors: %v", staticErrs)

	in := interpreter.New(interpreter.WithStdout(&out))
	interpreter.NewResolver(in, report).Resolve(stmts)
	require.Empty(t, staticErrs, "resolve errors: %v", staticErrs)

	err := in.Interpret(stmts)
	return out.String(), err
}

func TestArithmetic(t *testing.T) {
	out, err := run(t, `print 1 + 2 * 3;`)
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)
}

func TestStringConcatenation(t *testing.T) {
	out, err := run(t, `print "foo" + "bar";`)
	require.NoError(t, err)
	assert.Equal(t, "foobar\n", out)
}

func TestStringConcatenationCoercesNonStringOperand(t *testing.T) {
	out, err := run(t, `print "hi" + 1; print 1 + "hi"; print "count: " + 3.5;`)
	require.NoError(t, err)
	assert.Equal(t, "hi1\n1hi\ncount: 3.5\n", out)
}

func TestDivideByZeroIsRuntimeError(t *testing.T) {
	_, err := run(t, `print 1 / 0;`)
	require.Error(t, err)
	assert.ErrorContains(t, err, "Cannot divide by 0")
}

func TestComparisonAndEquality(t *testing.T) {
	out, err := run(t, `print 1 < 2; print "a" == "a"; print nil == nil; print 1 == "1";`)
	require.NoError(t, err)
	assert.Equal(t, "true\ntrue\ntrue\nfalse\n", out)
}

func TestLogicalShortCircuit(t *testing.T) {
	out, err := run(t, `
		fun sideEffect(v) { print v; return v; }
		print sideEffect(false) and sideEffect(true);
		print sideEffect(true) or sideEffect(false);
	`)
	require.NoError(t, err)
	assert.Equal(t, "false\nfalse\ntrue\ntrue\n", out)
}

func TestVariableScoping(t *testing.T) {
	out, err := run(t, `
		var a = "global";
		{
			var a = "block";
			print a;
		}
		print a;
	`)
	require.NoError(t, err)
	assert.Equal(t, "block\nglobal\n", out)
}

func TestWhileLoop(t *testing.T) {
	out, err := run(t, `
		var i = 0;
		while (i < 3) {
			print i;
			i = i + 1;
		}
	`)
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n2\n", out)
}

func TestForLoopDesugaring(t *testing.T) {
	out, err := run(t, `
		for (var i = 0; i < 3; i = i + 1) {
			print i;
		}
	`)
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n2\n", out)
}

func TestForLoopContinueRunsIncrement(t *testing.T) {
	out, err := run(t, `
		for (var i = 0; i < 5; i = i + 1) {
			if (i == 2) continue;
			print i;
		}
	`)
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n3\n4\n", out)
}

func TestBreakExitsLoop(t *testing.T) {
	out, err := run(t, `
		for (var i = 0; i < 10; i = i + 1) {
			if (i == 3) break;
			print i;
		}
	`)
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n2\n", out)
}

func TestFunctionRecursion(t *testing.T) {
	out, err := run(t, `
		fun fib(n) {
			if (n < 2) return n;
			return fib(n - 1) + fib(n - 2);
		}
		print fib(10);
	`)
	require.NoError(t, err)
	assert.Equal(t, "55\n", out)
}

func TestClosuresCaptureByReference(t *testing.T) {
	out, err := run(t, `
		fun makeCounter() {
			var count = 0;
			fun increment() {
				count = count + 1;
				return count;
			}
			return increment;
		}
		var counter = makeCounter();
		print counter();
		print counter();
		print counter();
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestAnonymousFunction(t *testing.T) {
	out, err := run(t, `
		var add = fun (a, b) { return a + b; };
		print add(2, 3);
	`)
	require.NoError(t, err)
	assert.Equal(t, "5\n", out)
}

func TestCallingNonCallableIsRuntimeError(t *testing.T) {
	_, err := run(t, `var x = 1; x();`)
	require.Error(t, err)
	assert.ErrorContains(t, err, "Can only call functions and classes")
}

func TestArityMismatchIsRuntimeError(t *testing.T) {
	_, err := run(t, `fun f(a, b) { return a + b; } f(1);`)
	require.Error(t, err)
	assert.ErrorContains(t, err, "Expected 2 arguments but got 1")
}

func TestClassInstantiationAndFields(t *testing.T) {
	out, err := run(t, `
		class Point {
			init(x, y) {
				this.x = x;
				this.y = y;
			}
			sum() {
				return this.x + this.y;
			}
		}
		var p = Point(1, 2);
		print p.sum();
		p.x = 10;
		print p.sum();
	`)
	require.NoError(t, err)
	assert.Equal(t, "3\n12\n", out)
}

func TestClassPrintsAsClassValue(t *testing.T) {
	out, err := run(t, `class A {} print A;`)
	require.NoError(t, err)
	assert.Equal(t, "<class A>\n", out)
}

func TestClassInstancePrintsAsInstanceValue(t *testing.T) {
	out, err := run(t, `class A {} print A();`)
	require.NoError(t, err)
	assert.Equal(t, "<A instance>\n", out)
}

func TestGetterEvaluatesWithoutCallSyntax(t *testing.T) {
	out, err := run(t, `
		class Circle {
			init(radius) { this.radius = radius; }
			area {
				return 3.14 * this.radius * this.radius;
			}
		}
		print Circle(2).area;
	`)
	require.NoError(t, err)
	assert.Equal(t, "12.56\n", out)
}

func TestInheritanceMethodOverrideAndSuper(t *testing.T) {
	out, err := run(t, `
		class Animal {
			init(name) { this.name = name; }
			speak() { return this.name + " makes a sound"; }
		}
		class Dog < Animal {
			init(name) { super(name); }
			speak() { return super.speak() + " (a bark)"; }
		}
		print Dog("Rex").speak();
	`)
	require.NoError(t, err)
	assert.Equal(t, "Rex makes a sound (a bark)\n", out)
}

func TestStaticMethodOnClass(t *testing.T) {
	out, err := run(t, `
		class MathUtils {
			class fun square(n) { return n * n; }
		}
		print MathUtils.square(5);
	`)
	require.NoError(t, err)
	assert.Equal(t, "25\n", out)
}

func TestUndefinedVariableIsRuntimeError(t *testing.T) {
	_, err := run(t, `print undeclared;`)
	require.Error(t, err)
	assert.ErrorContains(t, err, "Undefined variable")
}

func TestUndefinedPropertyIsRuntimeError(t *testing.T) {
	_, err := run(t, `class A {} print A().missing;`)
	require.Error(t, err)
	assert.ErrorContains(t, err, "Undefined property")
}

func TestBuiltinTypeAndStr(t *testing.T) {
	out, err := run(t, `
		print type(1);
		print type("s");
		print type(nil);
		print type(true);
		print str(42);
	`)
	require.NoError(t, err)
	assert.Equal(t, "number\nstring\nnil\nboolean\n42\n", out)
}
