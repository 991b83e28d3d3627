package vm

import (
	"bytes"
	"testing"

	"github.com/aquascript/aqua/internal/compiler"
	"github.com/aquascript/aqua/internal/modules"
	"github.com/aquascript/aqua/internal/parser"
	"github.com/aquascript/aqua/internal/value"
)

// compileAndRun parses+compiles source and runs it, returning stdout
// and any runtime error (rather than failing the test), for assertions
// on error cases.
func compileAndRun(t *testing.T, source string, opts ...Option) (string, error) {
	t.Helper()
	program, parseErrs := parser.ParseFile(source, "t.aqua")
	if len(parseErrs) != 0 {
		t.Fatalf("parse errors: %v", parseErrs)
	}
	chunk, codegenErrs := compiler.Compile(program)
	if len(codegenErrs) != 0 {
		t.Fatalf("codegen errors: %v", codegenErrs)
	}
	var buf bytes.Buffer
	machine := New(append([]Option{WithOutput(&buf)}, opts...)...)
	if err := machine.Load(chunk); err != nil {
		t.Fatalf("load error: %v", err)
	}
	return buf.String(), machine.Run()
}

func TestSingleInheritanceMethodLookup(t *testing.T) {
	src := `class Animal:
    func __init__(self, name):
        self.name = name
    func speak(self):
        return self.name + " makes a sound"

class Dog(Animal):
    func bark(self):
        return self.name + " barks"

var d = Dog("Rex")
print(d.speak())
print(d.bark())
`
	out, err := compileAndRun(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Rex makes a sound\nRex barks\n"
	if out != want {
		t.Fatalf("got %q want %q", out, want)
	}
}

func TestExceptionLocalityWithinFunction(t *testing.T) {
	// spec.md §8 invariant 5: an exception caught within a function
	// never escapes it.
	src := `func safe():
    try {
        throw "inner"
    } catch e {
        return "handled: " + e
    }
    return "unreachable"

print(safe())
print("after")
`
	out, err := compileAndRun(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "handled: inner\nafter\n"
	if out != want {
		t.Fatalf("got %q want %q", out, want)
	}
}

func TestUncaughtExceptionPropagatesAsFatal(t *testing.T) {
	_, err := compileAndRun(t, `throw "boom"`+"\n")
	if err == nil {
		t.Fatal("expected an uncaught throw to be a fatal runtime error")
	}
}

func TestDivisionByZeroIsFatal(t *testing.T) {
	_, err := compileAndRun(t, "print(1 / 0)\n")
	if err == nil {
		t.Fatal("expected division by zero to be a fatal runtime error")
	}
}

func TestArityMismatchOnCallIsFatal(t *testing.T) {
	_, err := compileAndRun(t, "func f(a, b):\n    return a + b\nprint(f(1))\n")
	if err == nil {
		t.Fatal("expected a missing-argument call to be a fatal runtime error")
	}
}

func TestTooManyArgumentsIsFatal(t *testing.T) {
	_, err := compileAndRun(t, "func f(a):\n    return a\nprint(f(1, 2, 3))\n")
	if err == nil {
		t.Fatal("expected too many arguments to be a fatal runtime error")
	}
}

func TestUnknownAttributeIsFatal(t *testing.T) {
	_, err := compileAndRun(t, `class C:
    func __init__(self):
        self.x = 1

print(C().missing)
`)
	if err == nil {
		t.Fatal("expected accessing a missing attribute to be a fatal runtime error")
	}
}

func TestTypeMismatchInArithmeticIsFatal(t *testing.T) {
	_, err := compileAndRun(t, `print("a" - 1)`+"\n")
	if err == nil {
		t.Fatal("expected subtracting a string and int to be a fatal runtime error")
	}
}

func TestClassWithoutInitRejectsArguments(t *testing.T) {
	_, err := compileAndRun(t, "class C:\n    func greet(self):\n        return 1\n\nvar c = C(1)\n")
	if err == nil {
		t.Fatal("expected instantiating a no-__init__ class with args to fail")
	}
}

func TestFinallyRunsAfterNormalTryCompletion(t *testing.T) {
	src := `try {
    print("try")
} finally {
    print("finally")
}
print("after")
`
	out, err := compileAndRun(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "try\nfinally\nafter\n"
	if out != want {
		t.Fatalf("got %q want %q", out, want)
	}
}

func TestModuleImportResolvesThroughRegistry(t *testing.T) {
	registry := modules.Default()
	out, err := compileAndRun(t, `import humanize
print(humanize.comma(1234567))
`, WithResolver(registry))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "1,234,567\n" {
		t.Fatalf("got %q", out)
	}
}

func TestImportWithNoResolverFailsWithModuleNotFound(t *testing.T) {
	_, err := compileAndRun(t, "import nope\n")
	if err == nil {
		t.Fatal("expected an unresolved import to be a fatal error")
	}
}

func TestIterationOverStringAndTuple(t *testing.T) {
	src := `for c in "ab":
    print(c)
for t in (1, 2):
    print(t)
`
	out, err := compileAndRun(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "a\nb\n1\n2\n"
	if out != want {
		t.Fatalf("got %q want %q", out, want)
	}
}

func TestStatsTrackInstructionsAndCalls(t *testing.T) {
	program, parseErrs := parser.ParseFile("func f(n):\n    return n\nprint(f(1))\n", "t.aqua")
	if len(parseErrs) != 0 {
		t.Fatalf("parse errors: %v", parseErrs)
	}
	chunk, codegenErrs := compiler.Compile(program)
	if len(codegenErrs) != 0 {
		t.Fatalf("codegen errors: %v", codegenErrs)
	}
	var buf bytes.Buffer
	machine := New(WithOutput(&buf))
	if err := machine.Load(chunk); err != nil {
		t.Fatal(err)
	}
	if err := machine.Run(); err != nil {
		t.Fatal(err)
	}
	stats := machine.Stats()
	if stats.Instructions == 0 {
		t.Error("expected a nonzero instruction count")
	}
	if stats.Calls == 0 {
		t.Error("expected at least one recorded call")
	}
}

func TestGlobalInitPassPopulatesGlobalsBeforeRun(t *testing.T) {
	program, parseErrs := parser.ParseFile("x = 10\nfunc f(n):\n    return n\n", "t.aqua")
	if len(parseErrs) != 0 {
		t.Fatalf("parse errors: %v", parseErrs)
	}
	chunk, codegenErrs := compiler.Compile(program)
	if len(codegenErrs) != 0 {
		t.Fatalf("codegen errors: %v", codegenErrs)
	}

	machine := New()
	if err := machine.Load(chunk); err != nil {
		t.Fatal(err)
	}
	globals, ok := machine.Globals().Dict.Get(value.Str("x"))
	if !ok || globals.Kind != value.KInt || globals.Int != 10 {
		t.Fatalf("expected x == 10 to be visible before Run, got %+v (ok=%v)", globals, ok)
	}
	if _, ok := machine.Globals().Dict.Get(value.Str("f")); !ok {
		t.Fatal("expected f to be visible before Run")
	}
}

func TestGlobalInitDisabledLeavesGlobalsUnsetBeforeRun(t *testing.T) {
	program, parseErrs := parser.ParseFile("x = 10\nfunc f(n):\n    return n\n", "t.aqua")
	if len(parseErrs) != 0 {
		t.Fatalf("parse errors: %v", parseErrs)
	}
	chunk, codegenErrs := compiler.Compile(program)
	if len(codegenErrs) != 0 {
		t.Fatalf("codegen errors: %v", codegenErrs)
	}

	machine := New(WithGlobalInitDisabled())
	if err := machine.Load(chunk); err != nil {
		t.Fatal(err)
	}
	x, ok := machine.Globals().Dict.Get(value.Str("x"))
	if ok && x.Kind != value.KNil {
		t.Fatalf("expected x to be unset before Run with the pre-pass disabled, got %+v", x)
	}

	if _, err := compileAndRun(t, "x = 10\nprint(x)\n", WithGlobalInitDisabled()); err != nil {
		t.Fatalf("unexpected error running with the pre-pass disabled: %v", err)
	}
}

func TestDebugTraceWritesPerInstructionLines(t *testing.T) {
	var debugBuf bytes.Buffer
	_, err := compileAndRun(t, "print(1 + 1)\n", WithDebug(&debugBuf))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if debugBuf.Len() == 0 {
		t.Fatal("expected --debug tracing to write instruction lines")
	}
}
