package compiler

import (
	"testing"

	"github.com/aquascript/aqua/internal/bytecode"
	"github.com/aquascript/aqua/internal/parser"
)

func compileOK(t *testing.T, src string) *bytecode.Chunk {
	t.Helper()
	prog, perrs := parser.ParseFile(src, "t.aqua")
	if len(perrs) != 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	chunk, cerrs := Compile(prog)
	if len(cerrs) != 0 {
		t.Fatalf("codegen errors: %v", cerrs)
	}
	return chunk
}

var jumpOps = map[bytecode.OpCode]bool{
	bytecode.OP_JUMP:          true,
	bytecode.OP_JUMP_IF_FALSE: true,
	bytecode.OP_JUMP_IF_TRUE:  true,
	bytecode.OP_FOR_ITER:      true,
}

// assertJumpsValid is spec.md §8 invariant 2: every jump operand must
// refer to a valid index within the same instruction list.
func assertJumpsValid(t *testing.T, listName string, list []bytecode.Instruction) {
	t.Helper()
	for i, inst := range list {
		if !jumpOps[inst.Op] {
			continue
		}
		if inst.Operand < 0 || int(inst.Operand) > len(list) {
			t.Errorf("%s instruction %d (%v) jumps to invalid target %d (list length %d)",
				listName, i, inst.Op, inst.Operand, len(list))
		}
	}
}

func checkChunkJumps(t *testing.T, c *bytecode.Chunk) {
	t.Helper()
	assertJumpsValid(t, "main", c.Main)
	for name, fn := range c.Functions {
		assertJumpsValid(t, name, fn.Instructions)
	}
}

func TestJumpValidityAcrossControlFlow(t *testing.T) {
	programs := []string{
		"if 1 < 2: print(1)\nelse: print(2)\n",
		"var i = 0\nwhile i < 3:\n    i = i + 1\n",
		"var xs = [1,2,3]\nfor x in xs:\n    if x == 2: continue\n    if x == 3: break\n    print(x)\n",
		"var n = 1\nrepeat:\n    n = n + 1\nwhile n < 5\n",
		`switch 1 {
case 1:
    print("a")
case 2:
    print("b")
default:
    print("c")
}`,
		`try {
    throw "x"
} catch e {
    print(e)
} finally {
    print("done")
}`,
		"func f(n):\n    if n <= 1: return n\n    return f(n-1) + f(n-2)\n",
		"var ys = [x for x in [1,2,3,4] if x % 2 == 0]\n",
		"class C:\n    func __init__(self, x):\n        self.x = x\n    func get(self):\n        return self.x\n",
	}
	for _, src := range programs {
		chunk := compileOK(t, src)
		checkChunkJumps(t, chunk)
	}
}

func TestLocalOutsideFunctionIsGlobal(t *testing.T) {
	// spec.md §3 invariant 3: outside a function, all names are global.
	chunk := compileOK(t, "var x = 1\nprint(x)\n")
	if !chunk.HasGlobal("x") {
		t.Fatalf("expected top-level 'x' to be registered as a global")
	}
}

func TestGlobalNameStaysGlobalInsideFunction(t *testing.T) {
	// spec.md §9: once a name is a known global, writes inside a
	// function keep writing the global, even though it would otherwise
	// have introduced a local.
	chunk := compileOK(t, "var g = 1\nfunc bump():\n    g = g + 1\n")
	fn := chunk.Functions["bump"]
	if fn == nil {
		t.Fatal("expected a 'bump' function entry")
	}
	if _, isLocal := fn.LocalVars["g"]; isLocal {
		t.Fatalf("expected 'g' to remain a global inside the function, got locals: %v", fn.LocalVars)
	}
	foundStoreGlobal := false
	for _, inst := range fn.Instructions {
		if inst.Op == bytecode.OP_STORE_GLOBAL {
			foundStoreGlobal = true
		}
	}
	if !foundStoreGlobal {
		t.Fatal("expected a STORE_GLOBAL instruction for 'g'")
	}
}

func TestUndeclaredNameInsideFunctionBecomesLocal(t *testing.T) {
	chunk := compileOK(t, "func f():\n    y = 1\n    return y\n")
	fn := chunk.Functions["f"]
	if _, ok := fn.LocalVars["y"]; !ok {
		t.Fatalf("expected 'y' to be a local, got %v", fn.LocalVars)
	}
}

func TestFunctionBodyAlwaysEndsInReturn(t *testing.T) {
	chunk := compileOK(t, "func f():\n    print(1)\n")
	fn := chunk.Functions["f"]
	last := fn.Instructions[len(fn.Instructions)-1]
	if last.Op != bytecode.OP_RETURN {
		t.Fatalf("expected the body to end in RETURN, got %v", last.Op)
	}
}

func TestMethodsAreKeyedUnderClassDotMethod(t *testing.T) {
	chunk := compileOK(t, "class C:\n    func __init__(self):\n        self.x = 1\n    func get(self):\n        return self.x\n")
	if _, ok := chunk.Functions["C.__init__"]; !ok {
		t.Fatalf("expected a 'C.__init__' function entry, got %v", chunk.FunctionOrder)
	}
	if _, ok := chunk.Functions["C.get"]; !ok {
		t.Fatalf("expected a 'C.get' function entry, got %v", chunk.FunctionOrder)
	}
}

func TestConstantDeduplicationAcrossManyUses(t *testing.T) {
	chunk := compileOK(t, `print(1)
print(1)
print(1)
print(1)
print(1)
`)
	count := 0
	for _, c := range chunk.Constants {
		if c.Kind == bytecode.ConstInt && c.Int == 1 {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected the literal 1 to be deduplicated to a single constant, got %d entries", count)
	}
}

func TestTrailingCommasInAggregateLiterals(t *testing.T) {
	for _, src := range []string{
		"var xs = [1, 2, 3,]\n",
		`var d = {"a": 1, "b": 2,}` + "\n",
		"var t = (1, 2, 3,)\n",
	} {
		compileOK(t, src)
	}
}

func TestEmptySourceCompiles(t *testing.T) {
	chunk := compileOK(t, "")
	if len(chunk.Main) == 0 || chunk.Main[len(chunk.Main)-1].Op != bytecode.OP_HALT {
		t.Fatalf("expected an empty program to compile to at least a HALT, got %v", chunk.Main)
	}
}
