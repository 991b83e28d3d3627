package bytecode

import (
	"bytes"
	"strings"
	"testing"
)

func TestDisassembleListsFunctionsBeforeMain(t *testing.T) {
	c := NewChunk()
	greetIdx := c.AddConst(Const{Kind: ConstString, Str: "hi"})
	c.AddFunction(&FuncEntry{
		Name:         "greet",
		Parameters:   []string{"name"},
		DefaultConst: []int32{-1},
		LocalCount:   1,
		Instructions: []Instruction{
			{Op: OP_LOAD_CONST, Operand: greetIdx},
			{Op: OP_RETURN},
		},
	})
	c.Main = []Instruction{
		{Op: OP_LOAD_GLOBAL, Operand: 0},
		{Op: OP_HALT},
	}

	var buf bytes.Buffer
	Disassemble(c, &buf)
	out := buf.String()

	funcIdx := strings.Index(out, "func greet(name):")
	mainIdx := strings.Index(out, "main:")
	if funcIdx == -1 || mainIdx == -1 {
		t.Fatalf("expected both a func header and a main header, got:\n%s", out)
	}
	if funcIdx > mainIdx {
		t.Fatalf("expected the function listing before main, got:\n%s", out)
	}
	if !strings.Contains(out, `; "hi"`) {
		t.Fatalf("expected a LOAD_CONST line to annotate its constant, got:\n%s", out)
	}
	if !strings.Contains(out, "LOAD_CONST") || !strings.Contains(out, "RETURN") {
		t.Fatalf("expected opcode mnemonics in the listing, got:\n%s", out)
	}
}

func TestDisassembleOmitsConstHintForNonLoadConst(t *testing.T) {
	c := NewChunk()
	c.Main = []Instruction{{Op: OP_HALT}}
	var buf bytes.Buffer
	Disassemble(c, &buf)
	if strings.Contains(buf.String(), ";") {
		t.Fatalf("expected no constant annotation on a non-LOAD_CONST instruction, got:\n%s", buf.String())
	}
}
