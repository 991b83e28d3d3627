package bytecode

import (
	"fmt"
	"io"
	"strings"
)

// Disassemble writes a human-readable listing of every function body
// followed by main, one instruction per line, for `aquac disasm` and
// `aquac compile --disassemble`.
func Disassemble(c *Chunk, w io.Writer) {
	for _, name := range c.FunctionOrder {
		fn := c.Functions[name]
		fmt.Fprintf(w, "func %s(%s):\n", name, strings.Join(fn.Parameters, ", "))
		disassembleList(c, fn.Instructions, w)
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "main:")
	disassembleList(c, c.Main, w)
}

func disassembleList(c *Chunk, instrs []Instruction, w io.Writer) {
	for pc, ins := range instrs {
		fmt.Fprintf(w, "  %4d  %-16s %6d%s\n", pc, ins.Op, ins.Operand, constHint(c, ins))
	}
}

func constHint(c *Chunk, ins Instruction) string {
	if ins.Op != OP_LOAD_CONST || int(ins.Operand) < 0 || int(ins.Operand) >= len(c.Constants) {
		return ""
	}
	return "  ; " + c.Constants[ins.Operand].String()
}
