package vm

import (
	"github.com/aquascript/aqua/internal/bytecode"
	"github.com/aquascript/aqua/internal/value"
)

// runGlobalInitPass implements spec.md §4.5's global-initialization
// pass: before normal execution, walk main's instructions from the
// top executing only LOAD_CONST, STORE_GLOBAL, LOAD_FUNC and
// TYPE_CHECK (a nop here), stopping at the first instruction outside
// that set. This lets a function declared later in the file be called
// by code that runs earlier at the top level — "function declarations
// are visible before their textual definition is executed."
//
// This pass uses its own scratch stack; it never touches vm.stack,
// which normal execution starts from empty regardless of what this
// pre-pass pushed and popped.
func (vm *VM) runGlobalInitPass() {
	var scratch []value.Value
	for _, inst := range vm.chunk.Main {
		switch inst.Op {
		case bytecode.OP_LOAD_CONST:
			if inst.Operand < 0 || int(inst.Operand) >= len(vm.chunk.Constants) {
				return
			}
			scratch = append(scratch, constToValue(vm.chunk.Constants[inst.Operand]))
		case bytecode.OP_LOAD_FUNC:
			if int(inst.Operand) >= len(vm.chunk.Constants) {
				return
			}
			scratch = append(scratch, value.FuncRef(vm.chunk.Constants[inst.Operand].Str))
		case bytecode.OP_STORE_GLOBAL:
			if len(scratch) == 0 {
				return
			}
			v := scratch[len(scratch)-1]
			scratch = scratch[:len(scratch)-1]
			idx := inst.Operand
			for int(idx) >= len(vm.globals) {
				vm.globals = append(vm.globals, value.Nil())
			}
			vm.globals[idx] = v
		case bytecode.OP_TYPE_CHECK:
			// nop during the pre-pass, per spec.md §4.5.
		default:
			return
		}
	}
}
