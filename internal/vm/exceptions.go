package vm

import (
	"github.com/aquascript/aqua/internal/bytecode"
	"github.com/aquascript/aqua/internal/value"
)

// currentListAndKey returns the active instruction list plus a stable
// key ("" for main, else the function name) used to cache its
// catch-span table.
func (vm *VM) currentListAndKey() ([]bytecode.Instruction, string) {
	if n := len(vm.frames); n > 0 {
		f := vm.frames[n-1]
		return f.instructions(), f.FuncName
	}
	return vm.chunk.Main, ""
}

func (vm *VM) spansFor(key string, list []bytecode.Instruction) catchSpans {
	if s, ok := vm.spans[key]; ok {
		return s
	}
	s := buildCatchSpans(list)
	vm.spans[key] = s
	return s
}

// execTryBegin enumerates the try's catch chain and pushes a handler
// record, per spec.md §4.5's exception-unwinding description.
func (vm *VM) execTryBegin(firstCatchPC int) error {
	list, key := vm.currentListAndKey()
	spans := vm.spansFor(key, list)
	catches, finallyPC := enumerateCatches(list, vm.chunk, spans, firstCatchPC)
	hasFinally := finallyPC < len(list) && list[finallyPC].Op == bytecode.OP_FINALLY_BEGIN

	vm.handlers = append(vm.handlers, &tryFrame{
		catches:    catches,
		finallyPC:  finallyPC,
		hasFinally: hasFinally,
		stackDepth: len(vm.stack),
		frameDepth: len(vm.frames),
	})
	return nil
}

// execTryEnd runs on normal (no-exception) completion of a try body:
// it discards this try's handler and jumps past every catch clause, to
// the finally block (or past the whole statement if there is none).
func (vm *VM) execTryEnd(target int) error {
	if len(vm.handlers) == 0 {
		return vm.runtimeError("TRY_END without a matching TRY_BEGIN")
	}
	vm.handlers = vm.handlers[:len(vm.handlers)-1]
	vm.advancePC(target)
	return nil
}

// execCatchBegin is only ever reached by THROW's direct PC jump (never
// by linear fall-through, per internal/compiler/trycatch.go); it binds
// the current exception's original value onto the stack for the
// following STORE/POP.
func (vm *VM) execCatchBegin() error {
	if !vm.hasExc {
		return vm.runtimeError("CATCH_BEGIN reached with no active exception")
	}
	vm.push(vm.curExc)
	return nil
}

func (vm *VM) execCatchEnd() error {
	vm.hasExc = false
	vm.curExc = value.Nil()
	return nil
}

// execFinallyEnd re-propagates any exception still active when control
// reaches here — i.e. one that passed through this try's finally on
// its way out rather than being caught by one of its catch clauses.
func (vm *VM) execFinallyEnd() error {
	if vm.hasExc {
		return vm.dispatchException()
	}
	return nil
}

// execThrow implements THROW: the popped value becomes the current
// exception and unwinding begins. Per the example in spec.md §8 (a
// plain `throw "boom"` bound and printed verbatim by its catch), the
// original value is kept as-is rather than physically boxed — only
// type matching treats an already-KException value specially.
func (vm *VM) execThrow() error {
	v, err := vm.pop()
	if err != nil {
		return err
	}
	vm.hasExc = true
	vm.curExc = v
	return vm.dispatchException()
}

func (vm *VM) execReraise() error {
	if !vm.hasExc {
		return vm.runtimeError("RERAISE with no active exception")
	}
	return vm.dispatchException()
}

func excTypeName(v value.Value) string {
	if v.Kind == value.KException {
		return v.Exc.TypeName
	}
	return v.TypeName()
}

// dispatchException walks the handler stack from the top (innermost)
// down. A handler whose declared catch type matches (or is
// catch-all) wins outright. A handler with no matching catch but a
// finally block still gets control once, so its cleanup code runs;
// FINALLY_END re-enters dispatchException if the exception is still
// unhandled afterward. A handler with neither is simply discarded and
// the search continues outward.
func (vm *VM) dispatchException() error {
	typeName := excTypeName(vm.curExc)
	for len(vm.handlers) > 0 {
		h := vm.handlers[len(vm.handlers)-1]
		vm.handlers = vm.handlers[:len(vm.handlers)-1]

		for _, cc := range h.catches {
			if cc.typeName == "" || cc.typeName == typeName {
				vm.unwindTo(h)
				vm.advancePC(cc.pc)
				return nil
			}
		}
		if h.hasFinally {
			vm.unwindTo(h)
			vm.advancePC(h.finallyPC)
			return nil
		}
	}

	exc := vm.curExc
	vm.hasExc = false
	vm.curExc = value.Nil()
	return vm.runtimeError("uncaught exception: %s", value.Display(exc))
}

func (vm *VM) unwindTo(h *tryFrame) {
	vm.trimStack(h.stackDepth)
	if h.frameDepth < len(vm.frames) {
		vm.frames = vm.frames[:h.frameDepth]
	}
}
