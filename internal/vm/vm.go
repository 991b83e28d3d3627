// Package vm implements AquaScript's stack-based bytecode interpreter,
// per spec.md §4.5 (C6). Its dispatch loop, stack helpers and
// per-concern file split (calls, ops, aggregates, iteration,
// exceptions, classes, imports) are modeled on the teacher's
// internal/bytecode/vm*.go family, adapted to AquaScript's simpler
// (opcode, single operand) instruction shape.
package vm

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aquascript/aqua/internal/bytecode"
	"github.com/aquascript/aqua/internal/builtins"
	"github.com/aquascript/aqua/internal/modules"
	"github.com/aquascript/aqua/internal/value"
)

// Stats is the end-of-run summary spec.md §6 requires for `aquavm`.
type Stats struct {
	Instructions  int
	Calls         int
	PeakStack     int
	PeakCallDepth int
	Elapsed       time.Duration
}

// VM executes one loaded Chunk. It is not safe for concurrent use; per
// spec.md §5 there is exactly one operand stack, one call-frame stack
// and one PC.
type VM struct {
	chunk *bytecode.Chunk

	stack  []value.Value
	frames []*Frame
	mainPC int

	globals []value.Value
	classes map[string]*value.Class

	// handlers is the live try-handler stack; THROW walks it from the
	// top (innermost) down, per spec.md §4.5.
	handlers []*tryFrame
	curExc   value.Value
	hasExc   bool

	spans map[string]catchSpans // per-list cache, keyed by FuncName ("" == main)

	resolver modules.Resolver
	modCache map[string]value.Value

	out   io.Writer
	debug io.Writer // nil disables instruction tracing

	// skipGlobalInit turns off the Load-time global-init pre-pass, per
	// SPEC_FULL.md §A's aqua.yaml disable_global_init knob.
	skipGlobalInit bool

	stats Stats
}

// Option configures a VM at construction time.
type Option func(*VM)

// WithOutput redirects print and other stdout-writing builtins.
func WithOutput(w io.Writer) Option {
	return func(vm *VM) { vm.out = w }
}

// WithResolver installs a module resolver for IMPORT_MODULE/IMPORT_FROM.
// The zero value (nil) resolves nothing and every import fails, per
// spec.md §9's re-architected import story.
func WithResolver(r modules.Resolver) Option {
	return func(vm *VM) { vm.resolver = r }
}

// WithDebug enables `--debug` instruction tracing to w, per spec.md §6.
func WithDebug(w io.Writer) Option {
	return func(vm *VM) { vm.debug = w }
}

// WithGlobalInitDisabled turns off spec.md §4.5's global-initialization
// pre-pass that Load otherwise runs unconditionally. A caller that
// reloads the same Chunk repeatedly (a future watch-and-reload tool,
// or a file-based module imported more than once in one process) sets
// this once it has already run the pre-pass for that chunk and wants
// to re-enter Run without re-firing top-level side effects.
func WithGlobalInitDisabled() Option {
	return func(vm *VM) { vm.skipGlobalInit = true }
}

// New constructs a VM ready to Load a Chunk.
func New(opts ...Option) *VM {
	vm := &VM{
		out:      os.Stdout,
		classes:  map[string]*value.Class{},
		spans:    map[string]catchSpans{},
		modCache: map[string]value.Value{},
	}
	for _, o := range opts {
		o(vm)
	}
	return vm
}

// Load prepares chunk for execution: resets VM state, seeds globals
// with built-ins (so an un-shadowed `print`, `len`, etc. resolves
// through the ordinary LOAD_GLOBAL/CALL path), and runs the
// global-initialization pre-pass documented in spec.md §4.5.
func (vm *VM) Load(chunk *bytecode.Chunk) error {
	vm.chunk = chunk
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	vm.mainPC = 0
	vm.handlers = nil
	vm.hasExc = false
	vm.curExc = value.Nil()
	vm.classes = map[string]*value.Class{}
	vm.spans = map[string]catchSpans{}
	vm.modCache = map[string]value.Value{}
	vm.stats = Stats{}

	vm.globals = make([]value.Value, len(chunk.GlobalOrder))
	for name, idx := range chunk.GlobalNames {
		if fn, ok := builtins.Lookup(name); ok {
			vm.globals[idx] = value.NativeFn(name, vm.wrapBuiltin(name, fn))
		}
	}

	if !vm.skipGlobalInit {
		vm.runGlobalInitPass()
	}
	return nil
}

// Globals exposes every named global as a Dict keyed by name, in
// chunk.GlobalOrder order. A file-based module import (cmd/aquavm's
// fileResolver) runs the imported file's chunk to completion and uses
// this as the module's exported namespace, mirroring how
// internal/modules' host modules hand back a Dict of their own.
func (vm *VM) Globals() value.Value {
	d := value.NewDict()
	for _, name := range vm.chunk.GlobalOrder {
		idx, ok := vm.chunk.GlobalNames[name]
		if !ok || int(idx) >= len(vm.globals) {
			continue
		}
		d.Set(value.Str(name), vm.globals[idx])
	}
	return value.DictOf(d)
}

// wrapBuiltin closes a builtin over this VM's output writer, per
// SPEC_FULL.md §A's ambient-stack note that built-ins write through
// the VM's configured sink rather than directly to os.Stdout.
func (vm *VM) wrapBuiltin(name string, fn builtins.Func) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		return fn(vm.out, args)
	}
}

// Run executes the loaded chunk to completion (or to a fatal error).
func (vm *VM) Run() error {
	start := time.Now()
	err := vm.dispatch()
	vm.stats.Elapsed = time.Since(start)
	return err
}

// Stats returns the end-of-run counters, valid after Run returns.
func (vm *VM) Stats() Stats { return vm.stats }

// dispatch is the tight (opcode, operand) loop spec.md §4.5 describes:
// the PC of the active context is incremented before the handler runs;
// handlers may overwrite it to jump.
func (vm *VM) dispatch() error {
	for {
		list, pc, ok := vm.activeList()
		if !ok {
			return nil // no frames and mainPC ran off the end: implicit halt
		}
		if pc >= len(list) {
			// Falling off the end of a function body can't happen (every
			// function is guaranteed to end in RETURN); falling off the
			// end of main is a normal program end if no HALT was reached.
			if len(vm.frames) == 0 {
				return nil
			}
			return vm.runtimeError("frame %q ran off the end of its instructions", vm.frames[len(vm.frames)-1].FuncName)
		}

		inst := list[pc]
		vm.advancePC(pc + 1)
		vm.stats.Instructions++
		if len(vm.stack) > vm.stats.PeakStack {
			vm.stats.PeakStack = len(vm.stack)
		}
		if len(vm.frames) > vm.stats.PeakCallDepth {
			vm.stats.PeakCallDepth = len(vm.frames)
		}

		if vm.debug != nil {
			vm.traceInstruction(inst, pc)
		}

		if err := vm.exec(inst); err != nil {
			if halt, ok := err.(haltSignal); ok {
				_ = halt
				return nil
			}
			return err
		}
	}
}

// haltSignal is a sentinel used only to unwind dispatch on OP_HALT; it
// is never surfaced to callers of Run.
type haltSignal struct{}

func (haltSignal) Error() string { return "halt" }

// activeList returns the instruction list and PC of whichever context
// is executing: the innermost call frame, or main.
func (vm *VM) activeList() (list []bytecode.Instruction, pc int, ok bool) {
	if n := len(vm.frames); n > 0 {
		f := vm.frames[n-1]
		return f.instructions(), f.PC, true
	}
	if vm.mainPC > len(vm.chunk.Main) {
		return nil, 0, false
	}
	return vm.chunk.Main, vm.mainPC, true
}

// advancePC sets the PC of the active context to pc.
func (vm *VM) advancePC(pc int) {
	if n := len(vm.frames); n > 0 {
		vm.frames[n-1].PC = pc
		return
	}
	vm.mainPC = pc
}

func (vm *VM) traceInstruction(inst bytecode.Instruction, pc int) {
	ctx := "main"
	if n := len(vm.frames); n > 0 {
		ctx = vm.frames[n-1].FuncName
	}
	top := vm.stackTail(3)
	fmt.Fprintf(vm.debug, "[%s:%d] %s %d | Stack: %s\n", ctx, pc, inst.Op, inst.Operand, top)
}

func (vm *VM) stackTail(n int) string {
	start := len(vm.stack) - n
	if start < 0 {
		start = 0
	}
	parts := make([]string, 0, len(vm.stack)-start)
	for _, v := range vm.stack[start:] {
		parts = append(parts, value.Repr(v))
	}
	return fmt.Sprintf("%v", parts)
}

// exec dispatches a single decoded instruction. Split across
// calls.go/ops.go/aggregates.go/iteration.go/exceptions.go/classes.go/
// imports.go by concern, mirroring the teacher's vm_*.go split.
func (vm *VM) exec(inst bytecode.Instruction) error {
	switch inst.Op {
	case bytecode.OP_NOP:
		return nil
	case bytecode.OP_LOAD_CONST:
		return vm.execLoadConst(inst.Operand)
	case bytecode.OP_LOAD_GLOBAL:
		return vm.execLoadGlobal(inst.Operand)
	case bytecode.OP_STORE_GLOBAL:
		return vm.execStoreGlobal(inst.Operand)
	case bytecode.OP_LOAD_LOCAL:
		return vm.execLoadLocal(inst.Operand)
	case bytecode.OP_STORE_LOCAL:
		return vm.execStoreLocal(inst.Operand)
	case bytecode.OP_LOAD_FUNC:
		return vm.execLoadFunc(inst.Operand)
	case bytecode.OP_POP:
		_, err := vm.pop()
		return err
	case bytecode.OP_DUP:
		return vm.execDup()
	case bytecode.OP_ROT_TWO:
		return vm.execRotTwo()
	case bytecode.OP_ROT_THREE:
		return vm.execRotThree()

	case bytecode.OP_ADD, bytecode.OP_SUB, bytecode.OP_MUL, bytecode.OP_DIV, bytecode.OP_MOD, bytecode.OP_POW:
		return vm.execArith(inst.Op)
	case bytecode.OP_EQ, bytecode.OP_NE, bytecode.OP_LT, bytecode.OP_GT, bytecode.OP_LE, bytecode.OP_GE:
		return vm.execCompare(inst.Op)
	case bytecode.OP_IN:
		return vm.execIn()
	case bytecode.OP_AND:
		return vm.execAnd()
	case bytecode.OP_OR:
		return vm.execOr()
	case bytecode.OP_NOT:
		return vm.execNot()

	case bytecode.OP_JUMP:
		vm.advancePC(int(inst.Operand))
		return nil
	case bytecode.OP_JUMP_IF_FALSE:
		return vm.execJumpIf(inst.Operand, false)
	case bytecode.OP_JUMP_IF_TRUE:
		return vm.execJumpIf(inst.Operand, true)

	case bytecode.OP_CALL:
		return vm.execCall(int(inst.Operand))
	case bytecode.OP_CALL_METHOD:
		return vm.execCallMethod(inst.Operand)
	case bytecode.OP_RETURN:
		return vm.execReturn()

	case bytecode.OP_BUILD_LIST:
		return vm.execBuildList(int(inst.Operand))
	case bytecode.OP_BUILD_DICT:
		return vm.execBuildDict(int(inst.Operand))
	case bytecode.OP_BUILD_TUPLE:
		return vm.execBuildTuple(int(inst.Operand))
	case bytecode.OP_LEN:
		return vm.execLen()
	case bytecode.OP_GET_ITEM:
		return vm.execGetItem()
	case bytecode.OP_SET_ITEM:
		return vm.execSetItem()
	case bytecode.OP_GET_ATTR:
		return vm.execGetAttr(inst.Operand)
	case bytecode.OP_SET_ATTR:
		return vm.execSetAttr(inst.Operand)
	case bytecode.OP_FORMAT_VALUE:
		return vm.execFormatValue()

	case bytecode.OP_GET_ITER:
		return vm.execGetIter()
	case bytecode.OP_FOR_ITER:
		return vm.execForIter(int(inst.Operand))
	case bytecode.OP_LIST_APPEND:
		return vm.execListAppend()

	case bytecode.OP_IMPORT_MODULE:
		return vm.execImportModule(inst.Operand)
	case bytecode.OP_IMPORT_FROM:
		return vm.execImportFrom(inst.Operand)

	case bytecode.OP_CREATE_CLASS:
		return vm.execCreateClass(inst.Operand)
	case bytecode.OP_CREATE_OBJECT:
		return vm.execCreateObject()

	case bytecode.OP_TRY_BEGIN:
		return vm.execTryBegin(int(inst.Operand))
	case bytecode.OP_TRY_END:
		return vm.execTryEnd(int(inst.Operand))
	case bytecode.OP_CATCH_BEGIN:
		return vm.execCatchBegin()
	case bytecode.OP_CATCH_END:
		return vm.execCatchEnd()
	case bytecode.OP_FINALLY_BEGIN:
		return nil
	case bytecode.OP_FINALLY_END:
		return vm.execFinallyEnd()
	case bytecode.OP_THROW:
		return vm.execThrow()
	case bytecode.OP_RERAISE:
		return vm.execReraise()

	case bytecode.OP_TYPE_CHECK:
		return vm.execTypeCheck(inst.Operand)
	case bytecode.OP_HALT:
		return haltSignal{}
	}
	return vm.runtimeError("unknown opcode %d", inst.Op)
}
