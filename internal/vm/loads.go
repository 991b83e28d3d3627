package vm

import (
	"github.com/aquascript/aqua/internal/bytecode"
	"github.com/aquascript/aqua/internal/value"
)

func (vm *VM) execLoadConst(idx int32) error {
	if idx < 0 || int(idx) >= len(vm.chunk.Constants) {
		return vm.runtimeError("LOAD_CONST index %d out of range", idx)
	}
	vm.push(constToValue(vm.chunk.Constants[idx]))
	return nil
}

func constToValue(c bytecode.Const) value.Value {
	switch c.Kind {
	case bytecode.ConstNil:
		return value.Nil()
	case bytecode.ConstBool:
		return value.Bool(c.Bool)
	case bytecode.ConstInt:
		return value.Int(c.Int)
	case bytecode.ConstFloat:
		return value.Float(c.Flt)
	case bytecode.ConstString:
		return value.Str(c.Str)
	}
	return value.Nil()
}

func (vm *VM) execLoadGlobal(idx int32) error {
	v, err := vm.getGlobal(idx)
	if err != nil {
		return err
	}
	vm.push(v)
	return nil
}

func (vm *VM) execStoreGlobal(idx int32) error {
	v, err := vm.pop()
	if err != nil {
		return err
	}
	return vm.setGlobal(idx, v)
}

func (vm *VM) currentLocals() ([]value.Value, error) {
	if len(vm.frames) == 0 {
		return nil, vm.runtimeError("local access outside a function frame")
	}
	return vm.frames[len(vm.frames)-1].Locals, nil
}

func (vm *VM) execLoadLocal(idx int32) error {
	locals, err := vm.currentLocals()
	if err != nil {
		return err
	}
	if idx < 0 || int(idx) >= len(locals) {
		return vm.runtimeError("local index %d out of range", idx)
	}
	vm.push(locals[idx])
	return nil
}

func (vm *VM) execStoreLocal(idx int32) error {
	v, err := vm.pop()
	if err != nil {
		return err
	}
	locals, err := vm.currentLocals()
	if err != nil {
		return err
	}
	if idx < 0 || int(idx) >= len(locals) {
		return vm.runtimeError("local index %d out of range", idx)
	}
	locals[idx] = v
	return nil
}

// execLoadFunc pushes the function-name string from constants as a
// callable function reference, per spec.md §4.5's "LOAD_FUNC k (pushes
// the function-name string from constants)" — reified here as a
// KFuncRef value rather than a bare string, per spec.md §9's note that
// reimplementers may "introduce a function id constant kind".
func (vm *VM) execLoadFunc(idx int32) error {
	name, err := vm.constString(idx, "LOAD_FUNC")
	if err != nil {
		return err
	}
	vm.push(value.FuncRef(name))
	return nil
}

func (vm *VM) execDup() error {
	v, err := vm.peek()
	if err != nil {
		return err
	}
	vm.push(v)
	return nil
}

func (vm *VM) execRotTwo() error {
	a, err := vm.peekAt(0)
	if err != nil {
		return err
	}
	b, err := vm.peekAt(1)
	if err != nil {
		return err
	}
	n := len(vm.stack)
	vm.stack[n-1], vm.stack[n-2] = b, a
	return nil
}

func (vm *VM) execRotThree() error {
	n := len(vm.stack)
	if n < 3 {
		return vm.runtimeError("stack underflow")
	}
	vm.stack[n-1], vm.stack[n-2], vm.stack[n-3] = vm.stack[n-2], vm.stack[n-3], vm.stack[n-1]
	return nil
}

func (vm *VM) execJumpIf(target int32, onTrue bool) error {
	v, err := vm.pop()
	if err != nil {
		return err
	}
	if v.Truthy() == onTrue {
		vm.advancePC(int(target))
	}
	return nil
}
