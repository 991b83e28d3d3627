package vm

import (
	"github.com/aquascript/aqua/internal/bytecode"
	"github.com/aquascript/aqua/internal/value"
)

// currentPC returns the PC of whichever context is active right now
// (after the CALL/CALL_METHOD instruction's own PC was already
// advanced by dispatch), and whether that context is main.
func (vm *VM) currentPC() (pc int, isMain bool) {
	if n := len(vm.frames); n > 0 {
		return vm.frames[n-1].PC, false
	}
	return vm.mainPC, true
}

// execCall implements spec.md §4.5 point 1: pop argc args, pop the
// callee, and dispatch on its kind.
func (vm *VM) execCall(argc int) error {
	args, err := vm.popN(argc)
	if err != nil {
		return err
	}
	callee, err := vm.pop()
	if err != nil {
		return err
	}

	switch callee.Kind {
	case value.KFuncRef:
		return vm.callUserFunction(callee.FuncName, args, false, value.Nil())
	case value.KNativeFunc:
		return vm.callNative(callee, args)
	case value.KClass:
		return vm.instantiate(callee.Class, args)
	default:
		return vm.typeError("CALL", "function, native function, or class", callee.TypeName())
	}
}

func (vm *VM) callNative(callee value.Value, args []value.Value) error {
	vm.stats.Calls++
	result, err := callee.Native.Fn(args)
	if err != nil {
		return vm.runtimeError("%s: %v", callee.Native.Name, err)
	}
	vm.push(result)
	return nil
}

// callUserFunction pushes a new call frame for the function named
// name, binding args (and defaults for any trailing omitted
// parameters) to locals 0..len(params)-1.
func (vm *VM) callUserFunction(name string, args []value.Value, isConstructor bool, constructResult value.Value) error {
	fn, ok := vm.chunk.Functions[name]
	if !ok {
		return vm.runtimeError("unknown function %q", name)
	}
	nParams := len(fn.Parameters)
	if len(args) > nParams {
		return vm.runtimeError("%s: too many arguments (got %d, want at most %d)", name, len(args), nParams)
	}

	locals := make([]value.Value, fn.LocalCount)
	for i := 0; i < nParams; i++ {
		switch {
		case i < len(args):
			locals[i] = args[i]
		case fn.DefaultConst[i] >= 0:
			locals[i] = constToValue(vm.chunk.Constants[fn.DefaultConst[i]])
		default:
			return vm.runtimeError("%s: missing required argument %q", name, fn.Parameters[i])
		}
	}

	pc, isMain := vm.currentPC()
	vm.frames = append(vm.frames, &Frame{
		FuncName:        name,
		Fn:              fn,
		Locals:          locals,
		PC:              0,
		ReturnPC:        pc,
		ReturnToMain:    isMain,
		IsConstructor:   isConstructor,
		ConstructResult: constructResult,
	})
	vm.stats.Calls++
	return nil
}

// execReturn implements spec.md §4.5 point 4.
func (vm *VM) execReturn() error {
	retVal, err := vm.pop()
	if err != nil {
		return err
	}
	n := len(vm.frames)
	if n == 0 {
		return vm.runtimeError("RETURN outside a function frame")
	}
	frame := vm.frames[n-1]
	vm.frames = vm.frames[:n-1]

	// Discard handlers registered inside the returning frame that never
	// reached their TRY_END (e.g. a `return` inside a try body).
	for len(vm.handlers) > 0 && vm.handlers[len(vm.handlers)-1].frameDepth > len(vm.frames) {
		vm.handlers = vm.handlers[:len(vm.handlers)-1]
	}

	if frame.ReturnToMain {
		vm.mainPC = frame.ReturnPC
	} else if len(vm.frames) > 0 {
		vm.frames[len(vm.frames)-1].PC = frame.ReturnPC
	}

	if frame.IsConstructor {
		vm.push(frame.ConstructResult)
	} else {
		vm.push(retVal)
	}
	return nil
}

// instantiate implements spec.md §4.5 point 2.
func (vm *VM) instantiate(cls *value.Class, args []value.Value) error {
	inst := newInstance(cls)
	result := value.InstanceVal(inst)

	key, ok := cls.LookupMethod("__init__")
	if !ok {
		if len(args) != 0 {
			return vm.runtimeError("class %s has no __init__; call with zero arguments", cls.Name)
		}
		vm.push(result)
		return nil
	}

	fullArgs := make([]value.Value, 0, len(args)+1)
	fullArgs = append(fullArgs, result)
	fullArgs = append(fullArgs, args...)
	return vm.callUserFunction(key, fullArgs, true, result)
}

// execCallMethod implements spec.md §4.5 point 3, extended per
// SPEC_FULL.md §B so a Dict receiver (a host module) dispatches its
// native or plain functions without an implicit receiver argument.
func (vm *VM) execCallMethod(operand int32) error {
	argc, nameIdx := bytecode.UnpackMethodOperand(operand)
	name, err := vm.constString(int32(nameIdx), "CALL_METHOD")
	if err != nil {
		return err
	}
	args, err := vm.popN(argc)
	if err != nil {
		return err
	}
	receiver, err := vm.pop()
	if err != nil {
		return err
	}

	switch receiver.Kind {
	case value.KInstance:
		key, ok := receiver.Instance.Class.LookupMethod(name)
		if !ok {
			return vm.runtimeError("%s has no method %q", receiver.TypeName(), name)
		}
		fullArgs := make([]value.Value, 0, len(args)+1)
		fullArgs = append(fullArgs, receiver)
		fullArgs = append(fullArgs, args...)
		return vm.callUserFunction(key, fullArgs, false, value.Nil())
	case value.KDict:
		member, ok := receiver.Dict.Get(value.Str(name))
		if !ok {
			return vm.runtimeError("module has no member %q", name)
		}
		switch member.Kind {
		case value.KNativeFunc:
			return vm.callNative(member, args)
		case value.KFuncRef:
			return vm.callUserFunction(member.FuncName, args, false, value.Nil())
		default:
			return vm.typeError("CALL_METHOD", "callable module member", member.TypeName())
		}
	case value.KClass:
		return vm.runtimeError("class %s has no method %q", receiver.Class.Name, name)
	default:
		return vm.typeError("CALL_METHOD", "instance or module", receiver.TypeName())
	}
}

