package vm

import "github.com/aquascript/aqua/internal/value"

// execCreateClass consumes [base-name-or-nil, methodDict, fieldDict]
// (bottom to top; fieldDict is popped first), builds a value.Class and
// registers it by name in the
// VM's class table, per spec.md §4.3/§4.5.
func (vm *VM) execCreateClass(nameIdx int32) error {
	name, err := vm.constString(nameIdx, "CREATE_CLASS")
	if err != nil {
		return err
	}

	fieldDict, err := vm.pop()
	if err != nil {
		return err
	}
	if fieldDict.Kind != value.KDict {
		return vm.typeError("CREATE_CLASS", "dict (fields)", fieldDict.TypeName())
	}
	methodDict, err := vm.pop()
	if err != nil {
		return err
	}
	if methodDict.Kind != value.KDict {
		return vm.typeError("CREATE_CLASS", "dict (methods)", methodDict.TypeName())
	}
	baseVal, err := vm.pop()
	if err != nil {
		return err
	}

	var parent *value.Class
	if baseVal.Kind == value.KString {
		p, ok := vm.classes[baseVal.Str]
		if !ok {
			return vm.runtimeError("base class %q not found", baseVal.Str)
		}
		parent = p
	} else if baseVal.Kind != value.KNil {
		return vm.typeError("CREATE_CLASS", "str or nil (base)", baseVal.TypeName())
	}

	methods := make(map[string]string, methodDict.Dict.Len())
	for _, e := range methodDict.Dict.Entries {
		methods[e.Key.Str] = e.Value.Str
	}
	fields := make(map[string]value.Value, fieldDict.Dict.Len())
	for _, e := range fieldDict.Dict.Entries {
		fields[e.Key.Str] = e.Value
	}

	cls := &value.Class{Name: name, Parent: parent, Methods: methods, Fields: fields}
	vm.classes[name] = cls
	vm.push(value.ClassVal(cls))
	return nil
}

// execCreateObject instantiates the class on top of the stack with no
// constructor arguments — the explicit-opcode counterpart to CALL's
// instantiation path (spec.md §4.5 lists it among the class opcodes,
// though internal/compiler only ever emits instantiation via CALL).
func (vm *VM) execCreateObject() error {
	classVal, err := vm.pop()
	if err != nil {
		return err
	}
	if classVal.Kind != value.KClass {
		return vm.typeError("CREATE_OBJECT", "class", classVal.TypeName())
	}
	inst := newInstance(classVal.Class)
	if _, ok := classVal.Class.LookupMethod("__init__"); ok {
		return vm.runtimeError("class %s requires __init__ arguments; use CALL", classVal.Class.Name)
	}
	vm.push(value.InstanceVal(inst))
	return nil
}

func newInstance(cls *value.Class) *value.Instance {
	attrs := make(map[string]value.Value, len(cls.Fields))
	for cur := cls; cur != nil; cur = cur.Parent {
		for k, v := range cur.Fields {
			if _, exists := attrs[k]; !exists {
				attrs[k] = v
			}
		}
	}
	return &value.Instance{Class: cls, Attrs: attrs}
}
