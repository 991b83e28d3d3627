package vm

import "github.com/aquascript/aqua/internal/value"

func (vm *VM) execBuildList(n int) error {
	items, err := vm.popN(n)
	if err != nil {
		return err
	}
	vm.push(value.List(items))
	return nil
}

func (vm *VM) execBuildTuple(n int) error {
	items, err := vm.popN(n)
	if err != nil {
		return err
	}
	vm.push(value.TupleOf(items))
	return nil
}

// execBuildDict pops 2n items — key,value pairs in emission order —
// per spec.md §4.5.
func (vm *VM) execBuildDict(n int) error {
	pairs, err := vm.popN(2 * n)
	if err != nil {
		return err
	}
	d := value.NewDict()
	for i := 0; i < n; i++ {
		d.Set(pairs[2*i], pairs[2*i+1])
	}
	vm.push(value.DictOf(d))
	return nil
}

func (vm *VM) execLen() error {
	v, err := vm.pop()
	if err != nil {
		return err
	}
	switch v.Kind {
	case value.KString:
		vm.push(value.Int(int64(len([]rune(v.Str)))))
	case value.KList:
		vm.push(value.Int(int64(len(*v.List))))
	case value.KTuple:
		vm.push(value.Int(int64(len(v.Tup))))
	case value.KDict:
		vm.push(value.Int(int64(v.Dict.Len())))
	default:
		return vm.typeError("LEN", "str/list/tuple/dict", v.TypeName())
	}
	return nil
}

// normIndex resolves a (possibly negative) index against length, per
// SPEC_FULL.md §C.5's Python-style negative-indexing supplement.
func normIndex(i int64, length int) int {
	idx := int(i)
	if idx < 0 {
		idx += length
	}
	return idx
}

func (vm *VM) execGetItem() error {
	idx, err := vm.pop()
	if err != nil {
		return err
	}
	obj, err := vm.pop()
	if err != nil {
		return err
	}

	switch obj.Kind {
	case value.KList:
		if idx.Kind != value.KInt {
			return vm.typeError("GET_ITEM", "int index", idx.TypeName())
		}
		i := normIndex(idx.Int, len(*obj.List))
		if i < 0 || i >= len(*obj.List) {
			return vm.runtimeError("list index %d out of range", idx.Int)
		}
		vm.push((*obj.List)[i])
	case value.KTuple:
		if idx.Kind != value.KInt {
			return vm.typeError("GET_ITEM", "int index", idx.TypeName())
		}
		i := normIndex(idx.Int, len(obj.Tup))
		if i < 0 || i >= len(obj.Tup) {
			return vm.runtimeError("tuple index %d out of range", idx.Int)
		}
		vm.push(obj.Tup[i])
	case value.KString:
		if idx.Kind != value.KInt {
			return vm.typeError("GET_ITEM", "int index", idx.TypeName())
		}
		runes := []rune(obj.Str)
		i := normIndex(idx.Int, len(runes))
		if i < 0 || i >= len(runes) {
			return vm.runtimeError("string index %d out of range", idx.Int)
		}
		vm.push(value.Str(string(runes[i])))
	case value.KDict:
		v, ok := obj.Dict.Get(idx)
		if !ok {
			return vm.runtimeError("key %s not found", value.Repr(idx))
		}
		vm.push(v)
	default:
		return vm.typeError("GET_ITEM", "list/tuple/str/dict", obj.TypeName())
	}
	return nil
}

func (vm *VM) execSetItem() error {
	val, err := vm.pop()
	if err != nil {
		return err
	}
	idx, err := vm.pop()
	if err != nil {
		return err
	}
	obj, err := vm.pop()
	if err != nil {
		return err
	}

	switch obj.Kind {
	case value.KList:
		if idx.Kind != value.KInt {
			return vm.typeError("SET_ITEM", "int index", idx.TypeName())
		}
		i := normIndex(idx.Int, len(*obj.List))
		if i < 0 || i >= len(*obj.List) {
			return vm.runtimeError("list index %d out of range", idx.Int)
		}
		(*obj.List)[i] = val
	case value.KDict:
		obj.Dict.Set(idx, val)
	default:
		return vm.typeError("SET_ITEM", "list/dict", obj.TypeName())
	}
	return nil
}

func (vm *VM) execGetAttr(nameIdx int32) error {
	name, err := vm.constString(nameIdx, "GET_ATTR")
	if err != nil {
		return err
	}
	obj, err := vm.pop()
	if err != nil {
		return err
	}

	switch obj.Kind {
	case value.KInstance:
		if v, ok := obj.Instance.Attrs[name]; ok {
			vm.push(v)
			return nil
		}
		if key, ok := obj.Instance.Class.LookupMethod(name); ok {
			vm.push(value.FuncRef(key))
			return nil
		}
		return vm.runtimeError("%s has no attribute %q", obj.TypeName(), name)
	case value.KDict:
		// Host modules are Dict-kind values (SPEC_FULL.md §B); dotted
		// access on one looks up its entry by name.
		v, ok := obj.Dict.Get(value.Str(name))
		if !ok {
			return vm.runtimeError("module has no member %q", name)
		}
		vm.push(v)
	case value.KClass:
		if v, ok := obj.Class.Fields[name]; ok {
			vm.push(v)
			return nil
		}
		if key, ok := obj.Class.LookupMethod(name); ok {
			vm.push(value.FuncRef(key))
			return nil
		}
		return vm.runtimeError("class %s has no attribute %q", obj.Class.Name, name)
	default:
		return vm.typeError("GET_ATTR", "instance/dict/class", obj.TypeName())
	}
	return nil
}

func (vm *VM) execSetAttr(nameIdx int32) error {
	name, err := vm.constString(nameIdx, "SET_ATTR")
	if err != nil {
		return err
	}
	val, err := vm.pop()
	if err != nil {
		return err
	}
	obj, err := vm.pop()
	if err != nil {
		return err
	}
	if obj.Kind != value.KInstance {
		return vm.typeError("SET_ATTR", "instance", obj.TypeName())
	}
	obj.Instance.Attrs[name] = val
	return nil
}

func (vm *VM) execFormatValue() error {
	v, err := vm.pop()
	if err != nil {
		return err
	}
	vm.push(value.Str(value.Display(v)))
	return nil
}
