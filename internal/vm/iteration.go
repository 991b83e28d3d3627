package vm

import "github.com/aquascript/aqua/internal/value"

// execGetIter builds the (sequence, cursor, length) iterator tuple of
// spec.md §4.5. Only ordered sequences are iterable in this core.
func (vm *VM) execGetIter() error {
	v, err := vm.pop()
	if err != nil {
		return err
	}
	length, ok := sequenceLen(v)
	if !ok {
		return vm.typeError("GET_ITER", "list/tuple/str", v.TypeName())
	}
	vm.push(value.IteratorVal(&value.Iterator{Sequence: v, Cursor: 0, Length: length}))
	return nil
}

func sequenceLen(v value.Value) (int, bool) {
	switch v.Kind {
	case value.KList:
		return len(*v.List), true
	case value.KTuple:
		return len(v.Tup), true
	case value.KString:
		return len([]rune(v.Str)), true
	}
	return 0, false
}

func sequenceElemAt(v value.Value, i int) value.Value {
	switch v.Kind {
	case value.KList:
		return (*v.List)[i]
	case value.KTuple:
		return v.Tup[i]
	case value.KString:
		return value.Str(string([]rune(v.Str)[i]))
	}
	return value.Nil()
}

// execForIter peeks the iterator; on exhaustion it pops it and jumps
// to end, otherwise it pushes the next element and advances the
// cursor in place, per spec.md §4.5.
func (vm *VM) execForIter(end int) error {
	top, err := vm.peek()
	if err != nil {
		return err
	}
	if top.Kind != value.KIterator {
		return vm.typeError("FOR_ITER", "iterator", top.TypeName())
	}
	it := top.Iter
	if it.Cursor >= it.Length {
		_, _ = vm.pop()
		vm.advancePC(end)
		return nil
	}
	elem := sequenceElemAt(it.Sequence, it.Cursor)
	it.Cursor++
	vm.push(elem)
	return nil
}

// execListAppend pops the element on top and appends it to the list
// that sits below the iterator, per spec.md §4.5.
func (vm *VM) execListAppend() error {
	elem, err := vm.pop()
	if err != nil {
		return err
	}
	list, err := vm.peekAt(1)
	if err != nil {
		return err
	}
	if list.Kind != value.KList {
		return vm.typeError("LIST_APPEND", "list", list.TypeName())
	}
	*list.List = append(*list.List, elem)
	return nil
}
