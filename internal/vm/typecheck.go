package vm

func (vm *VM) execTypeCheck(nameIdx int32) error {
	want, err := vm.constString(nameIdx, "TYPE_CHECK")
	if err != nil {
		return err
	}
	top, err := vm.peek()
	if err != nil {
		return err
	}
	if top.TypeName() != want {
		return vm.runtimeError("TYPE_CHECK failed: expected %s, got %s", want, top.TypeName())
	}
	return nil
}
