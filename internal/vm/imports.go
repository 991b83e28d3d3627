package vm

// execImportModule and execImportFrom both push the resolved module's
// exports (a Dict-kind value, per SPEC_FULL.md §B); IMPORT_FROM's
// per-name GET_ATTR that internal/compiler emits afterward picks the
// individual binding out of it.
func (vm *VM) execImportModule(pathIdx int32) error {
	return vm.pushModule(pathIdx, "IMPORT_MODULE")
}

func (vm *VM) execImportFrom(pathIdx int32) error {
	return vm.pushModule(pathIdx, "IMPORT_FROM")
}

func (vm *VM) pushModule(pathIdx int32, context string) error {
	path, err := vm.constString(pathIdx, context)
	if err != nil {
		return err
	}
	if cached, ok := vm.modCache[path]; ok {
		vm.push(cached)
		return nil
	}
	if vm.resolver == nil {
		return vm.runtimeError("module not found: %s", path)
	}
	mod, err := vm.resolver.Resolve(path)
	if err != nil {
		return vm.runtimeError("module %q: %v", path, err)
	}
	vm.modCache[path] = mod
	vm.push(mod)
	return nil
}
