package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aquascript/aqua/internal/compiler"
	"github.com/aquascript/aqua/internal/errorsx"
	"github.com/aquascript/aqua/internal/modules"
	"github.com/aquascript/aqua/internal/parser"
	"github.com/aquascript/aqua/internal/value"
	"github.com/aquascript/aqua/internal/vm"
)

// fileResolver answers imports aqua.yaml's module_search_path can
// serve that no host module in internal/modules claims first, per
// SPEC_FULL.md §A. It lives here rather than in internal/modules
// because resolving a file-based import means compiling and running
// one, and internal/modules must stay free of a dependency on
// internal/compiler/internal/vm to avoid an import cycle (internal/vm
// already imports internal/modules for Resolver).
func fileResolver(searchPath []string) modules.Resolver {
	return modules.ResolveFunc(func(path string) (value.Value, error) {
		rel := strings.ReplaceAll(path, ".", string(filepath.Separator)) + ".aqua"
		for _, dir := range searchPath {
			full := filepath.Join(dir, rel)
			data, err := os.ReadFile(full)
			if err != nil {
				continue
			}
			return runModuleFile(full, string(data))
		}
		return value.Nil(), fmt.Errorf("module not found: %s", path)
	})
}

// runModuleFile compiles and runs one imported .aqua file to
// completion and hands back its globals as the module's exported
// Dict, the same shape internal/modules' host modules return.
func runModuleFile(filename, source string) (value.Value, error) {
	program, parseErrs := parser.ParseFile(source, filename)
	if len(parseErrs) > 0 {
		diags := errorsx.FromParseErrors(parseErrs, source, filename)
		return value.Nil(), fmt.Errorf("%s", errorsx.FormatAll(diags, false))
	}
	chunk, codegenErrs := compiler.Compile(program)
	if len(codegenErrs) > 0 {
		diags := errorsx.FromCodegenErrors(codegenErrs, source, filename)
		return value.Nil(), fmt.Errorf("%s", errorsx.FormatAll(diags, false))
	}

	machine := vm.New(vm.WithOutput(io.Discard), vm.WithResolver(modules.Default()))
	if err := machine.Load(chunk); err != nil {
		return value.Nil(), moduleRunError(err, source, filename)
	}
	if err := machine.Run(); err != nil {
		return value.Nil(), moduleRunError(err, source, filename)
	}
	return machine.Globals(), nil
}

// moduleRunError renders a failure from running an imported module's
// own chunk through the same Diagnostic formatting the parse/codegen
// paths above use. Load/Run return a plain error (most often
// *vm.RuntimeError, which carries no token.Position of its own), so
// this goes through errorsx.FromUntyped rather than FromCodegenErrors.
func moduleRunError(err error, source, filename string) error {
	diags := errorsx.FromUntyped([]error{err}, source, filename)
	return fmt.Errorf("%s", errorsx.FormatAll(diags, false))
}
