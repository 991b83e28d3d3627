package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aquascript/aqua/internal/bytecode"
	"github.com/aquascript/aqua/internal/config"
	"github.com/aquascript/aqua/internal/errorsx"
	"github.com/aquascript/aqua/internal/modules"
	"github.com/aquascript/aqua/internal/vm"
)

func runVM(_ *cobra.Command, args []string) error {
	cfg, err := config.Load("aqua.yaml")
	if err != nil {
		return err
	}

	filename, err := resolveAcode(args, cfg)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	chunk, err := bytecode.Deserialize(data)
	if err != nil {
		return fmt.Errorf("failed to load bytecode from %s: %w", filename, err)
	}

	opts := []vm.Option{
		vm.WithOutput(os.Stdout),
		vm.WithResolver(modules.DefaultWithFallback(fileResolver(cfg.ModuleSearchPath))),
	}
	if debugTrace {
		opts = append(opts, vm.WithDebug(os.Stderr))
	}
	if cfg.DisableGlobalInit {
		opts = append(opts, vm.WithGlobalInitDisabled())
	}

	machine := vm.New(opts...)
	if err := machine.Load(chunk); err != nil {
		return fmt.Errorf("failed to load chunk: %w", err)
	}

	runErr := machine.Run()

	if !noStats {
		s := machine.Stats()
		fmt.Fprintf(os.Stderr, "\n-- stats --\n")
		fmt.Fprintf(os.Stderr, "instructions: %d\n", s.Instructions)
		fmt.Fprintf(os.Stderr, "calls:        %d\n", s.Calls)
		fmt.Fprintf(os.Stderr, "peak stack:   %d\n", s.PeakStack)
		fmt.Fprintf(os.Stderr, "peak depth:   %d\n", s.PeakCallDepth)
		fmt.Fprintf(os.Stderr, "elapsed:      %s\n", s.Elapsed)
	}

	if runErr != nil {
		if rte, ok := runErr.(*vm.RuntimeError); ok {
			fmt.Fprint(os.Stderr, errorsx.FormatRuntimeTrace(rte.Message, rte.Trace, true))
			return fmt.Errorf("execution failed")
		}
		return runErr
	}
	return nil
}

// resolveAcode returns the file to run: the positional argument if
// given, else aqua.yaml's configured compiled-output path.
func resolveAcode(args []string, cfg *config.Config) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if cfg.Output == "" {
		return "", fmt.Errorf("no bytecode file given and aqua.yaml has no output path")
	}
	return cfg.Output, nil
}
