package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aquascript/aqua/internal/bytecode"
	"github.com/aquascript/aqua/internal/compiler"
	"github.com/aquascript/aqua/internal/config"
	"github.com/aquascript/aqua/internal/errorsx"
	"github.com/aquascript/aqua/internal/parser"
)

func runCompile(_ *cobra.Command, args []string) error {
	filename, err := resolveEntry(args)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	source := string(content)

	if verbose {
		fmt.Fprintf(os.Stderr, "Compiling %s...\n", filename)
	}

	program, parseErrs := parser.ParseFile(source, filename)
	if len(parseErrs) > 0 {
		diags := errorsx.FromParseErrors(parseErrs, source, filename)
		fmt.Fprint(os.Stderr, errorsx.FormatAll(diags, true))
		fmt.Fprintln(os.Stderr)
		return fmt.Errorf("parsing failed with %d error(s)", len(parseErrs))
	}

	chunk, codegenErrs := compiler.Compile(program)
	if len(codegenErrs) > 0 {
		diags := errorsx.FromCodegenErrors(codegenErrs, source, filename)
		fmt.Fprint(os.Stderr, errorsx.FormatAll(diags, true))
		fmt.Fprintln(os.Stderr)
		return fmt.Errorf("code generation failed with %d error(s)", len(codegenErrs))
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Code generation successful\n")
		fmt.Fprintf(os.Stderr, "  Constants: %d\n", len(chunk.Constants))
		fmt.Fprintf(os.Stderr, "  Globals:   %d\n", len(chunk.GlobalOrder))
		fmt.Fprintf(os.Stderr, "  Functions: %d\n", len(chunk.FunctionOrder))
	}

	if disassemble {
		fmt.Fprintf(os.Stderr, "\n== Disassembly: %s ==\n", filename)
		bytecode.Disassemble(chunk, os.Stderr)
		fmt.Fprintln(os.Stderr)
	}

	data, err := bytecode.Serialize(chunk)
	if err != nil {
		return fmt.Errorf("failed to serialize bytecode: %w", err)
	}

	out := destinationFor(filename)
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file %s: %w", out, err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Bytecode written to %s (%d bytes)\n", out, len(data))
	} else {
		fmt.Printf("Compiled %s -> %s\n", filename, out)
	}
	return nil
}

// resolveEntry returns the file to compile: the positional argument if
// given, else aqua.yaml's entry, per SPEC_FULL.md §A's optional config.
func resolveEntry(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	cfg, err := config.Load("aqua.yaml")
	if err != nil {
		return "", err
	}
	if cfg.Entry == "" {
		return "", fmt.Errorf("no source file given and aqua.yaml has no entry")
	}
	return cfg.Entry, nil
}

func destinationFor(filename string) string {
	if outputFile != "" {
		return outputFile
	}
	ext := filepath.Ext(filename)
	if ext != "" {
		return strings.TrimSuffix(filename, ext) + ".acode"
	}
	return filename + ".acode"
}
