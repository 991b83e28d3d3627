package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aquascript/aqua/internal/bytecode"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm <file.acode>",
	Short: "Disassemble a compiled bytecode container",
	Args:  cobra.ExactArgs(1),
	RunE:  runDisasm,
}

func init() {
	rootCmd.AddCommand(disasmCmd)
}

func runDisasm(_ *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", args[0], err)
	}
	chunk, err := bytecode.Deserialize(data)
	if err != nil {
		return fmt.Errorf("failed to deserialize %s: %w", args[0], err)
	}
	bytecode.Disassemble(chunk, os.Stdout)
	return nil
}
