package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information, set by build flags.
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	outputFile  string
	disassemble bool
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "aquac <source.aqua>",
	Short: "Compile an AquaScript program to bytecode",
	Long: `aquac is AquaScript's ahead-of-time compiler.

It lexes, parses and code-generates a .aqua source file into the
bytecode container format aquavm loads, per spec.md's C1-C4 pipeline.`,
	Version: Version,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runCompile,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: <input>.acode)")
	rootCmd.Flags().BoolVar(&disassemble, "disassemble", false, "print disassembled bytecode after compiling")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose diagnostics")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
