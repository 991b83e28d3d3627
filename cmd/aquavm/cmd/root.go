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
	debugTrace bool
	noStats    bool
)

var rootCmd = &cobra.Command{
	Use:   "aquavm <file.acode>",
	Short: "Run a compiled AquaScript bytecode container",
	Long: `aquavm loads a .acode bytecode container produced by aquac and
executes it on AquaScript's stack-based VM, per spec.md's C6 pipeline
stage.`,
	Version: Version,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runVM,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.Flags().BoolVar(&debugTrace, "debug", false, "trace every executed instruction to stderr")
	rootCmd.Flags().BoolVar(&noStats, "no-stats", false, "suppress the end-of-run statistics summary")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
