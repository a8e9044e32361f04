// Package cmd provides the command-line interface of devsim.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "devsim",
		Short: "devsim runs discrete-event simulations of DEVS models.",
		Long: `devsim runs discrete-event simulations of DEVS models. ` +
			`Experiments are described with YAML files and flags, and ` +
			`observations can be kept in memory, or written to CSV, SQLite ` +
			`or the log.`,
		SilenceUsage: true,
	}

	root.AddCommand(newRunCmd(), newListCmd(), newInspectCmd())

	return root
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
