package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/devs/devs"
	"github.com/sarchlab/devs/examples/gencounter"
)

func newRegistry() *devs.Registry {
	r := devs.NewRegistry()
	gencounter.Register(r)

	return r
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the models and behaviors that experiments can use.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, heading.Render("Models"))
			for _, m := range gencounter.Models() {
				fmt.Fprintf(out, "  %s\n", m)
			}

			fmt.Fprintln(out, heading.Render("Behaviors"))
			for _, b := range newRegistry().Behaviors() {
				fmt.Fprintf(out, "  %s\n", b)
			}
		},
	}
}
