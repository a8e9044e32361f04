package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/devs/datarecording"
	"github.com/sarchlab/devs/simulation"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print the run information recorded in a SQLite file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err != nil {
				return err
			}

			reader := datarecording.NewReader(args[0])
			defer reader.Close()

			reader.MapTable(datarecording.ExecInfoTable, datarecording.ExecInfo{})
			reader.MapTable(simulation.TransitionTable, simulation.TransitionRow{})

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			out := cmd.OutOrStdout()

			info, _, err := reader.Query(ctx, datarecording.ExecInfoTable,
				datarecording.QueryParams{})
			if err != nil {
				return err
			}

			fmt.Fprintln(out, heading.Render("Run"))
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, row := range info {
				e := row.(*datarecording.ExecInfo)
				fmt.Fprintf(tw, "  %s\t%s\n", e.Property, e.Value)
			}
			tw.Flush()

			rows, _, err := reader.Query(ctx, simulation.TransitionTable,
				datarecording.QueryParams{OrderBy: "Model"})
			if err != nil {
				return err
			}

			fmt.Fprintln(out, heading.Render("Transitions"))
			tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "  model\tinternal\texternal\tconfluent")
			for _, row := range rows {
				t := row.(*simulation.TransitionRow)
				fmt.Fprintf(tw, "  %s\t%d\t%d\t%d\n",
					t.Model, t.Internal, t.External, t.Confluent)
			}

			return tw.Flush()
		},
	}
}
