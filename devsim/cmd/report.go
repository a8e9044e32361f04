package cmd

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/sarchlab/devs/devs"
	"github.com/sarchlab/devs/devs/stream"
	"github.com/sarchlab/devs/simulation"
)

var (
	heading = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

// memoryView is a view whose observations are printed after the run.
type memoryView struct {
	name   string
	memory *stream.Memory
}

func report(
	out io.Writer,
	s *simulation.Simulation,
	finalTime string,
	memories []memoryView,
	plot bool,
) {
	fmt.Fprintln(out, heading.Render("Run "+s.ID()))
	fmt.Fprintf(out, "  final time %s, %d bags\n", finalTime, s.Bags())

	fmt.Fprintln(out, heading.Render("Transitions"))
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  model\tinternal\texternal\tconfluent")
	counter := s.Transitions()
	for _, m := range counter.Models() {
		fmt.Fprintf(tw, "  %s\t%d\t%d\t%d\n", m,
			counter.Count(m, devs.InternalTransition),
			counter.Count(m, devs.ExternalTransition),
			counter.Count(m, devs.ConfluentTransition))
	}
	tw.Flush()

	for _, v := range memories {
		reportView(out, v, plot)
	}
}

func reportView(out io.Writer, v memoryView, plot bool) {
	fmt.Fprintln(out, heading.Render("View "+v.name))

	series := make(map[string][]float64)

	for _, o := range v.memory.Observations() {
		key := o.Model + ":" + o.Port
		fmt.Fprintf(out, "  %s %s %v\n", dim.Render(o.Time.String()), key, o.Value)

		if f, ok := toFloat(o.Value); ok {
			series[key] = append(series[key], f)
		}
	}

	if !plot {
		return
	}

	keys := make([]string, 0, len(series))
	for k := range series {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if len(series[k]) < 2 {
			continue
		}

		graph := asciigraph.Plot(series[k],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(v.name+" "+k),
		)
		fmt.Fprintln(out, graph)
		fmt.Fprintln(out)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}
