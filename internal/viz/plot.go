// Package viz renders result tables as terminal charts.
package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/epilab/episim/internal/runner"
)

var legendStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

// Plot renders one compartment of every scenario in the table as an
// overlaid line chart with a legend.
func Plot(table runner.Table, compartment string, width, height int) string {
	ids := table.Scenarios()
	series := make([][]float64, 0, len(ids))
	legend := make([]string, 0, len(ids))
	for _, id := range ids {
		_, values := table.Series(id, compartment)
		if len(values) == 0 {
			continue
		}
		series = append(series, values)
		legend = append(legend, id)
	}
	if len(series) == 0 {
		return "no data"
	}

	graph := asciigraph.PlotMany(series,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Caption(fmt.Sprintf("%s(t)", compartment)),
		asciigraph.SeriesColors(seriesColors(len(series))...),
	)

	var sb strings.Builder
	sb.WriteString(graph)
	sb.WriteString("\n")
	for i, id := range legend {
		sb.WriteString(legendStyle.Render(fmt.Sprintf("%d: %s  ", i+1, id)))
	}
	sb.WriteString("\n")
	return sb.String()
}

func seriesColors(n int) []asciigraph.AnsiColor {
	palette := []asciigraph.AnsiColor{
		asciigraph.Red,
		asciigraph.Green,
		asciigraph.Yellow,
		asciigraph.Blue,
		asciigraph.Magenta,
		asciigraph.Cyan,
	}
	colors := make([]asciigraph.AnsiColor, n)
	for i := range colors {
		colors[i] = palette[i%len(palette)]
	}
	return colors
}
