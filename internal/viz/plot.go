package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/dare/internal/sim"
)

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Cyan,
	asciigraph.Orange,
	asciigraph.Green,
	asciigraph.Magenta,
	asciigraph.Yellow,
	asciigraph.Red,
}

// PlotResponse plots the selected state components of a run on one chart.
// With no indices every state is plotted.
func PlotResponse(result *sim.Result, width, height int, states ...int) string {
	if len(result.States) == 0 {
		return ""
	}
	if len(states) == 0 {
		for i := range result.States[0] {
			states = append(states, i)
		}
	}

	data := make([][]float64, 0, len(states))
	colors := make([]asciigraph.AnsiColor, 0, len(states))
	legend := make([]string, 0, len(states))
	for k, i := range states {
		data = append(data, result.Series(i))
		colors = append(colors, seriesColors[k%len(seriesColors)])
		legend = append(legend, fmt.Sprintf("x%d", i))
	}

	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption(fmt.Sprintf("%s over %.2f s", strings.Join(legend, " "), result.Times[len(result.Times)-1])),
	)
}

// PlotControls plots input i over the run.
func PlotControls(result *sim.Result, i, width, height int) string {
	u := make([]float64, 0, len(result.Controls))
	for _, c := range result.Controls {
		if i < len(c) {
			u = append(u, c[i])
		}
	}
	if len(u) == 0 {
		return ""
	}
	return asciigraph.Plot(u,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("u%d", i)),
	)
}
