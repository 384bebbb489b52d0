package viz

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/aerosim/internal/aero"
)

type PlotOptions struct {
	Width  int
	Height int
	// Log plots log10 of the density; empty bins are drawn at the floor.
	Log bool
}

// Density converts per-bin concentrations to dN/dln r.
func Density(g *aero.BinGrid, perBin []float64) []float64 {
	widths := g.Widths()
	out := make([]float64, len(perBin))
	for i, c := range perBin {
		if i < len(widths) && widths[i] > 0 {
			out[i] = c / widths[i]
		}
	}
	return out
}

// PlotBins draws dN/dln r against the bin index of g.
func PlotBins(g *aero.BinGrid, perBin []float64, caption string, opts PlotOptions) string {
	data := Density(g, perBin)
	if len(data) == 0 {
		return Subtle.Render("(no bins)")
	}
	yLabel := "dN/dln r [#/m^3]"
	if opts.Log {
		data = logScale(data)
		yLabel = "log10 " + yLabel
	}

	edges := g.Edges()
	axis := fmt.Sprintf("r: %.3g .. %.3g m", edges[0], edges[len(edges)-1])
	return PlotSeries(data, caption+"  "+yLabel+"  "+axis, PlotOptions{Width: opts.Width, Height: opts.Height})
}

// PlotSeries draws values as an asciigraph line chart.
func PlotSeries(values []float64, caption string, opts PlotOptions) string {
	if len(values) == 0 {
		return Subtle.Render("(no data)")
	}
	if opts.Log {
		values = logScale(values)
	}
	return asciigraph.Plot(values,
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(caption),
	)
}

// logScale maps values to log10, clamping zeros to six decades below the
// largest value.
func logScale(values []float64) []float64 {
	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}
	if peak <= 0 {
		return make([]float64, len(values))
	}
	floor := math.Log10(peak) - 6
	out := make([]float64, len(values))
	for i, v := range values {
		if v <= 0 {
			out[i] = floor
			continue
		}
		out[i] = max(math.Log10(v), floor)
	}
	return out
}
