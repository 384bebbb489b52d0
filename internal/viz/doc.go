// Package viz renders descriptors for the terminal.
//
//   - Summaries of species tables, modes, dists, gas data and scenarios
//   - [PlotBins]: asciigraph plots of a size distribution on a bin grid
//   - [Browser]: Bubble Tea browser over a saved descriptor catalog
//
// # Key Bindings
//
//	j/k, up/down - Move selection
//	Enter        - Show descriptor
//	Esc          - Back to list
//	q            - Quit
package viz
