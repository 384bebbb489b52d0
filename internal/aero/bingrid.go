package aero

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var ErrInvalidGrid = errors.New("aero: invalid bin grid")

// BinGrid is a set of logarithmically spaced radius bins.
type BinGrid struct {
	edges []float64
}

// NewBinGrid returns n bins spanning [rMin, rMax] with equal width in ln r.
func NewBinGrid(n int, rMin, rMax float64) (*BinGrid, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: need at least one bin, got %d", ErrInvalidGrid, n)
	}
	if !(rMin > 0) || !(rMax > rMin) || math.IsInf(rMax, 0) {
		return nil, fmt.Errorf("%w: need 0 < r_min < r_max, got [%g, %g]", ErrInvalidGrid, rMin, rMax)
	}
	edges := make([]float64, n+1)
	lo, hi := math.Log(rMin), math.Log(rMax)
	step := (hi - lo) / float64(n)
	for i := range edges {
		edges[i] = math.Exp(lo + float64(i)*step)
	}
	edges[0], edges[n] = rMin, rMax
	return &BinGrid{edges: edges}, nil
}

func (g *BinGrid) Len() int { return len(g.edges) - 1 }

func (g *BinGrid) Edges() []float64 { return clone(g.edges) }

// Centers are geometric bin midpoints.
func (g *BinGrid) Centers() []float64 {
	out := make([]float64, g.Len())
	for i := range out {
		out[i] = math.Sqrt(g.edges[i] * g.edges[i+1])
	}
	return out
}

// Widths are bin widths in ln r.
func (g *BinGrid) Widths() []float64 {
	out := make([]float64, g.Len())
	for i := range out {
		out[i] = math.Log(g.edges[i+1] / g.edges[i])
	}
	return out
}

// Find returns the bin holding r, or -1 outside the grid. The upper edge
// belongs to the last bin.
func (g *BinGrid) Find(r float64) int {
	n := g.Len()
	if r < g.edges[0] || r > g.edges[n] || math.IsNaN(r) {
		return -1
	}
	if r == g.edges[n] {
		return n - 1
	}
	i := sort.SearchFloat64s(g.edges, r)
	if i < len(g.edges) && g.edges[i] == r {
		return i
	}
	return i - 1
}

// NumConcPerBin projects the mode's number concentration (#/m^3) onto grid.
// Concentration falling outside the grid is dropped.
func (m *Mode) NumConcPerBin(g *BinGrid) []float64 {
	out := make([]float64, g.Len())
	switch m.typ {
	case ModeMono:
		if i := g.Find(m.charRadius); i >= 0 {
			out[i] += m.numConc
		}
	case ModeLogNormal:
		m.logNormalBins(g, out)
	case ModeExp:
		m.expBins(g, out)
	case ModeSampled:
		for i, c := range m.sampleNumConc {
			mid := math.Sqrt(m.sampleRadius[i] * m.sampleRadius[i+1])
			if j := g.Find(mid); j >= 0 {
				out[j] += c
			}
		}
	}
	return out
}

func (m *Mode) logNormalBins(g *BinGrid, out []float64) {
	lnSigma := math.Log(m.gsd)
	if lnSigma <= 0 || m.charRadius <= 0 {
		if i := g.Find(m.charRadius); i >= 0 {
			out[i] += m.numConc
		}
		return
	}
	z := func(r float64) float64 {
		return math.Log(r/m.charRadius) / (math.Sqrt2 * lnSigma)
	}
	for i := range out {
		out[i] += m.numConc * 0.5 * (math.Erf(z(g.edges[i+1])) - math.Erf(z(g.edges[i])))
	}
}

// expBins uses a number distribution exponential in particle volume with
// mean volume RadToVol(char_radius).
func (m *Mode) expBins(g *BinGrid, out []float64) {
	mean := m.data.RadToVol(m.charRadius)
	if mean <= 0 {
		return
	}
	for i := range out {
		lo := m.data.RadToVol(g.edges[i]) / mean
		hi := m.data.RadToVol(g.edges[i+1]) / mean
		out[i] += m.numConc * (math.Exp(-lo) - math.Exp(-hi))
	}
}
