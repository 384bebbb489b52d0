package aero

import (
	"fmt"
	"strings"

	"github.com/san-kum/aerosim/internal/params"
)

// Dist is an ordered group of modes sharing one species table.
type Dist struct {
	data  *Data
	modes []*Mode
}

// NewDist builds every mode of a list of {name: {params}} configurations.
// A single mapping with several keys is accepted too and read in order.
func NewDist(data *Data, v *params.Value, opts ...Option) (*Dist, error) {
	var cfgs []*params.Value
	switch v.Kind() {
	case params.KindNull:
	case params.KindList:
		cfgs = v.Items()
	case params.KindMap:
		for _, e := range v.Entries() {
			cfgs = append(cfgs, params.Map(e))
		}
	default:
		return nil, params.Mismatch("$", "list of single-element dicts", v)
	}

	modes := make([]*Mode, 0, len(cfgs))
	for i, cfg := range cfgs {
		if cfg.IsNull() || (cfg.IsMap() && cfg.Len() == 0) {
			return nil, configErrf("", "mode %d: empty mode configuration", i)
		}
		m, err := NewModeFromParams(data, cfg, opts...)
		if err != nil {
			return nil, err
		}
		modes = append(modes, m)
	}
	return NewDistFromModes(data, modes...)
}

// NewDistFromModes groups already built modes. They must have been built
// against data.
func NewDistFromModes(data *Data, modes ...*Mode) (*Dist, error) {
	seen := make(map[string]bool, len(modes))
	for _, m := range modes {
		if m.data != data {
			return nil, configErrf(m.name, "mode %q was built against a different aero data", m.name)
		}
		if seen[m.name] {
			return nil, configErr(m.name, ErrModeNamesUnique)
		}
		seen[m.name] = true
	}
	return &Dist{data: data, modes: append([]*Mode(nil), modes...)}, nil
}

func (d *Dist) Data() *Data { return d.data }

func (d *Dist) Len() int { return len(d.modes) }

func (d *Dist) Mode(i int) *Mode { return d.modes[i] }

func (d *Dist) Modes() []*Mode {
	return append([]*Mode(nil), d.modes...)
}

// ModeByName looks a mode up by name.
func (d *Dist) ModeByName(name string) (*Mode, error) {
	for _, m := range d.modes {
		if m.name == name {
			return m, nil
		}
	}
	return nil, ErrNotFound
}

func (d *Dist) NumConc() float64 {
	total := 0.0
	for _, m := range d.modes {
		total += m.NumConc()
	}
	return total
}

func (d *Dist) NumConcPerBin(g *BinGrid) []float64 {
	out := make([]float64, g.Len())
	for _, m := range d.modes {
		for i, c := range m.NumConcPerBin(g) {
			out[i] += c
		}
	}
	return out
}

// Params serializes the dist as a list of mode configurations.
func (d *Dist) Params() *params.Value {
	items := make([]*params.Value, len(d.modes))
	for i, m := range d.modes {
		items[i] = m.Params()
	}
	return params.List(items...)
}

func (d *Dist) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d modes, num_conc=%g", len(d.modes), d.NumConc())
	for _, m := range d.modes {
		sb.WriteString("\n  ")
		sb.WriteString(m.String())
	}
	return sb.String()
}
