package aero

import (
	"fmt"
	"math"

	"github.com/san-kum/aerosim/internal/params"
)

const (
	DefaultFracDim       = 3.0
	DefaultVolFillFactor = 1.0
	DefaultPrimeRadius   = 1e-8
)

// Species is one aerosol chemical species.
type Species struct {
	Name      string
	Density   float64 // kg/m^3
	Ions      int
	MolarMass float64 // kg/mol
	Kappa     float64
}

// Data is an ordered table of aerosol species plus the fractal parameters
// shared by every particle. The species set is fixed at construction; the
// fractal scalars may change at any time.
type Data struct {
	species []Species
	index   map[string]int

	fracDim       float64
	volFillFactor float64
	primeRadius   float64
}

func NewData(species ...Species) (*Data, error) {
	d := &Data{
		species:       make([]Species, 0, len(species)),
		index:         make(map[string]int, len(species)),
		fracDim:       DefaultFracDim,
		volFillFactor: DefaultVolFillFactor,
		primeRadius:   DefaultPrimeRadius,
	}
	for _, s := range species {
		if _, dup := d.index[s.Name]; dup {
			return nil, configErr("", ErrSpeciesUnique)
		}
		d.index[s.Name] = len(d.species)
		d.species = append(d.species, s)
	}
	return d, nil
}

// NewDataFromParams builds the table from either a mapping
// {name: [density, ions, molar_mass, kappa]} or a list of such single-key
// mappings. Both keep document order.
func NewDataFromParams(v *params.Value) (*Data, error) {
	var entries []params.Entry
	switch v.Kind() {
	case params.KindNull:
	case params.KindMap:
		entries = v.Entries()
	case params.KindList:
		for i, item := range v.Items() {
			if !item.IsMap() {
				return nil, params.Mismatch(fmt.Sprintf("$[%d]", i), "dict", item)
			}
			entries = append(entries, item.Entries()...)
		}
	default:
		return nil, params.Mismatch("$", "dict or list of dicts", v)
	}

	species := make([]Species, 0, len(entries))
	for _, e := range entries {
		vals, ok := e.Value.Floats()
		if !ok || len(vals) != 4 {
			return nil, &params.TypeError{
				Path:   "$." + e.Key,
				Reason: "species value must be a 4-element list [density, ions, molar_mass, kappa]",
			}
		}
		if vals[1] != math.Trunc(vals[1]) || vals[1] < 0 {
			return nil, &params.TypeError{Path: "$." + e.Key, Reason: "ion count must be a non-negative integer"}
		}
		species = append(species, Species{
			Name:      e.Key,
			Density:   vals[0],
			Ions:      int(vals[1]),
			MolarMass: vals[2],
			Kappa:     vals[3],
		})
	}
	return NewData(species...)
}

func (d *Data) Len() int { return len(d.species) }

// IndexOf returns the zero-based position of name in insertion order.
func (d *Data) IndexOf(name string) (int, error) {
	i, ok := d.index[name]
	if !ok {
		return -1, ErrNotFound
	}
	return i, nil
}

func (d *Data) Species(i int) Species {
	return d.species[i]
}

func (d *Data) Names() []string {
	names := make([]string, len(d.species))
	for i, s := range d.species {
		names[i] = s.Name
	}
	return names
}

func (d *Data) Densities() []float64 {
	out := make([]float64, len(d.species))
	for i, s := range d.species {
		out[i] = s.Density
	}
	return out
}

func (d *Data) FracDim() float64           { return d.fracDim }
func (d *Data) SetFracDim(v float64)       { d.fracDim = v }
func (d *Data) VolFillFactor() float64     { return d.volFillFactor }
func (d *Data) SetVolFillFactor(v float64) { d.volFillFactor = v }
func (d *Data) PrimeRadius() float64       { return d.primeRadius }
func (d *Data) SetPrimeRadius(v float64)   { d.primeRadius = v }

func sphereVol(r float64) float64 {
	return 4.0 / 3.0 * math.Pi * r * r * r
}

func sphereRad(v float64) float64 {
	return math.Cbrt(v / (4.0 / 3.0 * math.Pi))
}

func (d *Data) spherical() bool {
	return d.fracDim == 3 && d.volFillFactor == 1
}

// RadToVol converts a particle radius to volume. Fractal particles are built
// from monomers of PrimeRadius; the monomer count is
// (r/prime_radius)^frac_dim / vol_fill_factor.
func (d *Data) RadToVol(r float64) float64 {
	if d.spherical() || d.primeRadius <= 0 {
		return sphereVol(r)
	}
	n := math.Pow(r/d.primeRadius, d.fracDim) / d.volFillFactor
	return n * sphereVol(d.primeRadius)
}

// VolToRad is the inverse of RadToVol.
func (d *Data) VolToRad(v float64) float64 {
	if d.spherical() || d.primeRadius <= 0 {
		return sphereRad(v)
	}
	n := v / sphereVol(d.primeRadius)
	return d.primeRadius * math.Pow(n*d.volFillFactor, 1/d.fracDim)
}

// Params returns the constructor input in list-of-dicts form.
func (d *Data) Params() *params.Value {
	items := make([]*params.Value, len(d.species))
	for i, s := range d.species {
		items[i] = params.Map(params.KV(s.Name,
			params.Numbers(s.Density, float64(s.Ions), s.MolarMass, s.Kappa)))
	}
	return params.List(items...)
}

func (d *Data) String() string {
	b, err := d.Params().MarshalJSON()
	if err != nil {
		return fmt.Sprintf("aero.Data(%d species)", d.Len())
	}
	return string(b)
}
