package aero

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/aerosim/internal/params"
)

// DefaultModeName names a mode built from an empty configuration.
const DefaultModeName = "default"

// Mode is one named sub-population of an aerosol distribution. It refers to
// the Data it was built against; the Data must outlive the mode.
type Mode struct {
	data *Data

	name     string
	typ      ModeType
	diamType DiamType
	env      Env

	massFrac   []Fraction
	unresolved []string
	volFrac    []float64
	volFracStd []float64
	volEdited  bool

	numConc    float64
	charRadius float64
	gsd        float64

	sampleRadius  []float64
	sampleNumConc []float64
}

// NewDefaultMode returns a log-normal mode with zeroed parameters.
func NewDefaultMode(data *Data) *Mode {
	return &Mode{
		data:       data,
		name:       DefaultModeName,
		typ:        ModeLogNormal,
		diamType:   DiamGeometric,
		volFrac:    make([]float64, data.Len()),
		volFracStd: make([]float64, data.Len()),
		gsd:        1,
	}
}

func (m *Mode) Data() *Data         { return m.data }
func (m *Mode) Name() string        { return m.name }
func (m *Mode) SetName(name string) { m.name = name }
func (m *Mode) Type() ModeType      { return m.typ }
func (m *Mode) DiamType() DiamType  { return m.diamType }
func (m *Mode) Env() Env            { return m.env }

// NumConc is the total number concentration (#/m^3). For sampled modes it
// is the sum of the per-bin concentrations.
func (m *Mode) NumConc() float64 {
	if m.typ == ModeSampled {
		sum := 0.0
		for _, c := range m.sampleNumConc {
			sum += c
		}
		return sum
	}
	return m.numConc
}

func (m *Mode) SetNumConc(v float64) error {
	if m.typ == ModeSampled {
		return configErr(m.name, ErrSampledNumConc)
	}
	if v < 0 || math.IsNaN(v) {
		return configErrf(m.name, "num_conc must be non-negative, got %g", v)
	}
	m.numConc = v
	return nil
}

func (m *Mode) VolFrac() []float64 {
	return clone(m.volFrac)
}

// SetVolFrac replaces the volume fractions. The length must equal the number
// of species of the aero data and every value must be non-negative.
func (m *Mode) SetVolFrac(v []float64) error {
	if err := m.checkVolFrac("vol_frac", v); err != nil {
		return err
	}
	m.volFrac = clone(v)
	m.volEdited = true
	return nil
}

func (m *Mode) VolFracStd() []float64 {
	return clone(m.volFracStd)
}

func (m *Mode) SetVolFracStd(v []float64) error {
	if err := m.checkVolFrac("vol_frac_std", v); err != nil {
		return err
	}
	m.volFracStd = clone(v)
	m.volEdited = true
	return nil
}

func (m *Mode) checkVolFrac(key string, v []float64) error {
	if len(v) != m.data.Len() {
		return fmt.Errorf("%s: expected %d elements, got %d: %w", key, m.data.Len(), len(v), ErrDimensionMismatch)
	}
	for _, f := range v {
		if err := checkNonNegative(m.name, key, f); err != nil {
			return err
		}
	}
	return nil
}

// GSD is the geometric standard deviation of a log-normal mode.
func (m *Mode) GSD() float64      { return m.gsd }
func (m *Mode) Log10GSD() float64 { return math.Log10(m.gsd) }

// SetGSD rejects values below 1, where log10_geom_std_dev would be negative.
func (m *Mode) SetGSD(v float64) error {
	if !(v >= 1) || math.IsInf(v, 0) {
		return configErrf(m.name, "gsd must be at least 1, got %g", v)
	}
	m.gsd = v
	return nil
}

func (m *Mode) CharRadius() float64 { return m.charRadius }

func (m *Mode) SetCharRadius(v float64) error {
	if err := checkPositive(m.name, "char_radius", v); err != nil {
		return err
	}
	m.charRadius = v
	return nil
}

// SampleRadius returns the sampled bin edges as radii (diameter / 2).
func (m *Mode) SampleRadius() []float64 {
	return clone(m.sampleRadius)
}

func (m *Mode) SampleNumConc() []float64 {
	return clone(m.sampleNumConc)
}

// SetSample replaces the sampled histogram. Both slices are validated before
// either is stored, and the mode becomes a sampled mode.
func (m *Mode) SetSample(diam, numConc []float64) error {
	if err := checkSample(diam, numConc); err != nil {
		return configErr(m.name, err)
	}
	radius := make([]float64, len(diam))
	for i, d := range diam {
		radius[i] = d / 2
	}
	m.sampleRadius = radius
	m.sampleNumConc = clone(numConc)
	m.typ = ModeSampled
	return nil
}

// MassFrac returns the composition as supplied, in order.
func (m *Mode) MassFrac() []Fraction {
	out := make([]Fraction, len(m.massFrac))
	copy(out, m.massFrac)
	return out
}

// UnresolvedSpecies lists mass_frac species absent from the aero data.
func (m *Mode) UnresolvedSpecies() []string {
	return append([]string(nil), m.unresolved...)
}

// Config returns the typed configuration that rebuilds this mode. Volume
// fractions changed through SetVolFrac or SetVolFracStd are written back as
// mass fractions (m_i = v_i * rho_i).
func (m *Mode) Config() ModeConfig {
	cfg := ModeConfig{
		Name:     m.name,
		MassFrac: m.MassFrac(),
		DiamType: m.diamType,
		Env:      m.env,
	}
	if m.volEdited {
		cfg.MassFrac = m.massFracFromVol()
	}
	switch m.typ {
	case ModeMono:
		cfg.Shape = Mono{Diam: 2 * m.charRadius, NumConc: m.numConc}
	case ModeLogNormal:
		cfg.Shape = LogNormal{GeomMeanDiam: 2 * m.charRadius, Log10GeomStdDev: m.Log10GSD(), NumConc: m.numConc}
	case ModeExp:
		cfg.Shape = Exp{DiamAtMeanVol: 2 * m.charRadius, NumConc: m.numConc}
	case ModeSampled:
		diam := make([]float64, len(m.sampleRadius))
		for i, r := range m.sampleRadius {
			diam[i] = 2 * r
		}
		cfg.Shape = Sampled{Diam: diam, NumConc: m.SampleNumConc()}
	}
	return cfg
}

func (m *Mode) massFracFromVol() []Fraction {
	var out []Fraction
	for i, v := range m.volFrac {
		std := 0.0
		if i < len(m.volFracStd) {
			std = m.volFracStd[i]
		}
		if v == 0 && std == 0 {
			continue
		}
		s := m.data.Species(i)
		out = append(out, Fraction{
			Species: s.Name,
			Value:   v * s.Density,
			Std:     std * s.Density,
			HasStd:  std > 0,
		})
	}
	return out
}

// Params serializes the mode as a {name: {...}} configuration accepted by
// NewModeFromParams. A mode without a diameter has no such form and
// serializes as the empty configuration, which builds the default mode.
func (m *Mode) Params() *params.Value {
	if m.typ != ModeSampled && m.charRadius == 0 {
		return params.Map()
	}
	return m.Config().Params()
}

func (m *Mode) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s): num_conc=%g", m.name, m.typ, m.NumConc())
	switch m.typ {
	case ModeLogNormal:
		fmt.Fprintf(&sb, " char_radius=%g gsd=%g", m.charRadius, m.gsd)
	case ModeMono, ModeExp:
		fmt.Fprintf(&sb, " char_radius=%g", m.charRadius)
	case ModeSampled:
		fmt.Fprintf(&sb, " bins=%d", len(m.sampleNumConc))
	}
	return sb.String()
}

func clone(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
