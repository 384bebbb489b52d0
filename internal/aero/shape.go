package aero

import "fmt"

type ModeType string

const (
	ModeMono      ModeType = "mono"
	ModeLogNormal ModeType = "log_normal"
	ModeExp       ModeType = "exp"
	ModeSampled   ModeType = "sampled"
)

var modeTypes = []ModeType{ModeMono, ModeLogNormal, ModeExp, ModeSampled}

func ParseModeType(s string) (ModeType, error) {
	for _, t := range modeTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown mode_type %q (expected one of mono, log_normal, exp, sampled)", s)
}

type DiamType string

const (
	DiamGeometric DiamType = "geometric"
	DiamMobility  DiamType = "mobility"
)

func ParseDiamType(s string) (DiamType, error) {
	switch DiamType(s) {
	case DiamGeometric, DiamMobility:
		return DiamType(s), nil
	}
	return "", fmt.Errorf("unknown diam_type %q (expected geometric or mobility)", s)
}

// DefaultTemp is substituted when a mobility-diameter mode omits temp.
const DefaultTemp = 298.15

// Env holds the ambient state needed to interpret mobility diameters.
type Env struct {
	Pressure float64 // Pa
	Temp     float64 // K
}

// Fraction is one mass_frac entry. Std is the optional standard deviation
// given as the second element of the entry.
type Fraction struct {
	Species string
	Value   float64
	Std     float64
	HasStd  bool
}

// Shape carries the parameters of one size-distribution type.
type Shape interface {
	ModeType() ModeType
}

type Mono struct {
	Diam    float64
	NumConc float64
}

type LogNormal struct {
	GeomMeanDiam    float64
	Log10GeomStdDev float64
	NumConc         float64
}

type Exp struct {
	DiamAtMeanVol float64
	NumConc       float64
}

// Sampled is an empirical histogram: len(Diam) bin edges and
// len(Diam)-1 per-bin number concentrations.
type Sampled struct {
	Diam    []float64
	NumConc []float64
}

func (Mono) ModeType() ModeType      { return ModeMono }
func (LogNormal) ModeType() ModeType { return ModeLogNormal }
func (Exp) ModeType() ModeType       { return ModeExp }
func (Sampled) ModeType() ModeType   { return ModeSampled }

// ModeConfig is the typed form of a mode configuration.
type ModeConfig struct {
	Name     string
	MassFrac []Fraction
	DiamType DiamType
	Env      Env
	Shape    Shape
}

func checkUniqueSpecies(fracs []Fraction) error {
	seen := make(map[string]bool, len(fracs))
	for _, f := range fracs {
		if seen[f.Species] {
			return ErrMassFracUnique
		}
		seen[f.Species] = true
	}
	return nil
}

func checkSample(diam, numConc []float64) error {
	if len(diam) == 0 || len(numConc) == 0 {
		return ErrSizeDistShape
	}
	if len(numConc) != len(diam)-1 {
		return ErrSizeDistLength
	}
	return nil
}
