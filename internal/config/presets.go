package config

import (
	"sort"

	"github.com/san-kum/aerosim/internal/aero"
)

// DefaultSpecies is the species table used when no species file is given.
var DefaultSpecies = []aero.Species{
	{Name: "SO4", Density: 1800, Ions: 0, MolarMass: 96e-3, Kappa: 0.65},
	{Name: "NO3", Density: 1800, Ions: 0, MolarMass: 62e-3, Kappa: 0.65},
	{Name: "Cl", Density: 2200, Ions: 0, MolarMass: 35.5e-3, Kappa: 1.28},
	{Name: "NH4", Density: 1800, Ions: 0, MolarMass: 18e-3, Kappa: 0.65},
	{Name: "OC", Density: 1000, Ions: 0, MolarMass: 1, Kappa: 0.001},
	{Name: "BC", Density: 1800, Ions: 0, MolarMass: 1, Kappa: 0},
	{Name: "Na", Density: 2200, Ions: 0, MolarMass: 23e-3, Kappa: 1.28},
	{Name: "H2O", Density: 1000, Ions: 0, MolarMass: 18e-3, Kappa: 0},
}

func frac(pairs ...any) []aero.Fraction {
	out := make([]aero.Fraction, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, aero.Fraction{Species: pairs[i].(string), Value: pairs[i+1].(float64)})
	}
	return out
}

var Presets = map[string]map[string]aero.ModeConfig{
	"urban": {
		"init_small": {
			Name: "init_small", MassFrac: frac("SO4", 1.0, "NH4", 0.375),
			Shape: aero.LogNormal{NumConc: 3.2e9, GeomMeanDiam: 2e-8, Log10GeomStdDev: 0.161},
		},
		"init_large": {
			Name: "init_large", MassFrac: frac("SO4", 1.0, "NH4", 0.375),
			Shape: aero.LogNormal{NumConc: 2.9e9, GeomMeanDiam: 1.16e-7, Log10GeomStdDev: 0.217},
		},
	},
	"emissions": {
		"meat_cooking": {
			Name: "meat_cooking", MassFrac: frac("OC", 1.0),
			Shape: aero.LogNormal{NumConc: 9e6, GeomMeanDiam: 8.64e-8, Log10GeomStdDev: 0.28},
		},
		"diesel": {
			Name: "diesel", MassFrac: frac("OC", 0.3, "BC", 0.7),
			Shape: aero.LogNormal{NumConc: 1.6e8, GeomMeanDiam: 5e-8, Log10GeomStdDev: 0.24},
		},
		"gasoline": {
			Name: "gasoline", MassFrac: frac("OC", 0.8, "BC", 0.2),
			Shape: aero.LogNormal{NumConc: 5e7, GeomMeanDiam: 5e-8, Log10GeomStdDev: 0.24},
		},
	},
	"marine": {
		"sea_salt": {
			Name: "sea_salt", MassFrac: frac("Na", 0.39, "Cl", 0.61),
			Shape: aero.LogNormal{NumConc: 1e7, GeomMeanDiam: 3e-7, Log10GeomStdDev: 0.3},
		},
	},
	"chamber": {
		"seed": {
			Name: "seed", MassFrac: frac("SO4", 1.0),
			Shape: aero.Mono{Diam: 1e-7, NumConc: 1e9},
		},
		"growth": {
			Name: "growth", MassFrac: frac("SO4", 1.0),
			Shape: aero.Exp{DiamAtMeanVol: 5e-8, NumConc: 5e8},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(group, preset string) *aero.ModeConfig {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	cfg, ok := groupPresets[preset]
	if !ok {
		return nil
	}
	cfg.MassFrac = append([]aero.Fraction(nil), cfg.MassFrac...)
	return &cfg
}

func ListPresets(group string) []string {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(groupPresets))
	for name := range groupPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListGroups() []string {
	groups := make([]string, 0, len(Presets))
	for g := range Presets {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}
