// Package scenario validates the environment and forcing inputs of a
// simulation: ambient profiles, gas and aerosol emissions and background
// air.
package scenario

import (
	"fmt"
	"math"

	"github.com/san-kum/aerosim/internal/aero"
	"github.com/san-kum/aerosim/internal/gas"
	"github.com/san-kum/aerosim/internal/params"
)

type LossFunction string

const (
	LossNone     LossFunction = "none"
	LossConstant LossFunction = "constant"
	LossVolume   LossFunction = "volume"
	LossDryDep   LossFunction = "drydep"
	LossChamber  LossFunction = "chamber"
)

var lossFunctions = []LossFunction{LossNone, LossConstant, LossVolume, LossDryDep, LossChamber}

// Site holds the optional scalar settings of a scenario. Unset fields are NaN.
type Site struct {
	RelHumidity float64
	Latitude    float64
	Longitude   float64
	Altitude    float64
	StartTime   float64
	StartDay    float64
}

var siteKeys = []string{"rel_humidity", "latitude", "longitude", "altitude", "start_time", "start_day"}

type Scenario struct {
	Temp     *Profile
	Pressure *Profile
	Height   *Profile

	GasEmissions   *GasTimeline
	GasBackground  *GasTimeline
	AeroEmissions  *AeroTimeline
	AeroBackground *AeroTimeline

	Loss LossFunction
	Site Site

	raw *params.Value
}

// New validates cfg against the gas and aerosol tables. Profiles are checked
// first, in the order height, pressure, temp; any top-level key not
// consumed is rejected.
func New(gasData *gas.Data, aeroData *aero.Data, cfg *params.Value, opts ...aero.Option) (*Scenario, error) {
	if cfg.IsNull() {
		cfg = params.Map()
	}
	if !cfg.IsMap() {
		return nil, params.Mismatch("$", "dict", cfg)
	}
	s := &Scenario{Loss: LossNone, raw: cfg.Clone()}
	g := params.NewGuard(cfg, "$")

	for _, prof := range profileNames {
		v, ok := g.Use(prof + "_profile")
		if !ok {
			continue
		}
		p, err := parseProfile(prof, v)
		if err != nil {
			return nil, err
		}
		switch prof {
		case "height":
			s.Height = p
		case "pressure":
			s.Pressure = p
		case "temp":
			s.Temp = p
		}
	}

	var err error
	if v, ok := g.Use("gas_emissions"); ok {
		if s.GasEmissions, err = parseGasTimeline("gas_emissions", v, gasData); err != nil {
			return nil, err
		}
	}
	if v, ok := g.Use("gas_background"); ok {
		if s.GasBackground, err = parseGasTimeline("gas_background", v, gasData); err != nil {
			return nil, err
		}
	}
	if v, ok := g.Use("aero_emissions"); ok {
		if s.AeroEmissions, err = parseAeroTimeline("aero_emissions", v, aeroData, opts); err != nil {
			return nil, err
		}
	}
	if v, ok := g.Use("aero_background"); ok {
		if s.AeroBackground, err = parseAeroTimeline("aero_background", v, aeroData, opts); err != nil {
			return nil, err
		}
	}

	loss, ok, err := g.Text("loss_function")
	if err != nil {
		return nil, err
	}
	if ok {
		if s.Loss, err = parseLoss(loss); err != nil {
			return nil, err
		}
	}

	site := []*float64{
		&s.Site.RelHumidity, &s.Site.Latitude, &s.Site.Longitude,
		&s.Site.Altitude, &s.Site.StartTime, &s.Site.StartDay,
	}
	for i, key := range siteKeys {
		f, ok, err := g.Number(key)
		if err != nil {
			return nil, err
		}
		if !ok {
			f = math.NaN()
		}
		*site[i] = f
	}

	if err := g.Check(); err != nil {
		return nil, &Error{Wrapped: err}
	}
	return s, nil
}

func parseLoss(s string) (LossFunction, error) {
	for _, l := range lossFunctions {
		if string(l) == s {
			return l, nil
		}
	}
	return "", invalidf("loss_function", "unknown loss_function %q", s)
}

// TempAt returns the temperature at time t, or NaN without a temp profile.
func (s *Scenario) TempAt(t float64) float64 { return profileAt(s.Temp, t) }

func (s *Scenario) PressureAt(t float64) float64 { return profileAt(s.Pressure, t) }

func (s *Scenario) HeightAt(t float64) float64 { return profileAt(s.Height, t) }

func profileAt(p *Profile, t float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return p.At(t)
}

// EmissionAt returns the emitted distribution and its rate in force at t.
func (s *Scenario) EmissionAt(t float64) (*aero.Dist, float64, bool) {
	return timelineAt(s.AeroEmissions, t)
}

func (s *Scenario) BackgroundAt(t float64) (*aero.Dist, float64, bool) {
	return timelineAt(s.AeroBackground, t)
}

func timelineAt(tl *AeroTimeline, t float64) (*aero.Dist, float64, bool) {
	if tl == nil {
		return nil, 0, false
	}
	i := tl.IndexAt(t)
	if i < 0 {
		return nil, 0, false
	}
	return tl.Dists[i], tl.Rate[i], true
}

// Params returns the configuration the scenario was built from.
func (s *Scenario) Params() *params.Value {
	return s.raw.Clone()
}

func (s *Scenario) String() string {
	b, err := s.raw.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("scenario(%d keys)", s.raw.Len())
	}
	return string(b)
}
