package scenario_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/san-kum/aerosim/internal/aero"
	"github.com/san-kum/aerosim/internal/gas"
	"github.com/san-kum/aerosim/internal/params"
	"github.com/san-kum/aerosim/internal/scenario"
)

type ScenarioSuite struct {
	suite.Suite
	gas  *gas.Data
	aero *aero.Data
}

func TestScenarioSuite(t *testing.T) {
	suite.Run(t, new(ScenarioSuite))
}

func (s *ScenarioSuite) SetupTest() {
	var err error
	s.gas, err = gas.NewData("SO2", "NO2")
	require.NoError(s.T(), err)
	s.aero, err = aero.NewData(aero.Species{Name: "SO4", Density: 1800, Ions: 1, MolarMass: 96e-3, Kappa: 0.65})
	require.NoError(s.T(), err)
}

func (s *ScenarioSuite) build(doc string) (*scenario.Scenario, error) {
	v, err := params.Decode([]byte(doc))
	require.NoError(s.T(), err)
	return scenario.New(s.gas, s.aero, v)
}

func (s *ScenarioSuite) TestEmpty() {
	sc, err := s.build("{}")
	require.NoError(s.T(), err)
	require.Equal(s.T(), scenario.LossNone, sc.Loss)
	require.True(s.T(), math.IsNaN(sc.TempAt(0)))
	require.True(s.T(), math.IsNaN(sc.Site.Latitude))
	_, _, ok := sc.EmissionAt(0)
	require.False(s.T(), ok)
}

func (s *ScenarioSuite) TestProfileMessages() {
	cases := []struct {
		doc string
		msg string
	}{
		{"temp_profile: [{time: [0]}]",
			"temp_profile expected to be a 2-element list (of single-element dictionaries)"},
		{"temp_profile: {time: [0], temp: [1]}",
			"temp_profile expected to be a 2-element list (of single-element dictionaries)"},
		{"pressure_profile: [{time: [0], pressure: [1]}, {pressure: [1]}]",
			"pressure_profile expected to contain only single-element dicts"},
		{"height_profile: [{t: [0]}, {height: [1]}]",
			"height_profile first element is expeced to be a single-element dict with 'time' key"},
		{"temp_profile: [{time: [0]}, {pressure: [1]}]",
			"temp_profile second element is expeced to be a single-element dict with 'temp' key"},
		{"temp_profile: [{time: [0, 1]}, {temp: [300]}]",
			"temp_profile 'time' and 'temp' arrays do not have matching size"},
		{"temp_profile: [{time: 0}, {temp: 300}]",
			"temp_profile 'time' and 'temp' arrays do not have matching size"},
	}
	for _, tc := range cases {
		_, err := s.build(tc.doc)
		require.EqualError(s.T(), err, tc.msg, tc.doc)
		require.True(s.T(), errors.Is(err, scenario.ErrInvalid))
	}
}

func (s *ScenarioSuite) TestProfileOrder() {
	// height is checked before temp regardless of document order.
	_, err := s.build(`
temp_profile: [{time: [0]}]
height_profile: [{time: [0]}]
`)
	require.EqualError(s.T(), err, "height_profile expected to be a 2-element list (of single-element dictionaries)")
}

func (s *ScenarioSuite) TestProfileInterpolation() {
	sc, err := s.build(`
temp_profile: [{time: [0, 100, 200]}, {temp: [290, 300, 280]}]
pressure_profile: [{time: [0]}, {pressure: [1e5]}]
`)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 290.0, sc.TempAt(-5))
	require.Equal(s.T(), 295.0, sc.TempAt(50))
	require.Equal(s.T(), 300.0, sc.TempAt(100))
	require.Equal(s.T(), 290.0, sc.TempAt(150))
	require.Equal(s.T(), 280.0, sc.TempAt(1e6))
	require.Equal(s.T(), 1e5, sc.PressureAt(42))
	require.True(s.T(), math.IsNaN(sc.HeightAt(0)))
}

func (s *ScenarioSuite) TestAeroEmissions() {
	sc, err := s.build(`
aero_emissions:
  - time: [0, 3600]
  - rate: [1, 0.5]
  - dist:
    - - soot: {mass_frac: [{SO4: [1]}], mode_type: log_normal, num_conc: 1e9, geom_mean_diam: 5e-8, log10_geom_std_dev: 0.2}
    - - soot: {mass_frac: [{SO4: [1]}], mode_type: mono, diam: 1e-7, num_conc: 2e9}
`)
	require.NoError(s.T(), err)
	require.Equal(s.T(), 2, sc.AeroEmissions.Len())

	d, rate, ok := sc.EmissionAt(10)
	require.True(s.T(), ok)
	require.Equal(s.T(), 1.0, rate)
	require.Equal(s.T(), aero.ModeLogNormal, d.Mode(0).Type())

	d, rate, ok = sc.EmissionAt(7200)
	require.True(s.T(), ok)
	require.Equal(s.T(), 0.5, rate)
	require.Equal(s.T(), 2e9, d.NumConc())

	_, _, ok = sc.EmissionAt(-1)
	require.False(s.T(), ok)
}

func (s *ScenarioSuite) TestAeroTimelineErrors() {
	_, err := s.build(`
aero_background:
  - time: [0, 1]
  - rate: [1]
  - dist: [[], []]
`)
	require.EqualError(s.T(), err, "aero_background 'time' and 'rate' arrays do not have matching size")

	_, err = s.build(`
aero_background:
  - time: [0]
  - rate: [1]
  - dist: [[{m: {mode_type: sampled}}]]
`)
	require.ErrorIs(s.T(), err, aero.ErrSizeDistMissing)
}

func (s *ScenarioSuite) TestGasEmissions() {
	sc, err := s.build(`
gas_emissions:
  - time: [0, 10]
  - rate: [1, 1]
  - NO2: [1e-9, 2e-9]
`)
	require.NoError(s.T(), err)
	require.Len(s.T(), sc.GasEmissions.Species, 1)
	require.Equal(s.T(), 1, sc.GasEmissions.Species[0].Index)
	require.Equal(s.T(), 1, sc.GasEmissions.IndexAt(10))

	_, err = s.build(`
gas_background:
  - time: [0]
  - rate: [1]
  - O3: [1]
`)
	require.EqualError(s.T(), err, `gas_background species "O3" not found in gas data`)
}

func (s *ScenarioSuite) TestUnusedAndScalars() {
	sc, err := s.build("{loss_function: drydep, latitude: 40.1, altitude: 0}")
	require.NoError(s.T(), err)
	require.Equal(s.T(), scenario.LossDryDep, sc.Loss)
	require.Equal(s.T(), 40.1, sc.Site.Latitude)
	require.Equal(s.T(), 0.0, sc.Site.Altitude)

	_, err = s.build("{loss_function: drydep, wind: 3}")
	require.EqualError(s.T(), err, `WARNING: "wind" parameter remains unused.`)
	require.ErrorIs(s.T(), err, params.ErrUnused)

	_, err = s.build("{loss_function: magic}")
	require.ErrorIs(s.T(), err, scenario.ErrInvalid)
}

func (s *ScenarioSuite) TestRoundTrip() {
	doc := "{temp_profile: [{time: [0]}, {temp: [300]}]}"
	sc, err := s.build(doc)
	require.NoError(s.T(), err)
	require.JSONEq(s.T(), `{"temp_profile":[{"time":[0]},{"temp":[300]}]}`, sc.String())

	again, err := scenario.New(s.gas, s.aero, sc.Params())
	require.NoError(s.T(), err)
	require.Equal(s.T(), 300.0, again.TempAt(0))
}
