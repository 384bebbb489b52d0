package aero

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/san-kum/aerosim/internal/params"
)

type buildOptions struct {
	strictSpecies bool
	log           *zap.Logger
}

type Option func(*buildOptions)

// WithStrictSpecies rejects mass_frac species that are absent from the aero
// data instead of recording them as unresolved.
func WithStrictSpecies() Option {
	return func(o *buildOptions) { o.strictSpecies = true }
}

func WithLogger(log *zap.Logger) Option {
	return func(o *buildOptions) {
		if log != nil {
			o.log = log
		}
	}
}

func newBuildOptions(opts []Option) *buildOptions {
	o := &buildOptions{log: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewModeFromParams validates a loosely-typed {name: {params}} mapping and
// builds the mode. An empty or null configuration yields NewDefaultMode.
func NewModeFromParams(data *Data, cfg *params.Value, opts ...Option) (*Mode, error) {
	switch cfg.Kind() {
	case params.KindNull:
		return NewDefaultMode(data), nil
	case params.KindMap:
	default:
		return nil, params.Mismatch("$", "dict", cfg)
	}
	if cfg.Len() == 0 {
		return NewDefaultMode(data), nil
	}
	if cfg.Len() > 1 {
		return nil, configErr("", ErrSingleElementDict)
	}
	entry, _ := cfg.Single()
	mc, err := ParseModeConfig(entry.Key, entry.Value)
	if err != nil {
		return nil, err
	}
	return NewMode(data, mc, opts...)
}

// ParseModeConfig turns the params of one named mode into a ModeConfig.
// Checks run in a fixed order: mass_frac, diam_type, mode_type and its shape
// parameters, ambient state, then leftover keys.
func ParseModeConfig(name string, p *params.Value) (ModeConfig, error) {
	path := "$." + name
	if !p.IsMap() {
		return ModeConfig{}, params.Mismatch(path, "dict", p)
	}
	g := params.NewGuard(p, path)
	mc := ModeConfig{Name: name, DiamType: DiamGeometric}

	if v, ok := g.Use("mass_frac"); ok {
		fracs, err := parseMassFrac(v, path+".mass_frac")
		if err != nil {
			return ModeConfig{}, wrapConfig(name, err)
		}
		mc.MassFrac = fracs
	}

	diamType, ok, err := g.Text("diam_type")
	if err != nil {
		return ModeConfig{}, err
	}
	if ok {
		dt, err := ParseDiamType(diamType)
		if err != nil {
			return ModeConfig{}, configErr(name, err)
		}
		mc.DiamType = dt
	}

	modeType, ok, err := g.Text("mode_type")
	if err != nil {
		return ModeConfig{}, err
	}
	if !ok {
		return ModeConfig{}, configErrf(name, "mode_type key must be set")
	}
	mt, err := ParseModeType(modeType)
	if err != nil {
		return ModeConfig{}, configErr(name, err)
	}
	shape, err := shapeParsers[mt](g)
	if err != nil {
		return ModeConfig{}, wrapConfig(name, err)
	}
	mc.Shape = shape

	if mc.DiamType == DiamMobility {
		pressure, ok, err := g.Number("pressure")
		if err != nil {
			return ModeConfig{}, err
		}
		if !ok {
			return ModeConfig{}, configErrf(name, "pressure key must be set for diam_type=mobility")
		}
		mc.Env.Pressure = pressure
		temp, ok, err := g.Number("temp")
		if err != nil {
			return ModeConfig{}, err
		}
		if !ok {
			temp = DefaultTemp
		}
		mc.Env.Temp = temp
	}

	if err := g.Check(); err != nil {
		return ModeConfig{}, configErr(name, err)
	}
	return mc, nil
}

// wrapConfig leaves structural errors untouched and marks everything else
// as a configuration error.
func wrapConfig(name string, err error) error {
	var te *params.TypeError
	if errors.As(err, &te) {
		return err
	}
	var ce *ConfigError
	if errors.As(err, &ce) {
		return err
	}
	return configErr(name, err)
}

func parseMassFrac(v *params.Value, path string) ([]Fraction, error) {
	if !v.IsList() {
		return nil, params.Mismatch(path, "list of single-element dicts", v)
	}
	fracs := make([]Fraction, 0, v.Len())
	seen := make(map[string]bool, v.Len())
	for i, item := range v.Items() {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		entry, ok := item.Single()
		if !ok {
			return nil, params.Mismatch(itemPath, "single-element dict", item)
		}
		if seen[entry.Key] {
			return nil, ErrMassFracUnique
		}
		seen[entry.Key] = true

		f := Fraction{Species: entry.Key}
		if x, isNum := entry.Value.Float(); isNum {
			f.Value = x
		} else {
			vals, isNums := entry.Value.Floats()
			if !isNums || len(vals) < 1 || len(vals) > 2 {
				return nil, &params.TypeError{
					Path:   itemPath + "." + entry.Key,
					Reason: "expected [fraction] or [fraction, std]",
				}
			}
			f.Value = vals[0]
			if len(vals) == 2 {
				f.Std = vals[1]
				f.HasStd = true
			}
		}
		fracs = append(fracs, f)
	}
	return fracs, nil
}

type shapeParser func(g *params.Guard) (Shape, error)

var shapeParsers = map[ModeType]shapeParser{
	ModeMono:      parseMono,
	ModeLogNormal: parseLogNormal,
	ModeExp:       parseExp,
	ModeSampled:   parseSampled,
}

// requireNumbers reads the listed keys in order, failing on the first absent one.
func requireNumbers(g *params.Guard, mt ModeType, keys ...string) ([]float64, error) {
	out := make([]float64, len(keys))
	for i, k := range keys {
		f, ok, err := g.Number(k)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%s key must be set for mode_type=%s", k, mt)
		}
		out[i] = f
	}
	return out, nil
}

func parseMono(g *params.Guard) (Shape, error) {
	vals, err := requireNumbers(g, ModeMono, "diam")
	if err != nil {
		return nil, err
	}
	s := Mono{Diam: vals[0]}
	if n, ok, err := g.Number("num_conc"); err != nil {
		return nil, err
	} else if ok {
		s.NumConc = n
	}
	return s, nil
}

func parseLogNormal(g *params.Guard) (Shape, error) {
	vals, err := requireNumbers(g, ModeLogNormal, "num_conc", "geom_mean_diam", "log10_geom_std_dev")
	if err != nil {
		return nil, err
	}
	return LogNormal{NumConc: vals[0], GeomMeanDiam: vals[1], Log10GeomStdDev: vals[2]}, nil
}

func parseExp(g *params.Guard) (Shape, error) {
	vals, err := requireNumbers(g, ModeExp, "num_conc", "diam_at_mean_vol")
	if err != nil {
		return nil, err
	}
	return Exp{NumConc: vals[0], DiamAtMeanVol: vals[1]}, nil
}

func parseSampled(g *params.Guard) (Shape, error) {
	v, ok := g.Use("size_dist")
	if !ok {
		return nil, ErrSizeDistMissing
	}
	diam, numConc, err := parseSizeDist(v)
	if err != nil {
		return nil, err
	}
	return Sampled{Diam: diam, NumConc: numConc}, nil
}

// parseSizeDist accepts exactly [{diam: [...]}, {num_conc: [...]}] with
// non-empty numeric lists.
func parseSizeDist(v *params.Value) ([]float64, []float64, error) {
	if !v.IsList() || v.Len() != 2 {
		return nil, nil, ErrSizeDistShape
	}
	diam, ok := sizeDistColumn(v.Index(0), "diam")
	if !ok {
		return nil, nil, ErrSizeDistShape
	}
	numConc, ok := sizeDistColumn(v.Index(1), "num_conc")
	if !ok {
		return nil, nil, ErrSizeDistShape
	}
	if err := checkSample(diam, numConc); err != nil {
		return nil, nil, err
	}
	return diam, numConc, nil
}

func sizeDistColumn(item *params.Value, key string) ([]float64, bool) {
	entry, ok := item.Single()
	if !ok || entry.Key != key {
		return nil, false
	}
	vals, ok := entry.Value.Floats()
	if !ok || len(vals) == 0 {
		return nil, false
	}
	return vals, true
}

// NewMode validates a typed configuration and builds the mode.
func NewMode(data *Data, cfg ModeConfig, opts ...Option) (*Mode, error) {
	o := newBuildOptions(opts)
	name := cfg.Name
	if name == "" {
		name = DefaultModeName
	}

	if err := checkUniqueSpecies(cfg.MassFrac); err != nil {
		return nil, configErr(name, err)
	}
	for _, f := range cfg.MassFrac {
		if f.Value < 0 || f.Std < 0 {
			return nil, configErrf(name, "mass_frac entry for %q must be non-negative", f.Species)
		}
	}

	m := NewDefaultMode(data)
	m.name = name

	switch cfg.DiamType {
	case "", DiamGeometric:
		m.diamType = DiamGeometric
	case DiamMobility:
		if cfg.Env.Pressure <= 0 {
			return nil, configErrf(name, "pressure key must be set for diam_type=mobility")
		}
		m.diamType = DiamMobility
		m.env = cfg.Env
		if m.env.Temp == 0 {
			m.env.Temp = DefaultTemp
		}
	default:
		return nil, configErrf(name, "unknown diam_type %q (expected geometric or mobility)", cfg.DiamType)
	}

	if err := m.applyShape(cfg.Shape); err != nil {
		return nil, err
	}

	if err := m.applyComposition(cfg.MassFrac, o); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Mode) applyShape(shape Shape) error {
	switch s := shape.(type) {
	case nil:
		return configErrf(m.name, "mode_type key must be set")
	case Mono:
		if err := checkPositive(m.name, "diam", s.Diam); err != nil {
			return err
		}
		if err := checkNonNegative(m.name, "num_conc", s.NumConc); err != nil {
			return err
		}
		m.charRadius = s.Diam / 2
		m.numConc = s.NumConc
	case LogNormal:
		if err := checkPositive(m.name, "geom_mean_diam", s.GeomMeanDiam); err != nil {
			return err
		}
		if err := checkNonNegative(m.name, "log10_geom_std_dev", s.Log10GeomStdDev); err != nil {
			return err
		}
		if err := checkNonNegative(m.name, "num_conc", s.NumConc); err != nil {
			return err
		}
		m.charRadius = s.GeomMeanDiam / 2
		m.gsd = math.Pow(10, s.Log10GeomStdDev)
		m.numConc = s.NumConc
	case Exp:
		if err := checkPositive(m.name, "diam_at_mean_vol", s.DiamAtMeanVol); err != nil {
			return err
		}
		if err := checkNonNegative(m.name, "num_conc", s.NumConc); err != nil {
			return err
		}
		m.charRadius = s.DiamAtMeanVol / 2
		m.numConc = s.NumConc
	case Sampled:
		if err := m.SetSample(s.Diam, s.NumConc); err != nil {
			return err
		}
		return nil
	default:
		return configErrf(m.name, "unsupported shape %T", shape)
	}
	m.typ = shape.ModeType()
	return nil
}

// applyComposition converts mass fractions to volume fractions using the
// species densities: v_i is proportional to m_i / rho_i.
func (m *Mode) applyComposition(fracs []Fraction, o *buildOptions) error {
	m.massFrac = append([]Fraction(nil), fracs...)
	if len(fracs) == 0 {
		return nil
	}

	total := 0.0
	for _, f := range fracs {
		total += f.Value
	}

	vol := make([]float64, m.data.Len())
	std := make([]float64, m.data.Len())
	var unresolved []string
	for _, f := range fracs {
		idx, err := m.data.IndexOf(f.Species)
		if err != nil {
			if o.strictSpecies {
				return configErrf(m.name, "mass_frac species %q not found in aero data", f.Species)
			}
			unresolved = append(unresolved, f.Species)
			continue
		}
		if total == 0 {
			continue
		}
		rho := m.data.Species(idx).Density
		if rho <= 0 {
			return configErrf(m.name, "species %q has non-positive density", f.Species)
		}
		vol[idx] = f.Value / total / rho
		std[idx] = f.Std / total / rho
	}

	volTotal := 0.0
	for _, v := range vol {
		volTotal += v
	}
	if volTotal > 0 {
		for i := range vol {
			vol[i] /= volTotal
			std[i] /= volTotal
		}
	}

	if len(unresolved) > 0 {
		o.log.Warn("mass_frac species not present in aero data",
			zap.String("mode", m.name),
			zap.Strings("species", unresolved))
	}
	m.volFrac = vol
	m.volFracStd = std
	m.unresolved = unresolved
	return nil
}

func checkPositive(mode, key string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return configErrf(mode, "%s must be positive, got %g", key, v)
	}
	return nil
}

func checkNonNegative(mode, key string, v float64) error {
	if !(v >= 0) || math.IsInf(v, 0) {
		return configErrf(mode, "%s must be non-negative, got %g", key, v)
	}
	return nil
}

// Params serializes the configuration as {name: {...}}.
func (c ModeConfig) Params() *params.Value {
	p := params.Map()
	if len(c.MassFrac) > 0 {
		items := make([]*params.Value, len(c.MassFrac))
		for i, f := range c.MassFrac {
			vals := params.Numbers(f.Value)
			if f.HasStd {
				vals = params.Numbers(f.Value, f.Std)
			}
			items[i] = params.Map(params.KV(f.Species, vals))
		}
		p.Set("mass_frac", params.List(items...))
	}
	diamType := c.DiamType
	if diamType == "" {
		diamType = DiamGeometric
	}
	p.Set("diam_type", params.String(string(diamType)))

	switch s := c.Shape.(type) {
	case Mono:
		p.Set("mode_type", params.String(string(ModeMono)))
		p.Set("diam", params.Number(s.Diam))
		p.Set("num_conc", params.Number(s.NumConc))
	case LogNormal:
		p.Set("mode_type", params.String(string(ModeLogNormal)))
		p.Set("num_conc", params.Number(s.NumConc))
		p.Set("geom_mean_diam", params.Number(s.GeomMeanDiam))
		p.Set("log10_geom_std_dev", params.Number(s.Log10GeomStdDev))
	case Exp:
		p.Set("mode_type", params.String(string(ModeExp)))
		p.Set("num_conc", params.Number(s.NumConc))
		p.Set("diam_at_mean_vol", params.Number(s.DiamAtMeanVol))
	case Sampled:
		p.Set("mode_type", params.String(string(ModeSampled)))
		p.Set("size_dist", params.List(
			params.Map(params.KV("diam", params.Numbers(s.Diam...))),
			params.Map(params.KV("num_conc", params.Numbers(s.NumConc...))),
		))
	}

	if diamType == DiamMobility {
		p.Set("pressure", params.Number(c.Env.Pressure))
		p.Set("temp", params.Number(c.Env.Temp))
	}

	name := c.Name
	if name == "" {
		name = DefaultModeName
	}
	return params.Map(params.KV(name, p))
}
