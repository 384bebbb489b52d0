package aero_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/aerosim/internal/aero"
	"github.com/san-kum/aerosim/internal/params"
)

const aitken = `
aitken:
  mass_frac:
    - SO4: [1]
    - OC: [1]
  diam_type: geometric
  mode_type: log_normal
  num_conc: 3.2e9
  geom_mean_diam: 2e-8
  log10_geom_std_dev: 0.161
`

var _ = Describe("Mode", func() {
	var data *aero.Data

	BeforeEach(func() {
		data = newData(twoSpecies)
	})

	build := func(doc string, opts ...aero.Option) (*aero.Mode, error) {
		return aero.NewModeFromParams(data, decode(doc), opts...)
	}

	Describe("default construction", func() {
		It("returns a zeroed log-normal mode for an empty config", func() {
			m, err := aero.NewModeFromParams(data, params.Map())
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Name()).To(Equal(aero.DefaultModeName))
			Expect(m.Type()).To(Equal(aero.ModeLogNormal))
			Expect(m.NumConc()).To(BeZero())
			Expect(m.GSD()).To(Equal(1.0))
			Expect(m.VolFrac()).To(HaveLen(data.Len()))
		})
	})

	Describe("validation", func() {
		It("requires a single top-level key", func() {
			_, err := build("{a: {mode_type: mono, diam: 1}, b: {mode_type: mono, diam: 1}}")
			Expect(err).To(MatchError("Single-element dict expected with mode name as key and mode params dict as value"))
			Expect(errors.Is(err, aero.ErrConfig)).To(BeTrue())
			Expect(errors.Is(err, aero.ErrSingleElementDict)).To(BeTrue())
		})

		It("rejects repeated mass_frac species", func() {
			_, err := build(`
m:
  mass_frac: [{SO4: [1]}, {SO4: [2]}]
  mode_type: mono
  diam: 1e-7
`)
			Expect(err).To(MatchError("mass_frac keys must be unique"))
		})

		It("rejects mass_frac entries that are not single-element dicts", func() {
			_, err := build(`
m:
  mass_frac: [{SO4: [1], OC: [1]}]
  mode_type: mono
  diam: 1e-7
`)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("incompatible constructor arguments"))
		})

		It("rejects a mass_frac list that contains itself", func() {
			massFrac := make([]any, 2)
			massFrac[0] = map[string]any{"SO4": []any{1.0}}
			massFrac[1] = massFrac
			_, err := params.FromAny(map[string]any{
				"m": map[string]any{"mass_frac": massFrac, "mode_type": "mono", "diam": 1e-7},
			})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("incompatible constructor arguments"))
		})

		It("rejects a YAML alias that refers to its own ancestor", func() {
			_, err := params.Decode([]byte("m: &a\n  mass_frac: [*a]\n"))
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("incompatible constructor arguments"))
		})

		It("requires mode_type", func() {
			_, err := build("m: {diam: 1e-7}")
			Expect(err).To(MatchError("mode_type key must be set"))
		})

		It("rejects unknown mode types", func() {
			_, err := build("m: {mode_type: gamma}")
			Expect(err).To(MatchError(ContainSubstring(`unknown mode_type "gamma"`)))
		})

		DescribeTable("requires the shape keys of each mode type",
			func(doc, msg string) {
				_, err := build(doc)
				Expect(err).To(MatchError(msg))
			},
			Entry("mono", "m: {mode_type: mono}", "diam key must be set for mode_type=mono"),
			Entry("log_normal", "m: {mode_type: log_normal, num_conc: 1, geom_mean_diam: 1e-7}",
				"log10_geom_std_dev key must be set for mode_type=log_normal"),
			Entry("exp", "m: {mode_type: exp, num_conc: 1}", "diam_at_mean_vol key must be set for mode_type=exp"),
		)

		It("rejects non-numeric shape values as structural errors", func() {
			_, err := build("m: {mode_type: mono, diam: big}")
			var te *params.TypeError
			Expect(errors.As(err, &te)).To(BeTrue())
			Expect(te.Path).To(Equal("$.m.diam"))
		})

		It("reports parameters that nothing consumed", func() {
			_, err := build("m: {mode_type: mono, diam: 1e-7, colour: blue}")
			Expect(err).To(MatchError(`WARNING: "colour" parameter remains unused.`))
			Expect(errors.Is(err, params.ErrUnused)).To(BeTrue())
		})

		It("requires pressure for mobility diameters", func() {
			_, err := build("m: {mode_type: mono, diam: 1e-7, diam_type: mobility}")
			Expect(err).To(MatchError("pressure key must be set for diam_type=mobility"))
		})

		It("defaults temp for mobility diameters", func() {
			m, err := build("m: {mode_type: mono, diam: 1e-7, diam_type: mobility, pressure: 101325}")
			Expect(err).NotTo(HaveOccurred())
			Expect(m.DiamType()).To(Equal(aero.DiamMobility))
			Expect(m.Env()).To(Equal(aero.Env{Pressure: 101325, Temp: aero.DefaultTemp}))
		})

		It("does not read pressure for geometric diameters", func() {
			_, err := build("m: {mode_type: mono, diam: 1e-7, pressure: 101325}")
			Expect(err).To(MatchError(`WARNING: "pressure" parameter remains unused.`))
		})
	})

	Describe("sampled modes", func() {
		It("requires size_dist", func() {
			_, err := build("m: {mode_type: sampled}")
			Expect(err).To(MatchError("size_dist key must be set for mode_type=sampled"))
		})

		DescribeTable("rejects malformed size_dist values",
			func(sizeDist string) {
				_, err := build("m: {mode_type: sampled, size_dist: " + sizeDist + "}")
				Expect(err).To(MatchError("size_dist value must be an iterable of two single-element dicts (first with 'diam', second with 'num_conc' as keys)"))
			},
			Entry("keys swapped", "[{num_conc: [1]}, {diam: [1, 2]}]"),
			Entry("one element", "[{diam: [1, 2]}]"),
			Entry("three elements", "[{diam: [1, 2]}, {num_conc: [1]}, {num_conc: [1]}]"),
			Entry("two keys in one dict", "[{diam: [1, 2], num_conc: [1]}, {num_conc: [1]}]"),
			Entry("empty diam", "[{diam: []}, {num_conc: [1]}]"),
			Entry("not a list", "{diam: [1, 2], num_conc: [1]}"),
		)

		It("rejects mismatched lengths", func() {
			_, err := build("m: {mode_type: sampled, size_dist: [{diam: [1, 2, 3, 4]}, {num_conc: [1, 2]}]}")
			Expect(err).To(MatchError("size_dist['num_conc'] must have len(size_dist['diam'])-1 elements"))
		})

		It("derives num_conc and radii", func() {
			m, err := build("m: {mode_type: sampled, size_dist: [{diam: [1, 2, 3, 4]}, {num_conc: [1, 2, 3]}]}")
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Type()).To(Equal(aero.ModeSampled))
			Expect(m.NumConc()).To(Equal(6.0))
			Expect(m.SampleRadius()).To(Equal([]float64{0.5, 1, 1.5, 2}))
			Expect(m.SampleNumConc()).To(Equal([]float64{1, 2, 3}))
		})

		It("does not accept a num_conc override", func() {
			m, err := build("m: {mode_type: sampled, size_dist: [{diam: [1, 2]}, {num_conc: [5]}]}")
			Expect(err).NotTo(HaveOccurred())
			Expect(m.SetNumConc(1)).To(MatchError(aero.ErrSampledNumConc))
			Expect(m.NumConc()).To(Equal(5.0))
		})
	})

	Describe("composition", func() {
		It("converts mass fractions to volume fractions", func() {
			m, err := build(aitken)
			Expect(err).NotTo(HaveOccurred())
			vf := m.VolFrac()
			Expect(vf).To(HaveLen(2))
			Expect(vf[0]).To(BeNumerically("~", 1000.0/2800, 1e-12))
			Expect(vf[1]).To(BeNumerically("~", 1800.0/2800, 1e-12))
		})

		It("carries the optional standard deviation", func() {
			m, err := build("m: {mass_frac: [{SO4: [1, 0.1]}], mode_type: mono, diam: 1e-7}")
			Expect(err).NotTo(HaveOccurred())
			Expect(m.VolFrac()[0]).To(BeNumerically("~", 1, 1e-12))
			Expect(m.VolFracStd()[0]).To(BeNumerically("~", 0.1, 1e-12))
			Expect(m.MassFrac()).To(Equal([]aero.Fraction{{Species: "SO4", Value: 1, Std: 0.1, HasStd: true}}))
		})

		It("records species missing from the data", func() {
			m, err := build("m: {mass_frac: [{H2O: [1]}, {SO4: [1]}], mode_type: mono, diam: 1e-7}")
			Expect(err).NotTo(HaveOccurred())
			Expect(m.UnresolvedSpecies()).To(Equal([]string{"H2O"}))
			Expect(m.VolFrac()[0]).To(BeNumerically("~", 1, 1e-12))
		})

		It("rejects missing species when strict", func() {
			_, err := build("m: {mass_frac: [{H2O: [1]}], mode_type: mono, diam: 1e-7}", aero.WithStrictSpecies())
			Expect(err).To(MatchError(`mass_frac species "H2O" not found in aero data`))
		})
	})

	Describe("accessors", func() {
		var m *aero.Mode

		BeforeEach(func() {
			var err error
			m, err = build(aitken)
			Expect(err).NotTo(HaveOccurred())
		})

		It("exposes the log-normal parameters", func() {
			Expect(m.Name()).To(Equal("aitken"))
			Expect(m.NumConc()).To(Equal(3.2e9))
			Expect(m.CharRadius()).To(BeNumerically("~", 1e-8, 1e-20))
			Expect(m.Log10GSD()).To(BeNumerically("~", 0.161, 1e-12))
		})

		It("round-trips num_conc, gsd and char_radius", func() {
			Expect(m.SetNumConc(44)).To(Succeed())
			Expect(m.SetGSD(2.5)).To(Succeed())
			Expect(m.SetCharRadius(3e-8)).To(Succeed())
			m.SetName("renamed")
			Expect(m.NumConc()).To(Equal(44.0))
			Expect(m.GSD()).To(Equal(2.5))
			Expect(m.CharRadius()).To(Equal(3e-8))
			Expect(m.Name()).To(Equal("renamed"))
		})

		It("rejects negative num_conc", func() {
			Expect(m.SetNumConc(-1)).To(MatchError(aero.ErrConfig))
			Expect(m.NumConc()).To(Equal(3.2e9))
		})

		DescribeTable("rejects gsd and char_radius outside their range",
			func(gsd, radius float64) {
				Expect(m.SetGSD(gsd)).To(MatchError(aero.ErrConfig))
				Expect(m.SetCharRadius(radius)).To(MatchError(aero.ErrConfig))
				Expect(m.GSD()).To(BeNumerically("~", math.Pow(10, 0.161), 1e-12))
				Expect(m.CharRadius()).To(BeNumerically("~", 1e-8, 1e-20))
				_, err := m.Params().MarshalJSON()
				Expect(err).NotTo(HaveOccurred())
			},
			Entry("zero", 0.0, 0.0),
			Entry("negative", -2.0, -1e-8),
			Entry("NaN", math.NaN(), math.NaN()),
			Entry("infinite", math.Inf(1), math.Inf(1)),
			Entry("gsd below one", 0.5, -1.0),
		)

		DescribeTable("rejects vol_frac of the wrong length",
			func(v []float64) {
				before := m.VolFrac()
				Expect(errors.Is(m.SetVolFrac(v), aero.ErrDimensionMismatch)).To(BeTrue())
				Expect(errors.Is(m.SetVolFracStd(v), aero.ErrDimensionMismatch)).To(BeTrue())
				Expect(m.VolFrac()).To(Equal(before))
			},
			Entry("empty", []float64{}),
			Entry("one too many", []float64{1, 0, 0}),
		)

		It("replaces vol_frac of the right length", func() {
			Expect(m.SetVolFrac([]float64{0.25, 0.75})).To(Succeed())
			Expect(m.VolFrac()).To(Equal([]float64{0.25, 0.75}))
		})

		It("rejects negative vol_frac", func() {
			Expect(m.SetVolFrac([]float64{-0.25, 1.25})).To(MatchError(aero.ErrConfig))
			Expect(m.VolFrac()[0]).To(BeNumerically(">", 0))
		})

		It("keeps edited vol_frac through params", func() {
			Expect(m.SetVolFrac([]float64{0.25, 0.75})).To(Succeed())
			Expect(m.SetVolFracStd([]float64{0.05, 0})).To(Succeed())

			again, err := aero.NewModeFromParams(data, m.Params())
			Expect(err).NotTo(HaveOccurred())
			Expect(again.VolFrac()[0]).To(BeNumerically("~", 0.25, 1e-12))
			Expect(again.VolFrac()[1]).To(BeNumerically("~", 0.75, 1e-12))
			Expect(again.VolFracStd()[0]).To(BeNumerically("~", 0.05, 1e-12))
			Expect(again.VolFracStd()[1]).To(BeZero())
		})

		It("keeps the sample when set twice with the same values", func() {
			diam := []float64{1e-8, 1e-7, 1e-6}
			conc := []float64{3, 4}
			Expect(m.SetSample(diam, conc)).To(Succeed())
			num, radius, perBin := m.NumConc(), m.SampleRadius(), m.SampleNumConc()

			Expect(m.SetSample(diam, conc)).To(Succeed())
			Expect(m.NumConc()).To(Equal(num))
			Expect(m.SampleRadius()).To(Equal(radius))
			Expect(m.SampleNumConc()).To(Equal(perBin))
		})

		It("replaces the sample atomically", func() {
			err := m.SetSample([]float64{1, 2, 3}, []float64{1, 2, 3})
			Expect(err).To(MatchError(aero.ErrSizeDistLength))
			Expect(m.Type()).To(Equal(aero.ModeLogNormal))
			Expect(m.SampleRadius()).To(BeEmpty())

			Expect(m.SetSample([]float64{2, 4}, []float64{7})).To(Succeed())
			Expect(m.Type()).To(Equal(aero.ModeSampled))
			Expect(m.SampleRadius()).To(Equal([]float64{1, 2}))
			Expect(m.NumConc()).To(Equal(7.0))
		})

		It("rebuilds from its own params", func() {
			again, err := aero.NewModeFromParams(data, m.Params())
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Name()).To(Equal(m.Name()))
			Expect(again.Type()).To(Equal(m.Type()))
			Expect(again.NumConc()).To(Equal(m.NumConc()))
			Expect(again.CharRadius()).To(BeNumerically("~", m.CharRadius(), 1e-20))
			Expect(again.GSD()).To(BeNumerically("~", m.GSD(), 1e-12))
			Expect(again.VolFrac()).To(Equal(m.VolFrac()))
		})
	})

	Describe("round trips", func() {
		It("rebuilds the default mode from its params", func() {
			m := aero.NewDefaultMode(data)
			Expect(m.Params().Len()).To(BeZero())

			again, err := aero.NewModeFromParams(data, m.Params())
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Name()).To(Equal(aero.DefaultModeName))
			Expect(again.Type()).To(Equal(aero.ModeLogNormal))
			Expect(again.NumConc()).To(BeZero())
		})
	})

	It("builds the single-species log-normal test mode", func() {
		water := newData("- H2O: [1000, 0, 18e-3, 0]")
		cfg := params.Map(params.KV("test_mode", params.Map(
			params.KV("mass_frac", params.List(params.Map(params.KV("H2O", params.Numbers(1))))),
			params.KV("diam_type", params.String("geometric")),
			params.KV("mode_type", params.String("log_normal")),
			params.KV("num_conc", params.Number(100)),
			params.KV("geom_mean_diam", params.Number(2e-6)),
			params.KV("log10_geom_std_dev", params.Number(math.Log10(1.6))),
		)))

		m, err := aero.NewModeFromParams(water, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Name()).To(Equal("test_mode"))
		Expect(m.Type()).To(Equal(aero.ModeLogNormal))
		Expect(m.NumConc()).To(Equal(100.0))
		Expect(m.GSD()).To(BeNumerically("~", 1.6, 1e-12))
		Expect(m.VolFrac()).To(Equal([]float64{1}))
	})

	Describe("typed construction", func() {
		It("builds every shape", func() {
			shapes := []aero.Shape{
				aero.Mono{Diam: 1e-7, NumConc: 10},
				aero.LogNormal{GeomMeanDiam: 1e-7, Log10GeomStdDev: 0.2, NumConc: 10},
				aero.Exp{DiamAtMeanVol: 1e-7, NumConc: 10},
				aero.Sampled{Diam: []float64{1e-8, 1e-7}, NumConc: []float64{10}},
			}
			for _, s := range shapes {
				m, err := aero.NewMode(data, aero.ModeConfig{Name: "m", Shape: s})
				Expect(err).NotTo(HaveOccurred())
				Expect(m.Type()).To(Equal(s.ModeType()))
				Expect(m.NumConc()).To(Equal(10.0))
			}
		})

		It("rejects a missing shape", func() {
			_, err := aero.NewMode(data, aero.ModeConfig{Name: "m"})
			Expect(err).To(MatchError("mode_type key must be set"))
		})

		It("rejects non-positive diameters", func() {
			_, err := aero.NewMode(data, aero.ModeConfig{Name: "m", Shape: aero.Mono{Diam: 0}})
			Expect(err).To(MatchError(ContainSubstring("diam must be positive")))
		})
	})
})
