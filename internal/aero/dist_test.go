package aero_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/aerosim/internal/aero"
)

var _ = Describe("Dist", func() {
	var data *aero.Data

	BeforeEach(func() {
		data = newData(twoSpecies)
	})

	It("builds every mode in order", func() {
		d, err := aero.NewDist(data, decode(`
- aitken: {mass_frac: [{SO4: [1]}], mode_type: log_normal, num_conc: 1e9, geom_mean_diam: 2e-8, log10_geom_std_dev: 0.2}
- accum: {mass_frac: [{OC: [1]}], mode_type: mono, diam: 1e-7, num_conc: 5e8}
`))
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Len()).To(Equal(2))
		Expect(d.Mode(0).Name()).To(Equal("aitken"))
		Expect(d.Mode(1).Name()).To(Equal("accum"))
		Expect(d.NumConc()).To(Equal(1.5e9))

		m, err := d.ModeByName("accum")
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Type()).To(Equal(aero.ModeMono))
		_, err = d.ModeByName("coarse")
		Expect(err).To(MatchError(aero.ErrNotFound))
	})

	It("rejects duplicate mode names", func() {
		_, err := aero.NewDist(data, decode(`
- a: {mode_type: mono, diam: 1e-7}
- a: {mode_type: mono, diam: 2e-7}
`))
		Expect(err).To(MatchError("mode names must be unique"))
	})

	DescribeTable("rejects empty mode entries",
		func(doc string) {
			_, err := aero.NewDist(data, decode(doc))
			Expect(err).To(MatchError(aero.ErrConfig))
			Expect(err.Error()).To(ContainSubstring("mode 1: empty mode configuration"))
		},
		Entry("null", "- m: {mode_type: mono, diam: 1e-7, num_conc: 5}\n- null\n"),
		Entry("empty dict", "- m: {mode_type: mono, diam: 1e-7, num_conc: 5}\n- {}\n"),
	)

	It("passes mode errors through", func() {
		_, err := aero.NewDist(data, decode(`[{a: {mode_type: sampled}}]`))
		Expect(err).To(MatchError(aero.ErrSizeDistMissing))
	})

	It("rejects modes built against other data", func() {
		other := newData(twoSpecies)
		m, err := aero.NewMode(other, aero.ModeConfig{Name: "x", Shape: aero.Mono{Diam: 1e-7}})
		Expect(err).NotTo(HaveOccurred())
		_, err = aero.NewDistFromModes(data, m)
		Expect(err).To(MatchError(aero.ErrConfig))
	})

	It("rebuilds from its own params", func() {
		d, err := aero.NewDist(data, decode(`
- a: {mode_type: exp, diam_at_mean_vol: 1e-7, num_conc: 3}
- b: {mode_type: sampled, size_dist: [{diam: [1e-8, 1e-7, 1e-6]}, {num_conc: [1, 2]}]}
`))
		Expect(err).NotTo(HaveOccurred())
		again, err := aero.NewDist(data, d.Params())
		Expect(err).NotTo(HaveOccurred())
		Expect(again.Len()).To(Equal(2))
		Expect(again.NumConc()).To(Equal(6.0))
		Expect(again.Mode(1).SampleRadius()).To(Equal(d.Mode(1).SampleRadius()))
	})
})

var _ = Describe("BinGrid", func() {
	var data *aero.Data

	BeforeEach(func() {
		data = newData(twoSpecies)
	})

	It("spaces edges logarithmically", func() {
		g, err := aero.NewBinGrid(4, 1e-9, 1e-5)
		Expect(err).NotTo(HaveOccurred())
		Expect(g.Len()).To(Equal(4))
		edges := g.Edges()
		Expect(edges).To(HaveLen(5))
		Expect(edges[0]).To(Equal(1e-9))
		Expect(edges[2]).To(BeNumerically("~", 1e-7, 1e-18))
		Expect(edges[4]).To(Equal(1e-5))
		for _, w := range g.Widths() {
			Expect(w).To(BeNumerically("~", 2.302585092994046, 1e-9))
		}
		Expect(g.Centers()[0]).To(BeNumerically("~", 1e-9*3.1622776601683795, 1e-20))
	})

	It("finds the bin of a radius", func() {
		g, err := aero.NewBinGrid(4, 1e-9, 1e-5)
		Expect(err).NotTo(HaveOccurred())
		Expect(g.Find(1e-9)).To(Equal(0))
		Expect(g.Find(5e-8)).To(Equal(1))
		Expect(g.Find(1e-5)).To(Equal(3))
		Expect(g.Find(1e-10)).To(Equal(-1))
		Expect(g.Find(1e-4)).To(Equal(-1))
	})

	DescribeTable("rejects bad bounds",
		func(n int, lo, hi float64) {
			_, err := aero.NewBinGrid(n, lo, hi)
			Expect(err).To(MatchError(aero.ErrInvalidGrid))
		},
		Entry("no bins", 0, 1e-9, 1e-5),
		Entry("zero lower bound", 10, 0.0, 1e-5),
		Entry("inverted", 10, 1e-5, 1e-9),
	)

	It("conserves number for log-normal and exp modes", func() {
		g, err := aero.NewBinGrid(200, 1e-12, 1e-3)
		Expect(err).NotTo(HaveOccurred())
		for _, s := range []aero.Shape{
			aero.LogNormal{GeomMeanDiam: 1e-7, Log10GeomStdDev: 0.2, NumConc: 1e9},
			aero.Exp{DiamAtMeanVol: 1e-7, NumConc: 1e9},
		} {
			m, err := aero.NewMode(data, aero.ModeConfig{Name: "m", Shape: s})
			Expect(err).NotTo(HaveOccurred())
			total := 0.0
			for _, c := range m.NumConcPerBin(g) {
				Expect(c).To(BeNumerically(">=", 0))
				total += c
			}
			Expect(total).To(BeNumerically("~", 1e9, 1e3))
		}
	})

	It("puts a mono mode into one bin", func() {
		g, err := aero.NewBinGrid(4, 1e-9, 1e-5)
		Expect(err).NotTo(HaveOccurred())
		m, err := aero.NewMode(data, aero.ModeConfig{Name: "m", Shape: aero.Mono{Diam: 1e-7, NumConc: 42}})
		Expect(err).NotTo(HaveOccurred())
		Expect(m.NumConcPerBin(g)).To(Equal([]float64{0, 42, 0, 0}))
	})

	It("rebins sampled modes by bin midpoint", func() {
		g, err := aero.NewBinGrid(2, 1e-8, 1e-6)
		Expect(err).NotTo(HaveOccurred())
		m, err := aero.NewMode(data, aero.ModeConfig{Name: "m", Shape: aero.Sampled{
			Diam:    []float64{2e-8, 2e-7, 2e-6},
			NumConc: []float64{10, 20},
		}})
		Expect(err).NotTo(HaveOccurred())
		Expect(m.NumConcPerBin(g)).To(Equal([]float64{10, 20}))
	})
})
