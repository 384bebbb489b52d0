package aero_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/aerosim/internal/aero"
	"github.com/san-kum/aerosim/internal/params"
)

var _ = Describe("Data", func() {
	It("builds from a list of single-key dicts", func() {
		d := newData(`[{H2O: [1000, 0, 18e-3, 0]}]`)
		Expect(d.Len()).To(Equal(1))
		Expect(d.Names()).To(Equal([]string{"H2O"}))
		Expect(d.Species(0).MolarMass).To(BeNumerically("==", 18e-3))
	})

	It("builds from a mapping and keeps document order", func() {
		d := newData("{OC: [1000, 0, 200e-3, 0.1], BC: [1800, 0, 12e-3, 0], SO4: [1800, 1, 96e-3, 0.65]}")
		Expect(d.Names()).To(Equal([]string{"OC", "BC", "SO4"}))
		i, err := d.IndexOf("SO4")
		Expect(err).NotTo(HaveOccurred())
		Expect(i).To(Equal(2))
		Expect(d.Species(i).Ions).To(Equal(1))
	})

	It("accepts an empty table", func() {
		d, err := aero.NewDataFromParams(params.List())
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Len()).To(BeZero())
	})

	It("reports unknown names", func() {
		d := newData(twoSpecies)
		_, err := d.IndexOf("XXX")
		Expect(err).To(MatchError("Element not found."))
		Expect(errors.Is(err, aero.ErrNotFound)).To(BeTrue())
	})

	It("rejects duplicate species", func() {
		_, err := aero.NewDataFromParams(decode(`[{A: [1, 0, 1, 0]}, {A: [2, 0, 1, 0]}]`))
		Expect(err).To(MatchError("species keys must be unique"))
	})

	DescribeTable("rejects malformed species values",
		func(doc string) {
			_, err := aero.NewDataFromParams(decode(doc))
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("incompatible constructor arguments"))
			var te *params.TypeError
			Expect(errors.As(err, &te)).To(BeTrue())
		},
		Entry("too short", `{H2O: [1000, 0]}`),
		Entry("not a list", `{H2O: 1000}`),
		Entry("non-numeric", `{H2O: [1000, 0, a, 0]}`),
		Entry("fractional ions", `{H2O: [1000, 0.5, 18e-3, 0]}`),
		Entry("scalar document", `42`),
	)

	It("defaults the fractal parameters and lets them change", func() {
		d := newData(twoSpecies)
		Expect(d.FracDim()).To(Equal(3.0))
		Expect(d.VolFillFactor()).To(Equal(1.0))
		Expect(d.PrimeRadius()).To(Equal(1e-8))

		d.SetFracDim(2.5)
		d.SetVolFillFactor(1.43)
		d.SetPrimeRadius(2e-8)
		Expect(d.FracDim()).To(Equal(2.5))
		Expect(d.VolFillFactor()).To(Equal(1.43))
		Expect(d.PrimeRadius()).To(Equal(2e-8))
	})

	It("converts radius and volume both ways", func() {
		d := newData(twoSpecies)
		Expect(d.RadToVol(1e-7)).To(BeNumerically("~", 4.0/3.0*3.141592653589793*1e-21, 1e-30))
		Expect(d.VolToRad(d.RadToVol(1e-7))).To(BeNumerically("~", 1e-7, 1e-18))

		d.SetFracDim(2.2)
		d.SetPrimeRadius(1e-8)
		Expect(d.VolToRad(d.RadToVol(3e-7))).To(BeNumerically("~", 3e-7, 1e-18))
	})

	It("prints the constructor input", func() {
		d := newData(`[{H2O: [1000, 0, 0.018, 0]}]`)
		Expect(d.String()).To(Equal(`[{"H2O":[1000,0,0.018,0]}]`))
	})
})
