package viz

import (
	"fmt"
	"strings"

	"github.com/san-kum/aerosim/internal/aero"
	"github.com/san-kum/aerosim/internal/gas"
	"github.com/san-kum/aerosim/internal/scenario"
	"github.com/san-kum/aerosim/internal/storage"
)

func DataSummary(d *aero.Data) string {
	var b strings.Builder
	b.WriteString(Title.Render(fmt.Sprintf("aero data: %d species", d.Len())) + "\n")
	b.WriteString(Label.Render(fmt.Sprintf("  %-8s %10s %5s %12s %8s", "name", "density", "ions", "molar_mass", "kappa")) + "\n")
	for i := 0; i < d.Len(); i++ {
		s := d.Species(i)
		b.WriteString(fmt.Sprintf("  %-8s %10g %5d %12g %8g\n", s.Name, s.Density, s.Ions, s.MolarMass, s.Kappa))
	}
	b.WriteString(Row("frac_dim", fmt.Sprintf("%g", d.FracDim())) + "\n")
	b.WriteString(Row("vol_fill_factor", fmt.Sprintf("%g", d.VolFillFactor())) + "\n")
	b.WriteString(Row("prime_radius", fmt.Sprintf("%g m", d.PrimeRadius())) + "\n")
	return b.String()
}

func ModeSummary(m *aero.Mode) string {
	var b strings.Builder
	b.WriteString(Title.Render(m.Name()) + " " + Subtle.Render(string(m.Type())) + "\n")
	b.WriteString(Row("num_conc", fmt.Sprintf("%g #/m^3", m.NumConc())) + "\n")
	switch m.Type() {
	case aero.ModeLogNormal:
		b.WriteString(Row("char_radius", fmt.Sprintf("%g m", m.CharRadius())) + "\n")
		b.WriteString(Row("gsd", fmt.Sprintf("%g", m.GSD())) + "\n")
	case aero.ModeMono, aero.ModeExp:
		b.WriteString(Row("char_radius", fmt.Sprintf("%g m", m.CharRadius())) + "\n")
	case aero.ModeSampled:
		b.WriteString(Row("bins", fmt.Sprintf("%d", len(m.SampleNumConc()))) + "\n")
	}
	b.WriteString(Row("diam_type", string(m.DiamType())) + "\n")
	if m.DiamType() == aero.DiamMobility {
		env := m.Env()
		b.WriteString(Row("pressure", fmt.Sprintf("%g Pa", env.Pressure)) + "\n")
		b.WriteString(Row("temp", fmt.Sprintf("%g K", env.Temp)) + "\n")
	}

	names := m.Data().Names()
	vf := m.VolFrac()
	parts := make([]string, 0, len(names))
	for i, n := range names {
		if vf[i] > 0 {
			parts = append(parts, fmt.Sprintf("%s=%.3g", n, vf[i]))
		}
	}
	if len(parts) > 0 {
		b.WriteString(Row("vol_frac", strings.Join(parts, " ")) + "\n")
	}
	if u := m.UnresolvedSpecies(); len(u) > 0 {
		b.WriteString(StatusWarn.Render("  unresolved species: "+strings.Join(u, ", ")) + "\n")
	}
	return b.String()
}

// DistSummary lists each mode with a sparkline of its size distribution.
func DistSummary(d *aero.Dist, g *aero.BinGrid, width int) string {
	var b strings.Builder
	b.WriteString(Title.Render(fmt.Sprintf("dist: %d modes", d.Len())) + " " +
		Subtle.Render(fmt.Sprintf("num_conc=%g #/m^3", d.NumConc())) + "\n")
	for _, m := range d.Modes() {
		spark := SparklineChart(Density(g, m.NumConcPerBin(g)), width)
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			Selected.Render(padRight(m.Name(), 14)),
			Subtle.Render(padRight(string(m.Type()), 11)),
			spark))
	}
	return b.String()
}

func GasSummary(g *gas.Data) string {
	return Title.Render(fmt.Sprintf("gas data: %d species", g.Len())) + "\n  " +
		strings.Join(g.Names(), " ") + "\n"
}

func ScenarioSummary(s *scenario.Scenario) string {
	var b strings.Builder
	b.WriteString(Title.Render("scenario") + "\n")
	for _, p := range []*scenario.Profile{s.Height, s.Pressure, s.Temp} {
		if p == nil {
			continue
		}
		b.WriteString(Row(p.Name+"_profile", fmt.Sprintf("%d points  %s", len(p.Time), SparklineChart(p.Values, 20))) + "\n")
	}
	if s.GasEmissions != nil {
		b.WriteString(Row("gas_emissions", fmt.Sprintf("%d times, %d species", s.GasEmissions.Len(), len(s.GasEmissions.Species))) + "\n")
	}
	if s.GasBackground != nil {
		b.WriteString(Row("gas_background", fmt.Sprintf("%d times, %d species", s.GasBackground.Len(), len(s.GasBackground.Species))) + "\n")
	}
	if s.AeroEmissions != nil {
		b.WriteString(Row("aero_emissions", fmt.Sprintf("%d times", s.AeroEmissions.Len())) + "\n")
	}
	if s.AeroBackground != nil {
		b.WriteString(Row("aero_background", fmt.Sprintf("%d times", s.AeroBackground.Len())) + "\n")
	}
	b.WriteString(Row("loss_function", string(s.Loss)) + "\n")
	return b.String()
}

func RecordTable(recs []storage.Record) string {
	if len(recs) == 0 {
		return Subtle.Render("no saved descriptors") + "\n"
	}
	var b strings.Builder
	b.WriteString(Label.Render(fmt.Sprintf("%-40s %-9s %-16s %-12s %s", "id", "kind", "name", "num_conc", "saved")) + "\n")
	for _, r := range recs {
		b.WriteString(fmt.Sprintf("%-40s %-9s %-16s %-12.4g %s\n",
			r.ID, r.Kind, r.Name, r.NumConc, r.Timestamp.Local().Format("2006-01-02 15:04")))
	}
	return b.String()
}
