package scenario

import (
	"fmt"
	"sort"

	"github.com/san-kum/aerosim/internal/aero"
	"github.com/san-kum/aerosim/internal/gas"
	"github.com/san-kum/aerosim/internal/params"
)

// AeroTimeline is a piecewise-constant sequence of aerosol distributions,
// each scaled by a rate. Used for emissions and background air.
type AeroTimeline struct {
	Time  []float64
	Rate  []float64
	Dists []*aero.Dist
}

func (tl *AeroTimeline) Len() int { return len(tl.Time) }

// IndexAt returns the last entry starting at or before t, or -1.
func (tl *AeroTimeline) IndexAt(t float64) int {
	return indexAt(tl.Time, t)
}

// GasSeries is one species column of a gas timeline.
type GasSeries struct {
	Species string
	Index   int
	Values  []float64
}

// GasTimeline holds per-species gas values over time, scaled by Rate.
type GasTimeline struct {
	Time    []float64
	Rate    []float64
	Species []GasSeries
}

func (tl *GasTimeline) Len() int { return len(tl.Time) }

func (tl *GasTimeline) IndexAt(t float64) int {
	return indexAt(tl.Time, t)
}

func indexAt(times []float64, t float64) int {
	return sort.Search(len(times), func(i int) bool { return times[i] > t }) - 1
}

// columns reads a list of single-element dicts into an ordered slice of
// entries, checking the leading keys.
func columns(key string, v *params.Value, leading ...string) ([]params.Entry, error) {
	if !v.IsList() || v.Len() < len(leading) {
		return nil, invalidf(key, "%s expected to be a list of single-element dicts starting with %s", key, quoteAll(leading))
	}
	cols := make([]params.Entry, v.Len())
	for i, item := range v.Items() {
		e, ok := item.Single()
		if !ok {
			return nil, invalidf(key, "%s expected to contain only single-element dicts", key)
		}
		if i < len(leading) && e.Key != leading[i] {
			return nil, invalidf(key, "%s element %d is expected to be a single-element dict with '%s' key", key, i, leading[i])
		}
		cols[i] = e
	}
	return cols, nil
}

func quoteAll(keys []string) string {
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ", "
		}
		out += "'" + k + "'"
	}
	return out
}

func numbers(key, col string, v *params.Value, n int) ([]float64, error) {
	vals, ok := v.Floats()
	if !ok || (n >= 0 && len(vals) != n) {
		return nil, invalidf(key, "%s 'time' and '%s' arrays do not have matching size", key, col)
	}
	return vals, nil
}

func parseTimes(key string, v *params.Value) ([]float64, error) {
	times, ok := v.Floats()
	if !ok {
		return nil, invalidf(key, "%s 'time' expected to be a list of numbers", key)
	}
	if !sort.Float64sAreSorted(times) {
		return nil, invalidf(key, "%s 'time' values must be non-decreasing", key)
	}
	return times, nil
}

// parseAeroTimeline reads [{time: [...]}, {rate: [...]}, {dist: [[modes], ...]}].
func parseAeroTimeline(key string, v *params.Value, data *aero.Data, opts []aero.Option) (*AeroTimeline, error) {
	cols, err := columns(key, v, "time", "rate", "dist")
	if err != nil {
		return nil, err
	}
	if len(cols) != 3 {
		return nil, invalidf(key, "%s expected to be a 3-element list (of single-element dictionaries)", key)
	}
	times, err := parseTimes(key, cols[0].Value)
	if err != nil {
		return nil, err
	}
	rates, err := numbers(key, "rate", cols[1].Value, len(times))
	if err != nil {
		return nil, err
	}
	distVal := cols[2].Value
	if !distVal.IsList() || distVal.Len() != len(times) {
		return nil, invalidf(key, "%s 'time' and 'dist' arrays do not have matching size", key)
	}
	dists := make([]*aero.Dist, distVal.Len())
	for i, d := range distVal.Items() {
		dist, err := aero.NewDist(data, d, opts...)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		dists[i] = dist
	}
	return &AeroTimeline{Time: times, Rate: rates, Dists: dists}, nil
}

// parseGasTimeline reads [{time: [...]}, {rate: [...]}, {<species>: [...]}, ...].
func parseGasTimeline(key string, v *params.Value, data *gas.Data) (*GasTimeline, error) {
	cols, err := columns(key, v, "time", "rate")
	if err != nil {
		return nil, err
	}
	times, err := parseTimes(key, cols[0].Value)
	if err != nil {
		return nil, err
	}
	rates, err := numbers(key, "rate", cols[1].Value, len(times))
	if err != nil {
		return nil, err
	}
	tl := &GasTimeline{Time: times, Rate: rates}
	seen := make(map[string]bool)
	for _, c := range cols[2:] {
		if seen[c.Key] {
			return nil, invalidf(key, "%s species keys must be unique", key)
		}
		seen[c.Key] = true
		idx, err := data.IndexOf(c.Key)
		if err != nil {
			return nil, invalidf(key, "%s species %q not found in gas data", key, c.Key)
		}
		vals, err := numbers(key, c.Key, c.Value, len(times))
		if err != nil {
			return nil, err
		}
		tl.Species = append(tl.Species, GasSeries{Species: c.Key, Index: idx, Values: vals})
	}
	return tl, nil
}
