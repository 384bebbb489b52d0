package scenario

import (
	"math"
	"sort"

	"github.com/san-kum/aerosim/internal/params"
)

// profileNames are checked in this order.
var profileNames = []string{"height", "pressure", "temp"}

// Profile is a quantity given at a sequence of times.
type Profile struct {
	Name   string
	Time   []float64
	Values []float64
}

// At interpolates linearly and holds the end values outside the time range.
// An empty profile yields NaN.
func (p *Profile) At(t float64) float64 {
	n := len(p.Time)
	if n == 0 {
		return math.NaN()
	}
	if t <= p.Time[0] {
		return p.Values[0]
	}
	if t >= p.Time[n-1] {
		return p.Values[n-1]
	}
	i := sort.SearchFloat64s(p.Time, t)
	if p.Time[i] == t {
		return p.Values[i]
	}
	t0, t1 := p.Time[i-1], p.Time[i]
	v0, v1 := p.Values[i-1], p.Values[i]
	if t1 == t0 {
		return v1
	}
	return v0 + (v1-v0)*(t-t0)/(t1-t0)
}

func parseProfile(prof string, v *params.Value) (*Profile, error) {
	key := prof + "_profile"
	if !v.IsList() || v.Len() != 2 {
		return nil, invalidf(key, "%s expected to be a 2-element list (of single-element dictionaries)", key)
	}
	for _, item := range v.Items() {
		if !item.IsMap() || item.Len() != 1 {
			return nil, invalidf(key, "%s expected to contain only single-element dicts", key)
		}
	}
	timeVal, ok := v.Index(0).Get("time")
	if !ok {
		return nil, invalidf(key, "%s first element is expeced to be a single-element dict with 'time' key", key)
	}
	profVal, ok := v.Index(1).Get(prof)
	if !ok {
		return nil, invalidf(key, "%s second element is expeced to be a single-element dict with '%s' key", key, prof)
	}
	times, okT := timeVal.Floats()
	values, okV := profVal.Floats()
	if !okT || !okV || len(times) != len(values) {
		return nil, invalidf(key, "%s 'time' and '%s' arrays do not have matching size", key, prof)
	}
	if !sort.Float64sAreSorted(times) {
		return nil, invalidf(key, "%s 'time' values must be non-decreasing", key)
	}
	return &Profile{Name: prof, Time: times, Values: values}, nil
}
