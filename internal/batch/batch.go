// Package batch validates many descriptor files concurrently against shared
// species tables.
package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/san-kum/aerosim/internal/aero"
	"github.com/san-kum/aerosim/internal/gas"
	"github.com/san-kum/aerosim/internal/params"
	"github.com/san-kum/aerosim/internal/scenario"
)

type Kind string

const (
	KindMode     Kind = "mode"
	KindDist     Kind = "dist"
	KindScenario Kind = "scenario"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindMode, KindDist, KindScenario:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown kind %q (expected mode, dist or scenario)", s)
}

type Result struct {
	Path     string
	Dist     *aero.Dist
	Scenario *scenario.Scenario
	Err      error
}

// Validator shares one aero and gas table between workers. Both tables are
// only read.
type Validator struct {
	aero    *aero.Data
	gas     *gas.Data
	opts    []aero.Option
	workers int
}

func NewValidator(aeroData *aero.Data, gasData *gas.Data, workers int, opts ...aero.Option) *Validator {
	if workers < 1 {
		workers = 1
	}
	return &Validator{aero: aeroData, gas: gasData, opts: opts, workers: workers}
}

// Run validates every path and returns one result per path, in order. A
// failing file does not stop the others.
func (v *Validator) Run(ctx context.Context, kind Kind, paths []string) []Result {
	results := make([]Result, len(paths))
	parallelFor(len(paths), v.workers, func(start, end int) {
		for i := start; i < end; i++ {
			results[i].Path = paths[i]
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				continue
			}
			results[i] = v.validate(kind, paths[i])
		}
	})
	return results
}

func (v *Validator) validate(kind Kind, path string) Result {
	res := Result{Path: path}
	cfg, err := params.Load(path)
	if err != nil {
		res.Err = err
		return res
	}
	switch kind {
	case KindMode:
		m, err := aero.NewModeFromParams(v.aero, cfg, v.opts...)
		if err != nil {
			res.Err = err
			return res
		}
		res.Dist, res.Err = aero.NewDistFromModes(v.aero, m)
	case KindDist:
		res.Dist, res.Err = aero.NewDist(v.aero, cfg, v.opts...)
	case KindScenario:
		res.Scenario, res.Err = scenario.New(v.gas, v.aero, cfg, v.opts...)
	default:
		res.Err = fmt.Errorf("unknown kind %q", kind)
	}
	return res
}

// Failed counts results with an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// parallelFor splits [0, n) into at most workers contiguous chunks.
func parallelFor(n, workers int, fn func(start, end int)) {
	if n == 0 {
		return
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
