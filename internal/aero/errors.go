package aero

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by lookups of an absent species name.
var ErrNotFound = errors.New("Element not found.")

// Configuration errors with fixed user-facing text.
var (
	ErrSingleElementDict = errors.New("Single-element dict expected with mode name as key and mode params dict as value")
	ErrMassFracUnique    = errors.New("mass_frac keys must be unique")
	ErrSizeDistMissing   = errors.New("size_dist key must be set for mode_type=sampled")
	ErrSizeDistShape     = errors.New("size_dist value must be an iterable of two single-element dicts (first with 'diam', second with 'num_conc' as keys)")
	ErrSizeDistLength    = errors.New("size_dist['num_conc'] must have len(size_dist['diam'])-1 elements")
	ErrModeNamesUnique   = errors.New("mode names must be unique")
	ErrSpeciesUnique     = errors.New("species keys must be unique")
	ErrSampledNumConc    = errors.New("num_conc is derived from size_dist for mode_type=sampled")
)

var (
	// ErrConfig matches every *ConfigError via errors.Is.
	ErrConfig = errors.New("aero: invalid configuration")

	// ErrDimensionMismatch indicates a vector whose length does not match the
	// number of species of the aero data.
	ErrDimensionMismatch = errors.New("aero: dimension mismatch with aero data")
)

// ConfigError is a rejected mode, dist or species configuration. Its text is
// exactly the text of the wrapped error so the fixed messages survive.
type ConfigError struct {
	Mode    string
	Wrapped error
}

func (e *ConfigError) Error() string {
	return e.Wrapped.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Wrapped
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

func configErr(mode string, err error) *ConfigError {
	return &ConfigError{Mode: mode, Wrapped: err}
}

func configErrf(mode string, format string, args ...any) *ConfigError {
	return &ConfigError{Mode: mode, Wrapped: fmt.Errorf(format, args...)}
}
