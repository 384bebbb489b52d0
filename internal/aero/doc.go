// Package aero holds aerosol species tables and the population modes built
// against them.
//
// Modes are usually built from loosely-typed configuration:
//
//	data, _ := aero.NewDataFromParams(speciesCfg)
//	mode, err := aero.NewModeFromParams(data, modeCfg)
//
// The validation steps and their messages are fixed; callers may compare
// err.Error() against the Err* sentinels or use errors.Is.
package aero
