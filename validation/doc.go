// Package validation provides input validation for fnkit configuration.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Both report failures as
// fnkit errors carrying the INVALID_ARGUMENT code with per-field details.
//
// # Struct Tag Validation
//
//	type Settings struct {
//	    Threshold int    `validate:"min=0"`
//	    Level     string `validate:"oneof=debug info warn"`
//	}
//	err := validation.Struct(settings)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Min("threshold", threshold, 0)
//	v.OneOf("backend", name, []string{"native", "bitwise"})
//	err := v.Validate()
package validation
