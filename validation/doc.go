// Package validation checks operator options before any row is read.
//
// Option structs carry validator tags and are checked with Validate; rules
// that span fields (equal key-column counts and the like) go through the
// programmatic Validator. Both report a CONFIGURATION_ERROR naming the
// operator.
//
//	type sortOptions struct {
//	    Keys []string `validate:"min=1,dive,required"`
//	}
//	err := validation.Validate("ts", opts)
//
//	v := validation.New()
//	v.SameLength("k2", len(k1), len(k2))
//	err := v.Error("tj")
package validation
