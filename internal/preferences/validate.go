package preferences

import (
	"github.com/go-playground/validator/v10"

	"github.com/jwulff/bgldash/internal/validation"
)

func init() {
	validation.RegisterStructValidation(validateRange, BglRange{})
}

func validateRange(sl validator.StructLevel) {
	r := sl.Current().Interface().(BglRange)
	if r.Min != nil && r.Max != nil && *r.Min >= *r.Max {
		sl.ReportError(r.Min, "Min", "Min", "rangeorder", "")
	}
}

// Validate checks p before it is saved. Absent fields are valid; set fields
// must be in range and the target range must be ordered.
func Validate(p Preferences) error {
	return validation.Struct(p)
}
