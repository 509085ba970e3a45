// Package bloodsugar holds glucose units, readings and the latest status.
package bloodsugar

import (
	"fmt"
	"math"
)

// Unit is a glucose display unit.
type Unit string

const (
	MgDl  Unit = "MgDl"
	MmolL Unit = "MmolL"
)

// CanonicalUnit is the storage and wire unit.
const CanonicalUnit = MgDl

// ConversionFactor converts mmol/L to mg/dL.
const ConversionFactor = 18.0

// Valid reports whether u is a supported unit.
func (u Unit) Valid() bool {
	return u == MgDl || u == MmolL
}

// Label returns the human readable unit.
func (u Unit) Label() string {
	switch u {
	case MgDl:
		return "mg/dL"
	case MmolL:
		return "mmol/L"
	default:
		return string(u)
	}
}

// UnsupportedUnitError is returned when a conversion names an unknown unit.
type UnsupportedUnitError struct {
	From Unit
	To   Unit
}

func (e *UnsupportedUnitError) Error() string {
	return fmt.Sprintf("unsupported bgl unit conversion: %q -> %q", e.From, e.To)
}

// ScaleBglValue converts value between units. Equal units are returned
// unchanged, even when the unit is unknown.
func ScaleBglValue(value float64, from, to Unit) (float64, error) {
	if from == to {
		return value, nil
	}
	if !from.Valid() || !to.Valid() {
		return 0, &UnsupportedUnitError{From: from, To: to}
	}
	if from == MgDl {
		return value / ConversionFactor, nil
	}
	return value * ConversionFactor, nil
}

// ScaleFromCanonical converts a mg/dL value to the display unit.
func ScaleFromCanonical(value float64, to Unit) (float64, error) {
	return ScaleBglValue(value, CanonicalUnit, to)
}

// FormatDelta renders a delta already scaled to the display unit,
// e.g. "+0.0", "-1.3".
func FormatDelta(scaled float64) string {
	if scaled >= 0 {
		return fmt.Sprintf("+%.1f", roundTenth(scaled))
	}
	return fmt.Sprintf("-%.1f", roundTenth(math.Abs(scaled)))
}

// FormatBgl renders a value already scaled to unit: whole numbers for
// mg/dL, one decimal for mmol/L.
func FormatBgl(scaled float64, unit Unit) string {
	if unit == MgDl {
		return fmt.Sprintf("%d", int(math.Round(scaled)))
	}
	return fmt.Sprintf("%.1f", roundTenth(scaled))
}

// roundTenth rounds half away from zero to one decimal place.
func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
