// Package units converts physical quantities to their canonical SI form.
//
// SI base units (kilograms, meters) are the pivot: any accepted unit
// converts in with a single multiplication and converts out the same way,
// so composing conversions never loses precision beyond float64 rounding.
package units

import (
	"fmt"
	"strings"
)

// massFactors maps a lower-cased unit name to its multiplier into kilograms.
var massFactors = map[string]float64{
	"kg":         1.0,
	"kilogram":   1.0,
	"kilograms":  1.0,
	"g":          0.001,
	"gram":       0.001,
	"grams":      0.001,
	"lb":         0.45359237,
	"lbs":        0.45359237,
	"pound":      0.45359237,
	"pounds":     0.45359237,
}

// lengthFactors maps a lower-cased unit name to its multiplier into meters.
var lengthFactors = map[string]float64{
	"m":          1.0,
	"meter":      1.0,
	"meters":     1.0,
	"km":         1000.0,
	"kilometer":  1000.0,
	"kilometers": 1000.0,
	"ft":         0.3048,
	"feet":       0.3048,
	"in":         0.0254,
	"inch":       0.0254,
}

// NormalizeMass converts value in the given unit to kilograms.
// An unrecognized unit returns a zero value and a descriptive error.
func NormalizeMass(value float64, unit string) (float64, error) {
	factor, ok := massFactors[strings.ToLower(strings.TrimSpace(unit))]
	if !ok {
		return 0, fmt.Errorf("unknown_mass_unit:%s", unit)
	}
	return value * factor, nil
}

// NormalizeLength converts value in the given unit to meters.
func NormalizeLength(value float64, unit string) (float64, error) {
	factor, ok := lengthFactors[strings.ToLower(strings.TrimSpace(unit))]
	if !ok {
		return 0, fmt.Errorf("unknown_length_unit:%s", unit)
	}
	return value * factor, nil
}

// KnownMassUnits reports whether unit is a recognized mass unit, case-insensitive.
func KnownMassUnits(unit string) bool {
	_, ok := massFactors[strings.ToLower(strings.TrimSpace(unit))]
	return ok
}

// KnownLengthUnits reports whether unit is a recognized length unit, case-insensitive.
func KnownLengthUnits(unit string) bool {
	_, ok := lengthFactors[strings.ToLower(strings.TrimSpace(unit))]
	return ok
}
