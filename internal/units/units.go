// Package units defines the model-wide length unit system and conversions.
package units

import "github.com/rotisserie/eris"

// System is the length unit the whole exposure model is expressed in.
type System string

const (
	Meters System = "meters"
	Feet   System = "feet"
)

// MetersToFeet is the exact conversion factor between meters and international feet.
const MetersToFeet = 3.28084

// FeetPerMeterLegacy is the factor applied to lane-cost road damages when the
// model unit is feet but segment lengths were measured in a metric CRS. Kept
// separate from MetersToFeet because the road damage catalogs were calibrated
// against it.
const FeetPerMeterLegacy = 0.3048

// Parse returns the System for a user-supplied unit string.
func Parse(s string) (System, error) {
	switch s {
	case "meters", "metre", "meter", "m":
		return Meters, nil
	case "feet", "foot", "ft":
		return Feet, nil
	default:
		return "", eris.Errorf("units: unknown unit system %q", s)
	}
}

// Convert converts a length value between unit systems. Converting within the
// same system returns the value unchanged.
func Convert(value float64, from, to System) float64 {
	if from == to {
		return value
	}
	if from == Meters && to == Feet {
		return value * MetersToFeet
	}
	return value / MetersToFeet
}
