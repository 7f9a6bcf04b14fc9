package util

import (
	"math"
	"strings"
)

// MapUnit is the unit of a map projection's coordinates.
type MapUnit string

// The supported map units.
const (
	Meter     MapUnit = "METER"
	Kilometer MapUnit = "KILOMETER"
	Degree    MapUnit = "DEGREE"
	Inch      MapUnit = "INCH"
	Foot      MapUnit = "FOOT"
)

// EarthRadius is the radius in meters used for degree conversion.
const EarthRadius = 6378137.0

const inchPerMeter = 1 / 0.0254

// MeterPerMapUnit returns how many meters are in one map unit.
// Returns false for unknown units.
func MeterPerMapUnit(unit MapUnit) (float64, bool) {
	switch MapUnit(strings.ToUpper(string(unit))) {
	case Meter:
		return 1, true
	case Degree:
		return math.Pi * 2 * EarthRadius / 360, true
	case Kilometer:
		return 1.0e-3, true
	case Inch:
		return 1 / 2.5399999918e-2, true
	case Foot:
		return 0.3048, true
	}

	return 0, false
}

// ResolutionToScale computes the scale denominator inverse, 1/scale, for
// a resolution in map units per pixel at the given dpi.
func ResolutionToScale(resolution, dpi float64, unit MapUnit) (float64, bool) {
	m, ok := MeterPerMapUnit(unit)
	if !ok {
		return 0, false
	}

	return 1 / (resolution * dpi * inchPerMeter * m), true
}

// ScaleToResolution is the inverse of ResolutionToScale.
func ScaleToResolution(scale, dpi float64, unit MapUnit) (float64, bool) {
	m, ok := MeterPerMapUnit(unit)
	if !ok {
		return 0, false
	}

	return 1 / (scale * dpi * inchPerMeter * m), true
}
