// Package units holds the reporting scale and angle conversions shared by
// pose math and report tables.
package units

import "math"

// TranslationUnitScale converts a distance between reconstructed positions
// into the reporting unit used by error tables.
const TranslationUnitScale = 0.1

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
