package pose

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/valeriodiste/shared-app/internal/units"
)

// Direction returns the unit facing vector described by the yaw and pitch
// angles. Roll does not affect the facing direction.
func (r Rotation) Direction() r3.Vector {
	yaw := units.DegToRad(r.Yaw())
	pitch := units.DegToRad(r.Pitch())
	return r3.Vector{
		X: math.Cos(yaw) * math.Cos(pitch),
		Y: math.Sin(yaw) * math.Cos(pitch),
		Z: math.Sin(pitch),
	}
}

// Compare scores an estimated observation against ground truth using the
// standard reporting unit scale.
func Compare(estimated, groundTruth Observation) FrameError {
	return CompareWithScale(estimated, groundTruth, units.TranslationUnitScale)
}

// CompareWithScale is Compare with an explicit translation scale.
//
// The translation error is the distance between positions multiplied by
// scale. The rotation error is the angle in degrees between the two facing
// directions. Each error is nil when either side lacks that component.
func CompareWithScale(estimated, groundTruth Observation, scale float64) FrameError {
	var out FrameError
	if estimated.Position != nil && groundTruth.Position != nil {
		d := estimated.Position.vector().Distance(groundTruth.Position.vector()) * scale
		out.TranslationError = &d
	}
	if estimated.Rotation != nil && groundTruth.Rotation != nil {
		a := angleBetween(estimated.Rotation.Direction(), groundTruth.Rotation.Direction())
		out.RotationError = &a
	}
	return out
}

// angleBetween returns the angle in degrees between two unit vectors. The
// dot product is clamped so rounding drift cannot leave the acos domain.
func angleBetween(a, b r3.Vector) float64 {
	dot := math.Max(-1, math.Min(1, a.Dot(b)))
	return units.RadToDeg(math.Acos(dot))
}
